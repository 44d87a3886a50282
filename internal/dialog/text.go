package dialog

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// Data is what a window getter returns for rendering
type Data map[string]any

// Text renders a piece of screen text from getter data
type Text interface {
	Render(data Data) string
}

// Const is a fixed text
type Const string

func (c Const) Render(Data) string {
	return string(c)
}

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// Format substitutes {key} placeholders with getter values.
// Unknown keys render as empty strings.
type Format string

func (f Format) Render(data Data) string {
	return placeholderPattern.ReplaceAllStringFunc(string(f), func(m string) string {
		key := m[1 : len(m)-1]
		v, ok := data[key]
		if !ok || v == nil {
			return ""
		}
		return fmt.Sprint(v)
	})
}

// Multi joins non-empty parts with Sep (newline by default)
type Multi struct {
	Texts []Text
	Sep   string
}

func NewMulti(texts ...Text) Multi {
	return Multi{Texts: texts, Sep: "\n"}
}

func (m Multi) Render(data Data) string {
	sep := m.Sep
	if sep == "" {
		sep = "\n"
	}
	parts := make([]string, 0, len(m.Texts))
	for _, t := range m.Texts {
		if s := t.Render(data); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sep)
}

// When renders Text only when the condition holds.
// A condition is a data key, optionally negated with a leading "!".
type When struct {
	Cond string
	Text Text
}

func (w When) Render(data Data) string {
	if !data.Check(w.Cond) {
		return ""
	}
	return w.Text.Render(data)
}

// Case picks a text by the string form of data[Selector]
type Case struct {
	Selector string
	Cases    map[string]Text
	Default  Text
}

func (c Case) Render(data Data) string {
	if t, ok := c.Cases[fmt.Sprint(data[c.Selector])]; ok {
		return t.Render(data)
	}
	if c.Default != nil {
		return c.Default.Render(data)
	}
	return ""
}

// TextFunc adapts a function to Text
type TextFunc func(data Data) string

func (f TextFunc) Render(data Data) string {
	return f(data)
}

// Check evaluates a condition: empty is true, "key" is truthy data, "!key" is its negation
func (d Data) Check(cond string) bool {
	if cond == "" {
		return true
	}
	if strings.HasPrefix(cond, "!") {
		return !truthy(d[cond[1:]])
	}
	return truthy(d[cond])
}

func truthy(v any) bool {
	if v == nil {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}
