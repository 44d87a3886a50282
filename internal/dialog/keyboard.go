package dialog

import (
	"context"
	"fmt"
	"strconv"
)

// Handler reacts to a button press or input
type Handler func(ctx context.Context, m *Manager) error

// ItemHandler reacts to a press on a list item
type ItemHandler func(ctx context.Context, m *Manager, item string) error

// CheckboxHandler reacts to a checkbox toggle
type CheckboxHandler func(ctx context.Context, m *Manager, checked bool) error

// Keyboard is a node of a window's button tree
type Keyboard interface {
	rows(rc *renderContext) [][]InlineButton
	lookup(id string) clicker
}

type clicker interface {
	click(ctx context.Context, m *Manager, item string) error
}

type renderContext struct {
	data  Data
	frame *Frame
}

func (rc *renderContext) callback(widgetID, item string) string {
	return rc.frame.ID + callbackSep + widgetID + callbackSep + item
}

func (rc *renderContext) widget(id string) string {
	if rc.frame.Widgets == nil {
		return ""
	}
	return rc.frame.Widgets[id]
}

// Button runs OnClick when pressed
type Button struct {
	ID      string
	Text    Text
	OnClick Handler
	When    string
}

func (b Button) rows(rc *renderContext) [][]InlineButton {
	if !rc.data.Check(b.When) {
		return nil
	}
	return [][]InlineButton{{{Text: b.Text.Render(rc.data), CallbackData: rc.callback(b.ID, "")}}}
}

func (b Button) lookup(id string) clicker {
	if b.ID == id {
		return b
	}
	return nil
}

func (b Button) click(ctx context.Context, m *Manager, _ string) error {
	if b.OnClick == nil {
		return nil
	}
	return b.OnClick(ctx, m)
}

// SwitchTo moves the current dialog to another state, running OnClick first when set
type SwitchTo struct {
	ID      string
	Text    Text
	To      State
	OnClick Handler
	When    string
}

func (s SwitchTo) rows(rc *renderContext) [][]InlineButton {
	if !rc.data.Check(s.When) {
		return nil
	}
	return [][]InlineButton{{{Text: s.Text.Render(rc.data), CallbackData: rc.callback(s.ID, "")}}}
}

func (s SwitchTo) lookup(id string) clicker {
	if s.ID == id {
		return s
	}
	return nil
}

func (s SwitchTo) click(ctx context.Context, m *Manager, _ string) error {
	if s.OnClick != nil {
		if err := s.OnClick(ctx, m); err != nil {
			return err
		}
	}
	return m.SwitchTo(s.To)
}

// Start opens another dialog
type Start struct {
	ID   string
	Text Text
	To   State
	Mode StartMode
	When string
}

func (s Start) rows(rc *renderContext) [][]InlineButton {
	if !rc.data.Check(s.When) {
		return nil
	}
	return [][]InlineButton{{{Text: s.Text.Render(rc.data), CallbackData: rc.callback(s.ID, "")}}}
}

func (s Start) lookup(id string) clicker {
	if s.ID == id {
		return s
	}
	return nil
}

func (s Start) click(ctx context.Context, m *Manager, _ string) error {
	return m.Start(ctx, s.To, s.Mode, nil)
}

// Cancel closes the current dialog and returns to the previous one
type Cancel struct {
	ID   string
	Text Text
	When string
}

func (c Cancel) rows(rc *renderContext) [][]InlineButton {
	if !rc.data.Check(c.When) {
		return nil
	}
	return [][]InlineButton{{{Text: c.Text.Render(rc.data), CallbackData: rc.callback(c.ID, "")}}}
}

func (c Cancel) lookup(id string) clicker {
	if c.ID == id {
		return c
	}
	return nil
}

func (c Cancel) click(ctx context.Context, m *Manager, _ string) error {
	return m.Done(ctx, nil)
}

// URL opens a link
type URL struct {
	Text Text
	URL  Text
	When string
}

func (u URL) rows(rc *renderContext) [][]InlineButton {
	if !rc.data.Check(u.When) {
		return nil
	}
	link := u.URL.Render(rc.data)
	if link == "" {
		return nil
	}
	return [][]InlineButton{{{Text: u.Text.Render(rc.data), URL: link}}}
}

func (u URL) lookup(string) clicker {
	return nil
}

// Row lays its children out on one line
type Row []Keyboard

func (r Row) rows(rc *renderContext) [][]InlineButton {
	var row []InlineButton
	for _, child := range r {
		for _, childRow := range child.rows(rc) {
			row = append(row, childRow...)
		}
	}
	if len(row) == 0 {
		return nil
	}
	return [][]InlineButton{row}
}

func (r Row) lookup(id string) clicker {
	return lookupAll(r, id)
}

// Column stacks its children
type Column []Keyboard

func (c Column) rows(rc *renderContext) [][]InlineButton {
	var out [][]InlineButton
	for _, child := range c {
		out = append(out, child.rows(rc)...)
	}
	return out
}

func (c Column) lookup(id string) clicker {
	return lookupAll(c, id)
}

// Group flattens its children and wraps them Width buttons per row
type Group struct {
	Widgets []Keyboard
	Width   int
	When    string
}

func (g Group) rows(rc *renderContext) [][]InlineButton {
	if !rc.data.Check(g.When) {
		return nil
	}
	var flat []InlineButton
	for _, child := range g.Widgets {
		for _, row := range child.rows(rc) {
			flat = append(flat, row...)
		}
	}
	return chunk(flat, g.Width)
}

func (g Group) lookup(id string) clicker {
	return lookupAll(g.Widgets, id)
}

func chunk(buttons []InlineButton, width int) [][]InlineButton {
	if width <= 0 {
		width = 1
	}
	var out [][]InlineButton
	for i := 0; i < len(buttons); i += width {
		end := i + width
		if end > len(buttons) {
			end = len(buttons)
		}
		out = append(out, buttons[i:end])
	}
	return out
}

func lookupAll(children []Keyboard, id string) clicker {
	for _, child := range children {
		if c := child.lookup(id); c != nil {
			return c
		}
	}
	return nil
}

// SelectItem is one entry of a Select list
type SelectItem struct {
	ID   string
	Text string
}

// Select renders data[Items] ([]SelectItem) as buttons, one per row
type Select struct {
	ID      string
	Items   string
	OnClick ItemHandler
	When    string
}

func (s Select) items(data Data) []SelectItem {
	items, _ := data[s.Items].([]SelectItem)
	return items
}

func (s Select) rows(rc *renderContext) [][]InlineButton {
	if !rc.data.Check(s.When) {
		return nil
	}
	var out [][]InlineButton
	for _, item := range s.items(rc.data) {
		out = append(out, []InlineButton{{Text: item.Text, CallbackData: rc.callback(s.ID, item.ID)}})
	}
	return out
}

func (s Select) lookup(id string) clicker {
	if s.ID == id {
		return s
	}
	return nil
}

func (s Select) click(ctx context.Context, m *Manager, item string) error {
	if s.OnClick == nil {
		return nil
	}
	return s.OnClick(ctx, m, item)
}

// ScrollingGroup pages a Select, Height rows of Width buttons per page
type ScrollingGroup struct {
	ID     string
	Select Select
	Width  int
	Height int
	When   string
}

const pagePrefix = "p"

func (g ScrollingGroup) pageSize() int {
	w, h := g.Width, g.Height
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 5
	}
	return w * h
}

func (g ScrollingGroup) rows(rc *renderContext) [][]InlineButton {
	if !rc.data.Check(g.When) {
		return nil
	}

	var flat []InlineButton
	for _, row := range g.Select.rows(rc) {
		flat = append(flat, row...)
	}

	size := g.pageSize()
	pages := (len(flat) + size - 1) / size
	page, _ := strconv.Atoi(rc.widget(g.ID))
	if page >= pages {
		page = pages - 1
	}
	if page < 0 {
		page = 0
	}

	start := page * size
	end := start + size
	if end > len(flat) {
		end = len(flat)
	}
	out := chunk(flat[start:end], g.Width)

	if pages > 1 {
		prev := (page - 1 + pages) % pages
		next := (page + 1) % pages
		out = append(out, []InlineButton{
			{Text: "‹", CallbackData: rc.callback(g.ID, pagePrefix+strconv.Itoa(prev))},
			{Text: fmt.Sprintf("%d/%d", page+1, pages), CallbackData: rc.callback(g.ID, pagePrefix+strconv.Itoa(page))},
			{Text: "›", CallbackData: rc.callback(g.ID, pagePrefix+strconv.Itoa(next))},
		})
	}
	return out
}

func (g ScrollingGroup) lookup(id string) clicker {
	if g.ID == id {
		return g
	}
	return g.Select.lookup(id)
}

func (g ScrollingGroup) click(_ context.Context, m *Manager, item string) error {
	if len(item) > len(pagePrefix) && item[:len(pagePrefix)] == pagePrefix {
		m.SetWidgetValue(g.ID, item[len(pagePrefix):])
	}
	return nil
}

// Checkbox toggles a boolean kept in the frame's widget state
type Checkbox struct {
	ID        string
	Checked   Text
	Unchecked Text
	Default   bool
	OnChange  CheckboxHandler
	When      string
}

func (c Checkbox) rows(rc *renderContext) [][]InlineButton {
	if !rc.data.Check(c.When) {
		return nil
	}
	text := c.Unchecked
	if checkedValue(rc.widget(c.ID), c.Default) {
		text = c.Checked
	}
	return [][]InlineButton{{{Text: text.Render(rc.data), CallbackData: rc.callback(c.ID, "")}}}
}

func (c Checkbox) lookup(id string) clicker {
	if c.ID == id {
		return c
	}
	return nil
}

func (c Checkbox) click(ctx context.Context, m *Manager, _ string) error {
	checked := !checkedValue(m.WidgetValue(c.ID), c.Default)
	m.SetChecked(c.ID, checked)
	if c.OnChange == nil {
		return nil
	}
	return c.OnChange(ctx, m, checked)
}

func checkedValue(raw string, def bool) bool {
	switch raw {
	case "1":
		return true
	case "0":
		return false
	}
	return def
}
