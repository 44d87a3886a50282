package dialog

import (
	"context"
	"fmt"
)

// Getter loads the data a window renders
type Getter func(ctx context.Context, m *Manager) (Data, error)

// MessageHandler consumes a typed message while its window is on top
type MessageHandler func(ctx context.Context, m *Manager, msg *Message) error

// Media attaches a picture to a window. Keys point into getter data.
type Media struct {
	URLKey    string
	FileIDKey string
	Path      Text
	When      string
	// Video sends the file as a video instead of a photo
	Video bool
}

// Window is one screen of a dialog
type Window struct {
	State             State
	Getter            Getter
	Text              Text
	Keyboard          Keyboard
	Media             *Media
	OnMessage         MessageHandler
	DisableWebPreview bool
}

// Dialog groups windows sharing one frame of data
type Dialog struct {
	Windows []*Window
	// OnStart runs once when the dialog is pushed onto the stack
	OnStart Handler
	// OnResult runs when a child dialog started from this one is done
	OnResult func(ctx context.Context, m *Manager, result any) error
}

// Group returns the group of the first window
func (d *Dialog) Group() string {
	if len(d.Windows) == 0 {
		return ""
	}
	return d.Windows[0].State.Group()
}

// Registry indexes dialogs by window state
type Registry struct {
	windows map[State]*Window
	dialogs map[string]*Dialog
}

func NewRegistry() *Registry {
	return &Registry{
		windows: make(map[State]*Window),
		dialogs: make(map[string]*Dialog),
	}
}

// Register adds a dialog. All its windows must share one group.
func (r *Registry) Register(d *Dialog) error {
	group := d.Group()
	if group == "" {
		return fmt.Errorf("dialog has no windows")
	}
	if _, exists := r.dialogs[group]; exists {
		return fmt.Errorf("dialog group %q already registered", group)
	}
	for _, w := range d.Windows {
		if w.State.Group() != group {
			return fmt.Errorf("window %q does not belong to group %q", w.State, group)
		}
		if _, exists := r.windows[w.State]; exists {
			return fmt.Errorf("window %q already registered", w.State)
		}
	}

	for _, w := range d.Windows {
		r.windows[w.State] = w
	}
	r.dialogs[group] = d
	return nil
}

// MustRegister registers dialogs and panics on a wiring mistake
func (r *Registry) MustRegister(dialogs ...*Dialog) {
	for _, d := range dialogs {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) Window(state State) (*Window, bool) {
	w, ok := r.windows[state]
	return w, ok
}

func (r *Registry) Dialog(group string) (*Dialog, bool) {
	d, ok := r.dialogs[group]
	return d, ok
}

func (w *Window) render(data Data, frame *Frame) Rendered {
	out := Rendered{DisableWebPreview: w.DisableWebPreview}
	if w.Text != nil {
		out.Text = w.Text.Render(data)
	}
	if w.Keyboard != nil {
		rc := &renderContext{data: data, frame: frame}
		out.Keyboard = w.Keyboard.rows(rc)
	}
	if w.Media != nil && data.Check(w.Media.When) {
		out.MediaVideo = w.Media.Video
		switch {
		case w.Media.FileIDKey != "" && stringValue(data[w.Media.FileIDKey]) != "":
			out.MediaFileID = stringValue(data[w.Media.FileIDKey])
		case w.Media.URLKey != "" && stringValue(data[w.Media.URLKey]) != "":
			out.MediaURL = stringValue(data[w.Media.URLKey])
		case w.Media.Path != nil:
			out.MediaPath = w.Media.Path.Render(data)
		}
	}
	return out
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
