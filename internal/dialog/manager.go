package dialog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Manager is the handle a handler or getter uses to navigate and inspect the stack.
// It lives for the duration of one event.
type Manager struct {
	engine   *Engine
	stack    *Stack
	event    *Event
	showMode ShowMode
	values   map[string]any
	// frame id -> typed dialog data, flushed back to the frame before saving
	cache map[string]any

	answered    bool
	answerText  string
	answerAlert bool
}

func newManager(e *Engine, stack *Stack, ev *Event) *Manager {
	return &Manager{
		engine: e,
		stack:  stack,
		event:  ev,
		values: make(map[string]any),
		cache:  make(map[string]any),
	}
}

func newFrameID() string {
	return uuid.NewString()[:8]
}

// Event returns the event being handled
func (m *Manager) Event() *Event {
	return m.event
}

func (m *Manager) ChatID() int64 {
	return m.event.ChatID
}

func (m *Manager) UserID() int64 {
	return m.event.UserID
}

// Stack exposes the chat's stack, mainly for inspection in tests
func (m *Manager) Stack() *Stack {
	return m.stack
}

// Current returns the top frame or nil when no dialog is running
func (m *Manager) Current() *Frame {
	return m.stack.Top()
}

// State returns the top frame's state or "" when the stack is empty
func (m *Manager) State() State {
	if f := m.stack.Top(); f != nil {
		return f.State
	}
	return ""
}

// Set stores a value for the rest of this event, e.g. from middleware
func (m *Manager) Set(key string, value any) {
	m.values[key] = value
}

func (m *Manager) Value(key string) any {
	return m.values[key]
}

// Start pushes a new dialog whose first window is state.
// StartResetStack drops every running dialog first.
func (m *Manager) Start(ctx context.Context, state State, mode StartMode, startData any) error {
	if _, ok := m.engine.registry.Window(state); !ok {
		return fmt.Errorf("unknown state %q", state)
	}

	frame := &Frame{
		ID:    newFrameID(),
		Group: state.Group(),
		State: state,
	}
	if startData != nil {
		raw, err := json.Marshal(startData)
		if err != nil {
			return fmt.Errorf("failed to marshal start data: %w", err)
		}
		frame.StartData = raw
	}

	if mode == StartResetStack {
		m.stack.Frames = nil
		m.cache = make(map[string]any)
	} else if err := m.flush(); err != nil {
		return err
	}
	m.stack.Frames = append(m.stack.Frames, frame)

	if d, ok := m.engine.registry.Dialog(frame.Group); ok && d.OnStart != nil {
		return d.OnStart(ctx, m)
	}
	return nil
}

// SwitchTo moves the top dialog to another of its windows keeping its data
func (m *Manager) SwitchTo(state State, mode ...ShowMode) error {
	top := m.stack.Top()
	if top == nil {
		return fmt.Errorf("switch to %q: no running dialog", state)
	}
	if state.Group() != top.Group {
		return fmt.Errorf("switch to %q: state is outside dialog %q", state, top.Group)
	}
	if _, ok := m.engine.registry.Window(state); !ok {
		return fmt.Errorf("unknown state %q", state)
	}

	top.State = state
	if len(mode) > 0 {
		m.showMode = mode[0]
	}
	return nil
}

// Done closes the top dialog. The parent dialog, if any, receives result.
func (m *Manager) Done(ctx context.Context, result any) error {
	if m.stack.Empty() {
		return nil
	}
	closed := m.stack.Frames[len(m.stack.Frames)-1]
	m.stack.Frames = m.stack.Frames[:len(m.stack.Frames)-1]
	delete(m.cache, closed.ID)

	parent := m.stack.Top()
	if parent == nil {
		return nil
	}
	if d, ok := m.engine.registry.Dialog(parent.Group); ok && d.OnResult != nil {
		return d.OnResult(ctx, m, result)
	}
	return nil
}

// ResetStack drops every running dialog
func (m *Manager) ResetStack() {
	m.stack.Frames = nil
	m.cache = make(map[string]any)
}

// Show forces the top window to be rendered with the given mode
func (m *Manager) Show(mode ShowMode) {
	m.showMode = mode
}

// SetShowMode sets how the next render reaches the user
func (m *Manager) SetShowMode(mode ShowMode) {
	m.showMode = mode
}

func (m *Manager) ShowMode() ShowMode {
	return m.showMode
}

// WidgetValue returns raw widget state of the top frame
func (m *Manager) WidgetValue(id string) string {
	top := m.stack.Top()
	if top == nil || top.Widgets == nil {
		return ""
	}
	return top.Widgets[id]
}

func (m *Manager) SetWidgetValue(id, value string) {
	top := m.stack.Top()
	if top == nil {
		return
	}
	if top.Widgets == nil {
		top.Widgets = make(map[string]string)
	}
	top.Widgets[id] = value
}

// IsChecked reports a checkbox state; unset checkboxes are unchecked
func (m *Manager) IsChecked(id string) bool {
	return checkedValue(m.WidgetValue(id), false)
}

func (m *Manager) SetChecked(id string, checked bool) {
	value := "0"
	if checked {
		value = "1"
	}
	m.SetWidgetValue(id, value)
}

// Answer shows a toast (or an alert box) for the pressed button
func (m *Manager) Answer(text string, alert bool) {
	m.answerText = text
	m.answerAlert = alert
}

// Send posts a plain message outside the dialog window.
// The window is sent anew afterwards so it stays the last message.
func (m *Manager) Send(ctx context.Context, text string) error {
	if _, err := m.engine.messenger.Send(ctx, m.ChatID(), Rendered{Text: text, DisableWebPreview: true}); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	if m.showMode == ShowAuto || m.showMode == ShowEdit {
		m.showMode = ShowSend
	}
	return nil
}

// Messenger gives handlers direct access for media they send themselves
func (m *Manager) Messenger() Messenger {
	return m.engine.messenger
}

// flush writes typed dialog data back into the frames
func (m *Manager) flush() error {
	for _, frame := range m.stack.Frames {
		data, ok := m.cache[frame.ID]
		if !ok {
			continue
		}
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal dialog data of %s: %w", frame.State, err)
		}
		frame.Data = raw
	}
	return nil
}

// DataOf returns the typed dialog data of the top frame.
// Mutations through the pointer are persisted when the event completes.
func DataOf[T any](m *Manager) *T {
	top := m.stack.Top()
	if top == nil {
		return new(T)
	}
	if cached, ok := m.cache[top.ID].(*T); ok {
		return cached
	}

	data := new(T)
	if len(top.Data) > 0 {
		if err := json.Unmarshal(top.Data, data); err != nil {
			data = new(T)
		}
	}
	m.cache[top.ID] = data
	return data
}

// StartDataOf decodes the data the top dialog was started with
func StartDataOf[T any](m *Manager) *T {
	data := new(T)
	top := m.stack.Top()
	if top == nil || len(top.StartData) == 0 {
		return data
	}
	if err := json.Unmarshal(top.StartData, data); err != nil {
		return new(T)
	}
	return data
}
