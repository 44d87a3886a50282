package dialog

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog/log"
)

const callbackSep = "|"

// HandlerFunc is the unit the middleware chain wraps
type HandlerFunc func(ctx context.Context, m *Manager) error

// Middleware decorates event handling, e.g. to load the chat session
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler turns a handler failure into something the user sees.
// Returning nil marks the error as handled.
type ErrorHandler func(ctx context.Context, m *Manager, err error) error

// Engine runs dialogs for every chat
type Engine struct {
	registry     *Registry
	storage      Storage
	messenger    Messenger
	commands     map[string]Handler
	middlewares  []Middleware
	errorHandler ErrorHandler
	fallback     MessageHandler
	staleText    string
}

func NewEngine(registry *Registry, storage Storage, messenger Messenger) *Engine {
	return &Engine{
		registry:  registry,
		storage:   storage,
		messenger: messenger,
		commands:  make(map[string]Handler),
		staleText: "This screen is no longer active",
	}
}

// Command binds a bot command such as "/start"
func (e *Engine) Command(command string, h Handler) {
	e.commands[command] = h
}

// Use appends middlewares; the first one added runs outermost
func (e *Engine) Use(mw ...Middleware) {
	e.middlewares = append(e.middlewares, mw...)
}

func (e *Engine) OnError(h ErrorHandler) {
	e.errorHandler = h
}

// Fallback handles messages no window consumes
func (e *Engine) Fallback(h MessageHandler) {
	e.fallback = h
}

func (e *Engine) SetStaleText(text string) {
	e.staleText = text
}

func (e *Engine) Registry() *Registry {
	return e.registry
}

// HandleEvent processes one inbound update. Calls for the same chat must be serialized by the caller.
func (e *Engine) HandleEvent(ctx context.Context, ev *Event) error {
	return e.handle(ctx, ev, nil)
}

// Trigger runs fn against the chat's stack as a synthetic event and renders the result
func (e *Engine) Trigger(ctx context.Context, chatID int64, fn Handler) error {
	return e.handle(ctx, &Event{ChatID: chatID, UserID: chatID, Synthetic: true}, fn)
}

func (e *Engine) handle(ctx context.Context, ev *Event, fn Handler) error {
	stack, err := e.storage.Load(ctx, ev.ChatID)
	if err != nil {
		return fmt.Errorf("failed to load stack: %w", err)
	}
	if stack == nil {
		stack = &Stack{ChatID: ev.ChatID}
	}

	m := newManager(e, stack, ev)

	var h HandlerFunc = e.dispatch
	if fn != nil {
		h = HandlerFunc(fn)
	}
	for i := len(e.middlewares) - 1; i >= 0; i-- {
		h = e.middlewares[i](h)
	}

	handlerErr := e.safeCall(ctx, m, h)
	if handlerErr != nil {
		handlerErr = e.handleError(ctx, m, handlerErr)
	}

	if ev.IsCallback() {
		if err := e.messenger.AnswerCallback(ctx, ev.Callback.ID, m.answerText, m.answerAlert); err != nil {
			log.Debug().Err(err).Int64("chat_id", ev.ChatID).Msg("Failed to answer callback")
		}
	}

	if m.showMode != ShowNoUpdate && !stack.Empty() {
		if err := e.render(ctx, m); err != nil {
			log.Error().Err(err).Int64("chat_id", ev.ChatID).Str("state", string(m.State())).Msg("Failed to render window")
			if handlerErr == nil {
				handlerErr = err
			}
		}
	}

	if err := e.save(ctx, m); err != nil {
		return err
	}
	return handlerErr
}

func (e *Engine) save(ctx context.Context, m *Manager) error {
	if err := m.flush(); err != nil {
		return err
	}
	if err := e.storage.Save(ctx, m.stack); err != nil {
		return fmt.Errorf("failed to save stack: %w", err)
	}
	return nil
}

func (e *Engine) safeCall(ctx context.Context, m *Manager, h HandlerFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Int64("chat_id", m.ChatID()).
				Str("state", string(m.State())).
				Str("stack", string(debug.Stack())).
				Msgf("Panic in dialog handler: %v", r)
			err = fmt.Errorf("panic in dialog handler: %v", r)
		}
	}()
	return h(ctx, m)
}

func (e *Engine) handleError(ctx context.Context, m *Manager, err error) error {
	if e.errorHandler == nil {
		log.Error().Err(err).Int64("chat_id", m.ChatID()).Str("state", string(m.State())).Msg("Dialog handler failed")
		return err
	}
	return e.safeCall(ctx, m, func(ctx context.Context, m *Manager) error {
		return e.errorHandler(ctx, m, err)
	})
}

func (e *Engine) dispatch(ctx context.Context, m *Manager) error {
	ev := m.event
	switch {
	case ev.Callback != nil:
		return e.dispatchCallback(ctx, m)
	case ev.Message != nil:
		return e.dispatchMessage(ctx, m)
	}
	m.showMode = ShowNoUpdate
	return nil
}

func (e *Engine) dispatchCallback(ctx context.Context, m *Manager) error {
	frameID, rest, _ := strings.Cut(m.event.Callback.Data, callbackSep)
	widgetID, item, _ := strings.Cut(rest, callbackSep)

	top := m.stack.Top()
	if top == nil || top.ID != frameID {
		m.Answer(e.staleText, false)
		m.showMode = ShowNoUpdate
		return nil
	}

	window, ok := e.registry.Window(top.State)
	if !ok || window.Keyboard == nil {
		m.Answer(e.staleText, false)
		m.showMode = ShowNoUpdate
		return nil
	}

	c := window.Keyboard.lookup(widgetID)
	if c == nil {
		m.Answer(e.staleText, false)
		m.showMode = ShowNoUpdate
		return nil
	}
	return c.click(ctx, m, item)
}

func (e *Engine) dispatchMessage(ctx context.Context, m *Manager) error {
	msg := m.event.Message
	if msg.Command != "" {
		if h, ok := e.commands[msg.Command]; ok {
			return h(ctx, m)
		}
	}

	if top := m.stack.Top(); top != nil {
		if window, ok := e.registry.Window(top.State); ok && window.OnMessage != nil {
			return window.OnMessage(ctx, m, msg)
		}
	}

	if e.fallback != nil {
		return e.fallback(ctx, m, msg)
	}
	m.showMode = ShowNoUpdate
	return nil
}

func (e *Engine) render(ctx context.Context, m *Manager) error {
	for attempt := 0; attempt < 2; attempt++ {
		top := m.stack.Top()
		if top == nil {
			return nil
		}
		window, ok := e.registry.Window(top.State)
		if !ok {
			return fmt.Errorf("unknown state %q", top.State)
		}

		data := Data{}
		if window.Getter != nil {
			got, err := e.callGetter(ctx, m, window.Getter)
			if err != nil {
				state := top.State
				if herr := e.handleError(ctx, m, err); herr != nil {
					return herr
				}
				if m.showMode == ShowNoUpdate {
					return nil
				}
				if next := m.stack.Top(); next != nil && next.State != state {
					continue
				}
				return nil
			}
			if got != nil {
				data = got
			}
		}

		if err := m.flush(); err != nil {
			return err
		}
		return e.deliver(ctx, m, window.render(data, top))
	}
	return nil
}

func (e *Engine) callGetter(ctx context.Context, m *Manager, g Getter) (data Data, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Int64("chat_id", m.ChatID()).
				Str("state", string(m.State())).
				Str("stack", string(debug.Stack())).
				Msgf("Panic in window getter: %v", r)
			err = fmt.Errorf("panic in window getter: %v", r)
		}
	}()
	return g(ctx, m)
}

func (e *Engine) deliver(ctx context.Context, m *Manager, r Rendered) error {
	stack := m.stack
	mode := m.showMode
	if mode == ShowAuto {
		mode = ShowSend
		if m.event.IsCallback() && stack.MessageID != 0 {
			mode = ShowEdit
		}
	}
	if mode == ShowEdit && (stack.MessageID == 0 || r.MediaKey() != stack.MediaKey) {
		mode = ShowSend
	}

	if mode == ShowEdit {
		err := e.messenger.Edit(ctx, stack.ChatID, stack.MessageID, r)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrCannotEdit) {
			log.Debug().Err(err).Int64("chat_id", stack.ChatID).Msg("Edit failed, sending new message")
		}
	}

	if stack.MessageID != 0 {
		if err := e.messenger.ClearKeyboard(ctx, stack.ChatID, stack.MessageID); err != nil {
			log.Debug().Err(err).Int64("chat_id", stack.ChatID).Msg("Failed to clear previous keyboard")
		}
	}

	id, err := e.messenger.Send(ctx, stack.ChatID, r)
	if err != nil {
		return fmt.Errorf("failed to send window: %w", err)
	}
	stack.MessageID = id
	stack.MediaKey = r.MediaKey()
	return nil
}
