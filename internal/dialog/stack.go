package dialog

import (
	"encoding/json"
	"strings"
)

// State identifies a window as "group:name"
type State string

// Group returns the dialog group part of the state
func (s State) Group() string {
	group, _, _ := strings.Cut(string(s), ":")
	return group
}

// ShowMode controls how the next render reaches the user
type ShowMode int

const (
	// ShowAuto edits the message for button presses and sends a new one for typed input
	ShowAuto ShowMode = iota
	ShowEdit
	ShowSend
	ShowNoUpdate
)

func (m ShowMode) String() string {
	switch m {
	case ShowEdit:
		return "edit"
	case ShowSend:
		return "send"
	case ShowNoUpdate:
		return "no_update"
	default:
		return "auto"
	}
}

// StartMode controls how Start affects the stack
type StartMode int

const (
	StartNormal StartMode = iota
	StartResetStack
)

// Frame is one running dialog on the stack
type Frame struct {
	ID        string            `json:"id"`
	Group     string            `json:"group"`
	State     State             `json:"state"`
	Data      json.RawMessage   `json:"data,omitempty"`
	StartData json.RawMessage   `json:"start_data,omitempty"`
	Widgets   map[string]string `json:"widgets,omitempty"`
}

// Stack is the navigation state of one chat
type Stack struct {
	ChatID int64    `json:"chat_id"`
	Frames []*Frame `json:"frames"`
	// MessageID is the last message rendered by the engine
	MessageID int `json:"message_id,omitempty"`
	// MediaKey identifies the media attached to that message
	MediaKey string `json:"media_key,omitempty"`
}

// Top returns the frame receiving input, or nil
func (s *Stack) Top() *Frame {
	if len(s.Frames) == 0 {
		return nil
	}
	return s.Frames[len(s.Frames)-1]
}

// Empty reports whether no dialog is running
func (s *Stack) Empty() bool {
	return len(s.Frames) == 0
}
