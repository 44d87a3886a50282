package dialog

// File references a messenger-hosted file
type File struct {
	FileID   string
	UniqueID string
	FileName string
	MimeType string
	Duration int
	Size     int
}

// Message is an inbound chat message reduced to what dialogs consume
type Message struct {
	ID      int
	Text    string
	Caption string
	// Command is the bot command without arguments, e.g. "/start"
	Command  string
	Voice    *File
	Audio    *File
	Photo    *File
	Document *File
	Forward  *Message
	ReplyTo  *Message
}

// Callback is an inline button press
type Callback struct {
	ID        string
	Data      string
	MessageID int
}

// Event is one inbound update for a chat
type Event struct {
	ChatID   int64
	UserID   int64
	Username string
	Message  *Message
	Callback *Callback
	// Synthetic events are raised by the bot itself, e.g. proactive alerts
	Synthetic bool
}

// IsCallback reports whether the event is a button press
func (e *Event) IsCallback() bool {
	return e.Callback != nil
}
