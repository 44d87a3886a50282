package domain

import "errors"

// Error taxonomy shared by collaborator clients, workflows and the dialog layer
var (
	ErrNotFound             = errors.New("not found")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrNoImageData          = errors.New("no image data")
	ErrTransient            = errors.New("transient collaborator failure")
	ErrMalformedLLMResponse = errors.New("malformed llm response")
	ErrVoiceTooLong         = errors.New("voice message is too long")
)

// APIError describes a non-success collaborator response
type APIError struct {
	Service    string
	Method     string
	Path       string
	StatusCode int
	Body       string
	Kind       error
}

func (e *APIError) Error() string {
	return e.Service + " " + e.Method + " " + e.Path + ": " + e.Kind.Error()
}

func (e *APIError) Unwrap() error {
	return e.Kind
}
