package llm

import "context"

// Role of a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single history entry sent to a model
type Message struct {
	Role    Role
	Content string
}

// Request contains generation parameters shared by all providers
type Request struct {
	History         []Message
	SystemPrompt    string
	Model           string
	MaxTokens       int
	ThinkingTokens  int
	EnableWebSearch bool
	Temperature     float64
	// JSONMode asks the provider for a single JSON object when it supports it
	JSONMode bool
}

// Tokens is the usage reported for one generation
type Tokens struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type CostDetails struct {
	Tokens Tokens `json:"tokens"`
}

// CostReport accompanies every generation
type CostReport struct {
	Details   CostDetails `json:"details"`
	Model     string      `json:"model"`
	LatencyMs int64       `json:"latency_ms"`
}

// Response contains LLM generation result
type Response struct {
	Content string
	Cost    CostReport
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// AvailableModels returns list of supported models
	AvailableModels() []string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Generate runs one completion over the request history
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Client is what the rest of the bot consumes
type Client interface {
	GenerateStr(ctx context.Context, req Request) (string, CostReport, error)
	GenerateJSON(ctx context.Context, req Request) (map[string]any, CostReport, error)
}
