package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Rrens/smm-bot/internal/llm"
)

// Provider implements llm.Provider for Anthropic
type Provider struct {
	apiKey       string
	defaultModel string
	client       *http.Client
	baseURL      string
}

// NewProvider creates a new Anthropic provider
func NewProvider(apiKey, defaultModel string) *Provider {
	if defaultModel == "" {
		defaultModel = "claude-sonnet-4-20250514"
	}
	return &Provider{
		apiKey:       apiKey,
		defaultModel: defaultModel,
		client:       &http.Client{Timeout: 10 * time.Minute},
		baseURL:      "https://api.anthropic.com/v1",
	}
}

// WithBaseURL points the provider at another endpoint
func (p *Provider) WithBaseURL(baseURL string) *Provider {
	p.baseURL = strings.TrimSuffix(baseURL, "/")
	return p
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "anthropic"
}

// AvailableModels returns list of supported models
func (p *Provider) AvailableModels() []string {
	return []string{
		"claude-opus-4-20250514",
		"claude-sonnet-4-20250514",
		"claude-3-7-sonnet-20250219",
		"claude-3-5-haiku-20241022",
	}
}

// DefaultModel returns the default model
func (p *Provider) DefaultModel() string {
	return p.defaultModel
}

// IsConfigured checks if provider has valid credentials
func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature *float64           `json:"temperature,omitempty"`
	Thinking    *thinkingConfig    `json:"thinking,omitempty"`
	Tools       []webSearchTool    `json:"tools,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type thinkingConfig struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens"`
}

type webSearchTool struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	MaxUses int    `json:"max_uses"`
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (p *Provider) buildRequest(req llm.Request) anthropicRequest {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	system := req.SystemPrompt
	if req.JSONMode {
		system += "\n\nRespond with a single valid JSON object and nothing else."
	}

	ar := anthropicRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    strings.TrimSpace(system),
	}

	for _, m := range llm.MergeConsecutive(req.History) {
		ar.Messages = append(ar.Messages, anthropicMessage{Role: string(m.Role), Content: m.Content})
	}

	if req.ThinkingTokens > 0 {
		// Extended thinking needs max_tokens above the budget and a fixed temperature.
		ar.Thinking = &thinkingConfig{Type: "enabled", BudgetTokens: req.ThinkingTokens}
		if ar.MaxTokens <= req.ThinkingTokens {
			ar.MaxTokens = req.ThinkingTokens + maxTokens
		}
	} else if req.Temperature > 0 {
		t := req.Temperature
		ar.Temperature = &t
	}

	if req.EnableWebSearch {
		ar.Tools = []webSearchTool{{Type: "web_search_20250305", Name: "web_search", MaxUses: 5}}
	}

	return ar
}

// Generate runs one completion
func (p *Provider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	anthropicReq := p.buildRequest(req)

	body, err := json.Marshal(anthropicReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("anthropic returned status %d: %s", resp.StatusCode, msg)
	}

	var anthropicResp anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&anthropicResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	// With web search the answer follows tool blocks; only the last text block is the reply.
	var text string
	for _, block := range anthropicResp.Content {
		if block.Type == "text" {
			text = block.Text
		}
	}
	if text == "" {
		return nil, fmt.Errorf("no response from Anthropic")
	}

	return &llm.Response{
		Content: text,
		Cost: llm.CostReport{
			Details: llm.CostDetails{Tokens: llm.Tokens{
				InputTokens:  anthropicResp.Usage.InputTokens,
				OutputTokens: anthropicResp.Usage.OutputTokens,
				TotalTokens:  anthropicResp.Usage.InputTokens + anthropicResp.Usage.OutputTokens,
			}},
			Model:     anthropicReq.Model,
			LatencyMs: time.Since(start).Milliseconds(),
		},
	}, nil
}
