package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/Rrens/smm-bot/internal/config"
	"github.com/Rrens/smm-bot/internal/llm"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type Provider struct {
	apiKey string
	model  string
}

func NewProvider(cfg config.GeminiConfig) *Provider {
	return &Provider{
		apiKey: cfg.APIKey,
		model:  cfg.Model,
	}
}

func (p *Provider) Name() string {
	return "gemini"
}

func (p *Provider) AvailableModels() []string {
	return []string{
		"gemini-2.5-pro",
		"gemini-2.5-flash",
		"gemini-1.5-pro",
	}
}

func (p *Provider) DefaultModel() string {
	if p.model != "" {
		return p.model
	}
	return "gemini-2.5-flash"
}

func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

func (p *Provider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if !p.IsConfigured() {
		return nil, fmt.Errorf("gemini provider is not configured (missing API key)")
	}

	model := req.Model
	if model == "" {
		model = p.DefaultModel()
	}

	history := llm.MergeConsecutive(req.History)
	if len(history) == 0 || history[len(history)-1].Role != llm.RoleUser {
		return nil, fmt.Errorf("gemini history must end with a user message")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	generativeModel := client.GenerativeModel(model)
	temperature := float32(req.Temperature)
	generativeModel.Temperature = &temperature
	if req.MaxTokens > 0 {
		maxTokens := int32(req.MaxTokens)
		generativeModel.MaxOutputTokens = &maxTokens
	}
	if req.SystemPrompt != "" {
		generativeModel.SystemInstruction = genai.NewUserContent(genai.Text(req.SystemPrompt))
	}
	if req.JSONMode {
		generativeModel.ResponseMIMEType = "application/json"
	}

	chat := generativeModel.StartChat()
	for _, m := range history[:len(history)-1] {
		role := "user"
		if m.Role == llm.RoleAssistant {
			role = "model"
		}
		chat.History = append(chat.History, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}

	start := time.Now()
	resp, err := chat.SendMessage(ctx, genai.Text(history[len(history)-1].Content))
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from gemini")
	}

	var output string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			output += string(text)
		}
	}

	var tokens llm.Tokens
	if resp.UsageMetadata != nil {
		tokens = llm.Tokens{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	return &llm.Response{
		Content: output,
		Cost: llm.CostReport{
			Details:   llm.CostDetails{Tokens: tokens},
			Model:     model,
			LatencyMs: latency,
		},
	}, nil
}
