package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Rrens/smm-bot/internal/domain"
)

// modelPrefixes maps model name prefixes to provider names
var modelPrefixes = []struct {
	prefix   string
	provider string
}{
	{"claude", "anthropic"},
	{"gpt", "openai"},
	{"o1", "openai"},
	{"o3", "openai"},
	{"o4", "openai"},
	{"gemini", "gemini"},
	{"deepseek", "deepseek"},
}

// Router manages LLM providers and routing
type Router struct {
	providers       map[string]Provider
	defaultProvider string
	defaults        Request
	mu              sync.RWMutex
}

// NewRouter creates a new LLM router.
// defaults fills zero fields of every request (model, token limits, temperature).
func NewRouter(defaultProvider string, defaults Request) *Router {
	return &Router{
		providers:       make(map[string]Provider),
		defaultProvider: defaultProvider,
		defaults:        defaults,
	}
}

// RegisterProvider registers an LLM provider
func (r *Router) RegisterProvider(provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
}

// ListProviders returns list of configured provider names
func (r *Router) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var providers []string
	for name, p := range r.providers {
		if p.IsConfigured() {
			providers = append(providers, name)
		}
	}
	return providers
}

// GetProvider returns a provider by name
func (r *Router) GetProvider(name string) (Provider, error) {
	if name == "" {
		name = r.defaultProvider
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", name)
	}

	if !p.IsConfigured() {
		return nil, fmt.Errorf("provider not configured: %s", name)
	}

	return p, nil
}

// ProviderForModel picks the provider serving a model name.
// keep is false when the model belongs to a provider that is not configured,
// in which case the default provider answers with its own default model.
func (r *Router) ProviderForModel(model string) (p Provider, keep bool, err error) {
	lower := strings.ToLower(model)
	for _, mp := range modelPrefixes {
		if strings.HasPrefix(lower, mp.prefix) {
			if p, err := r.GetProvider(mp.provider); err == nil {
				return p, true, nil
			}
			p, err := r.GetProvider("")
			return p, false, err
		}
	}
	p, err = r.GetProvider("")
	return p, true, err
}

// DefaultProvider returns the default provider name
func (r *Router) DefaultProvider() string {
	return r.defaultProvider
}

func (r *Router) withDefaults(req Request) Request {
	if req.Model == "" {
		req.Model = r.defaults.Model
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = r.defaults.MaxTokens
	}
	if req.ThinkingTokens == 0 {
		req.ThinkingTokens = r.defaults.ThinkingTokens
	}
	if req.Temperature == 0 {
		req.Temperature = r.defaults.Temperature
	}
	if !req.EnableWebSearch {
		req.EnableWebSearch = r.defaults.EnableWebSearch
	}
	return req
}

func (r *Router) generate(ctx context.Context, req Request) (*Response, error) {
	req = r.withDefaults(req)

	provider, keep, err := r.ProviderForModel(req.Model)
	if err != nil {
		return nil, err
	}
	if !keep || req.Model == "" {
		req.Model = provider.DefaultModel()
	}

	start := time.Now()
	resp, err := provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s generation failed: %w", provider.Name(), err)
	}

	if resp.Cost.Model == "" {
		resp.Cost.Model = req.Model
	}
	if resp.Cost.LatencyMs == 0 {
		resp.Cost.LatencyMs = time.Since(start).Milliseconds()
	}
	fillUsage(&resp.Cost.Details.Tokens, req, resp.Content)

	return resp, nil
}

// GenerateStr returns the raw text of a completion
func (r *Router) GenerateStr(ctx context.Context, req Request) (string, CostReport, error) {
	resp, err := r.generate(ctx, req)
	if err != nil {
		return "", CostReport{}, err
	}
	return strings.TrimSpace(resp.Content), resp.Cost, nil
}

// GenerateJSON returns a completion decoded as a JSON object.
// Output that is not a single JSON object yields domain.ErrMalformedLLMResponse with the cost still reported.
func (r *Router) GenerateJSON(ctx context.Context, req Request) (map[string]any, CostReport, error) {
	req.JSONMode = true

	resp, err := r.generate(ctx, req)
	if err != nil {
		return nil, CostReport{}, err
	}

	raw := ExtractJSON(resp.Content)
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil || obj == nil {
		return nil, resp.Cost, fmt.Errorf("%w: %s", domain.ErrMalformedLLMResponse, truncate(resp.Content, 200))
	}
	return obj, resp.Cost, nil
}

func fillUsage(t *Tokens, req Request, output string) {
	if t.InputTokens == 0 && t.OutputTokens == 0 && t.TotalTokens == 0 {
		input := CountTokens(req.SystemPrompt)
		for _, m := range req.History {
			input += CountTokens(m.Content)
		}
		t.InputTokens = input
		t.OutputTokens = CountTokens(output)
	}
	if t.TotalTokens == 0 {
		t.TotalTokens = t.InputTokens + t.OutputTokens
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
