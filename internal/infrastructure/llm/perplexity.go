package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"MonkHerald/internal/config"
	"MonkHerald/internal/domain"
	"MonkHerald/internal/ports"
)

// PerplexityBackend summarizes through an OpenAI-compatible chat/completions
// API. It is locally constrained: without usable body text it declines
// before making a network call.
type PerplexityBackend struct {
	endpoint     string
	model        string
	apiKey       string
	minBodyChars int
	httpClient   *http.Client
}

var _ ports.Summarizer = (*PerplexityBackend)(nil)

// NewPerplexityBackend builds a backend from configuration.
func NewPerplexityBackend(cfg config.BackendConfig, minBodyChars int) *PerplexityBackend {
	return &PerplexityBackend{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		minBodyChars: minBodyChars,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
	}
}

// Name identifies the backend in chain logs.
func (b *PerplexityBackend) Name() string {
	return "perplexity"
}

// Summarize posts the council prompt and decodes the structured reply.
// Missing credentials or too-short body text decline without a call.
func (b *PerplexityBackend) Summarize(ctx context.Context, candidate domain.Candidate, bodyText string) (*domain.SummaryResult, error) {
	if b.apiKey == "" || b.endpoint == "" || b.model == "" {
		return nil, nil
	}
	if len(bodyText) < b.minBodyChars {
		return nil, nil
	}

	body, err := json.Marshal(map[string]any{
		"model": b.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": buildPrompt(candidate, bodyText)},
		},
		"max_tokens":  900,
		"temperature": 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal perplexity payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("perplexity request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("perplexity error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var reply struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("decode perplexity response: %w", err)
	}
	if len(reply.Choices) == 0 {
		return nil, fmt.Errorf("perplexity response has no choices")
	}

	result := DecodeSummary(reply.Choices[0].Message.Content)
	if result == nil {
		return nil, fmt.Errorf("perplexity reply is not a summary object")
	}

	return result, nil
}
