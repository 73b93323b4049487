package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"MonkHerald/internal/config"
	"MonkHerald/internal/domain"
	"MonkHerald/internal/ports"
)

// GeminiBackend summarizes through the generateContent API. The prompt
// carries the article URL, so it is attempted even when local body text is
// thin; the model can resolve content live.
type GeminiBackend struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ ports.Summarizer = (*GeminiBackend)(nil)

// NewGeminiBackend builds a backend from configuration.
func NewGeminiBackend(cfg config.BackendConfig) *GeminiBackend {
	return &GeminiBackend{
		baseURL:    cfg.Endpoint,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Name identifies the backend in chain logs.
func (b *GeminiBackend) Name() string {
	return "gemini"
}

// Summarize posts the council prompt and decodes the structured reply.
// A missing key declines without a network call.
func (b *GeminiBackend) Summarize(ctx context.Context, candidate domain.Candidate, bodyText string) (*domain.SummaryResult, error) {
	if b.apiKey == "" || b.baseURL == "" || b.model == "" {
		return nil, nil
	}

	prompt := buildPrompt(candidate, bodyText) + "\n\nRespond with the JSON only."
	body, err := json.Marshal(map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]string{
			"responseMimeType": "application/json",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal gemini payload: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", b.baseURL, b.model, b.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini error %s", resp.Status)
	}

	var reply struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}
	if len(reply.Candidates) == 0 || len(reply.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini response has no candidates")
	}

	result := DecodeSummary(reply.Candidates[0].Content.Parts[0].Text)
	if result == nil {
		return nil, fmt.Errorf("gemini reply is not a summary object")
	}

	return result, nil
}
