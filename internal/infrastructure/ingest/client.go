package ingest

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

const defaultAuthor = "Monk.AI"

// Client publishes processed articles to the site's ingestion endpoint.
type Client struct {
	url        string
	apiKey     string
	author     string
	httpClient *http.Client
}

var _ ports.Publisher = (*Client)(nil)

// NewClient wires endpoint URL, shared secret and article author.
func NewClient(cfg config.IngestConfig) *Client {
	author := cfg.Author
	if author == "" {
		author = defaultAuthor
	}
	return &Client{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		author:     author,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type payload struct {
	Title    string               `json:"title"`
	Summary  string               `json:"summary"`
	Content  string               `json:"content"`
	Council  []domain.CouncilNote `json:"council_discussion"`
	Theme    string               `json:"theme"`
	Author   string               `json:"monk_author"`
	ImageURL string               `json:"image_url"`
}

// Publish POSTs the article to the ingestion endpoint. Only HTTP 200 counts
// as delivered; any other status or transport error is a publish failure.
func (c *Client) Publish(ctx context.Context, candidate domain.Candidate, result domain.SummaryResult, themeLabel string) error {
	if c.url == "" {
		return fmt.Errorf("ingest endpoint is not configured")
	}

	council := result.Council
	if council == nil {
		council = []domain.CouncilNote{}
	}

	body, err := json.Marshal(payload{
		Title:    candidate.Title,
		Summary:  result.Summary,
		Content:  result.Content,
		Council:  council,
		Theme:    themeLabel,
		Author:   c.author,
		ImageURL: candidate.ImageURL,
	})
	if err != nil {
		return fmt.Errorf("marshal ingest payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("publish request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("ingest error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	return nil
}
