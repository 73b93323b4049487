package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"MonkHerald/internal/ports"
)

const (
	defaultBodyLimit = 3000
	maxDownloadBytes = 2 << 20
)

// Fetcher downloads an article page and extracts readable text plus a lead
// image URL. Callers treat it as best-effort.
type Fetcher struct {
	httpClient *http.Client
	bodyLimit  int
}

var _ ports.BodyFetcher = (*Fetcher)(nil)

// NewFetcher wires an HTTP client; bodyLimit caps the extracted text length.
func NewFetcher(client *http.Client, bodyLimit int) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if bodyLimit <= 0 {
		bodyLimit = defaultBodyLimit
	}
	return &Fetcher{httpClient: client, bodyLimit: bodyLimit}
}

// Fetch downloads rawURL and returns extracted text and a lead image URL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, string, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil || pageURL.Scheme == "" || pageURL.Host == "" {
		return "", "", fmt.Errorf("invalid article url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "MonkHerald/1.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("article fetch returned %s", resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return "", "", fmt.Errorf("read article body: %w", err)
	}

	article, err := readability.FromReader(bytes.NewReader(raw), pageURL)
	if err != nil {
		return "", "", fmt.Errorf("extract article text: %w", err)
	}

	body := truncate(strings.TrimSpace(article.TextContent), f.bodyLimit)

	image := article.Image
	if image == "" {
		image = leadImageFromMeta(raw)
	}

	return body, image, nil
}

// truncate cuts s to at most limit bytes without splitting a UTF-8 rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// leadImageFromMeta falls back to social-card metadata when readability
// finds no image.
func leadImageFromMeta(raw []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return ""
	}

	for _, selector := range []string{
		`meta[property="og:image"]`,
		`meta[name="twitter:image"]`,
	} {
		if content, ok := doc.Find(selector).First().Attr("content"); ok {
			if trimmed := strings.TrimSpace(content); trimmed != "" {
				return trimmed
			}
		}
	}

	return ""
}
