package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"MonkHerald/internal/domain"
	"MonkHerald/internal/scanner"
)

const defaultPerFeed = 3

// RSSStrategy discovers candidates by polling the theme's RSS/Atom feeds.
type RSSStrategy struct {
	parser  *gofeed.Parser
	perFeed int
	logger  *slog.Logger
}

var _ scanner.Strategy = (*RSSStrategy)(nil)

// NewRSSStrategy wires an HTTP client into a gofeed parser. A nil client
// gets a 20-second timeout default.
func NewRSSStrategy(client *http.Client, logger *slog.Logger) *RSSStrategy {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}

	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = "MonkHerald/1.0"

	return &RSSStrategy{
		parser:  parser,
		perFeed: defaultPerFeed,
		logger:  logger,
	}
}

// Name identifies the strategy inside the registry.
func (s *RSSStrategy) Name() string {
	return "rss"
}

// Discover polls each configured feed and collects the newest entries.
// A feed that fails to load or parse is logged and skipped; the pass only
// fails when the theme carries no feeds at all.
func (s *RSSStrategy) Discover(ctx context.Context, req scanner.Request) ([]domain.Candidate, error) {
	if len(req.Theme.Feeds) == 0 {
		return nil, fmt.Errorf("theme %s has no feeds configured", req.Theme.Label)
	}

	var candidates []domain.Candidate
	for _, feedURL := range req.Theme.Feeds {
		parsed, err := s.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			s.warn("feed unavailable", "feed", feedURL, "error", err)
			continue
		}

		label := strings.TrimSpace(parsed.Title)
		if label == "" {
			label = "RSS"
		}

		taken := 0
		for _, item := range parsed.Items {
			if taken >= s.perFeed {
				break
			}
			link := strings.TrimSpace(item.Link)
			if link == "" {
				continue
			}

			candidates = append(candidates, domain.Candidate{
				URL:        link,
				Title:      strings.TrimSpace(item.Title),
				Source:     label,
				RawSummary: strings.TrimSpace(item.Description),
			})
			taken++
		}
	}

	return candidates, nil
}

func (s *RSSStrategy) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
