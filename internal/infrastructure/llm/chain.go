package llm

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"MonkHerald/internal/domain"
	"MonkHerald/internal/ports"
)

const (
	defaultBackendTimeout = 60 * time.Second

	degradedSummaryLimit = 200
	degradedContentLimit = 500
)

// Chain tries summarizer backends in priority order and falls back to a
// degraded summary when every backend yields no result. It implements
// ports.Summarizer itself and never returns an error: summarization always
// produces something publishable.
type Chain struct {
	backends []ports.Summarizer
	timeout  time.Duration
	logger   *slog.Logger
}

var _ ports.Summarizer = (*Chain)(nil)

// NewChain orders backends by priority; the first usable result wins.
func NewChain(logger *slog.Logger, backends ...ports.Summarizer) *Chain {
	return &Chain{
		backends: backends,
		timeout:  defaultBackendTimeout,
		logger:   logger,
	}
}

type named interface {
	Name() string
}

// Summarize walks the chain. Backend errors and declines both fall through
// to the next backend; each call is bounded by the chain timeout.
func (c *Chain) Summarize(ctx context.Context, candidate domain.Candidate, bodyText string) (*domain.SummaryResult, error) {
	for _, backend := range c.backends {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		result, err := backend.Summarize(callCtx, candidate, bodyText)
		cancel()

		label := "backend"
		if n, ok := backend.(named); ok {
			label = n.Name()
		}

		if err != nil {
			c.log(slog.LevelWarn, "summarizer backend failed", "backend", label, "url", candidate.URL, "error", err)
			continue
		}
		if result == nil {
			c.log(slog.LevelDebug, "summarizer backend declined", "backend", label, "url", candidate.URL)
			continue
		}

		return result, nil
	}

	c.log(slog.LevelInfo, "all summarizer backends exhausted, degrading", "url", candidate.URL)
	return Degraded(candidate), nil
}

// Degraded synthesizes a result from the candidate's own feed metadata.
func Degraded(candidate domain.Candidate) *domain.SummaryResult {
	return &domain.SummaryResult{
		Summary: truncate(candidate.RawSummary, degradedSummaryLimit),
		Content: truncate(candidate.RawSummary, degradedContentLimit),
		Council: []domain.CouncilNote{},
	}
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

func (c *Chain) log(level slog.Level, msg string, args ...any) {
	if c.logger != nil {
		c.logger.Log(context.Background(), level, msg, args...)
	}
}
