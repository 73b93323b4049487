package ports

import (
	"context"
	"time"

	"MonkHerald/internal/domain"
)

// ArticleSource discovers today's candidate articles for a theme.
type ArticleSource interface {
	Discover(ctx context.Context, theme domain.Theme) ([]domain.Candidate, error)
}

// SentRegistry is the durable record of delivered article URLs.
// MarkSent is idempotent: repeating a URL is a no-op, never an error.
type SentRegistry interface {
	HasBeenSent(ctx context.Context, url string) (bool, error)
	MarkSent(ctx context.Context, url string, at time.Time) error
}

// RunLedger persists the calendar date of the last successful batch.
// LastSuccess returns an empty string when no batch has ever succeeded.
type RunLedger interface {
	LastSuccess() (string, error)
	RecordSuccess(date string) error
}

// BodyFetcher extracts readable text and a lead image URL from a page.
type BodyFetcher interface {
	Fetch(ctx context.Context, url string) (body string, imageURL string, err error)
}

// Summarizer produces a structured summary for a candidate. A nil result
// with a nil error means the backend declined without attempting a call.
type Summarizer interface {
	Summarize(ctx context.Context, candidate domain.Candidate, bodyText string) (*domain.SummaryResult, error)
}

// Publisher delivers a summarized candidate to the downstream site.
type Publisher interface {
	Publish(ctx context.Context, candidate domain.Candidate, result domain.SummaryResult, themeLabel string) error
}

// RiskJob runs the secondary risk-analysis work after the daily batch.
type RiskJob interface {
	Run(ctx context.Context) error
}
