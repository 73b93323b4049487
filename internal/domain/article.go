package domain

import "time"

// Candidate is an article discovered for today's batch but not yet
// confirmed delivered. Identity is the canonical URL: two candidates with
// the same URL are the same entity regardless of which feed produced them.
type Candidate struct {
	URL        string
	Title      string
	Source     string
	RawSummary string
	BodyText   string
	ImageURL   string
}

// ID returns the identity used by the dedup store.
func (c Candidate) ID() string {
	return c.URL
}

// CouncilNote is one persona-tagged commentary entry attached to a summary.
type CouncilNote struct {
	Monk    string `json:"monk"`
	Role    string `json:"role"`
	Message string `json:"message"`
}

// SummaryResult is the structured output of exactly one summarizer backend.
// Results are never merged across backends.
type SummaryResult struct {
	Summary string        `json:"summary"`
	Content string        `json:"content"`
	Council []CouncilNote `json:"council_discussion"`
}

// SentRecord documents a delivered article; append-only, keyed by URL.
type SentRecord struct {
	URL    string
	SentAt time.Time
}
