package llm

import (
	"encoding/json"
	"strings"

	"MonkHerald/internal/domain"
)

// summarySchema is the wire shape backends must produce. Earlier backend
// generations emit a single monk_commentary record instead of the
// council_discussion list; both normalize to a list.
type summarySchema struct {
	Summary        string               `json:"summary"`
	Content        string               `json:"content"`
	Council        []domain.CouncilNote `json:"council_discussion"`
	MonkCommentary *domain.CouncilNote  `json:"monk_commentary"`
}

// DecodeSummary extracts the first well-formed JSON object from raw model
// output and maps it onto a SummaryResult. Returns nil when the text holds
// no parseable object or the object lacks both summary and content.
func DecodeSummary(text string) *domain.SummaryResult {
	text = stripCodeFences(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil
	}

	var schema summarySchema
	if err := json.Unmarshal([]byte(text[start:end+1]), &schema); err != nil {
		return nil
	}

	if schema.Summary == "" && schema.Content == "" {
		return nil
	}

	council := schema.Council
	if len(council) == 0 && schema.MonkCommentary != nil {
		council = []domain.CouncilNote{*schema.MonkCommentary}
	}
	if council == nil {
		council = []domain.CouncilNote{}
	}

	return &domain.SummaryResult{
		Summary: schema.Summary,
		Content: schema.Content,
		Council: council,
	}
}

// stripCodeFences drops the markdown fences some models wrap JSON in.
func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
