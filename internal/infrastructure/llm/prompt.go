package llm

import (
	"fmt"

	"MonkHerald/internal/domain"
)

const systemPrompt = "You are a specialized analyst bot. You output ONLY valid JSON. No markdown, no preambles."

const maxPromptBody = 4000

// buildPrompt renders the shared council-analysis prompt for a candidate.
func buildPrompt(candidate domain.Candidate, bodyText string) string {
	bodyText = truncate(bodyText, maxPromptBody)

	return fmt.Sprintf(`Act as the central system "The Order".
Analyze this article and produce valid JSON output.

ARTICLE:
Title: %s
Source: %s
URL: %s
Content: %s

The output must be EXACTLY in this JSON format:
{
  "summary": "High-level executive summary (max 300 chars)",
  "content": "Detailed analysis of strategic impact, risks and opportunities. Professional, direct tone. (max 1000 chars)",
  "council_discussion": [
    {"monk": "Monk.Vault", "role": "Guardian", "message": "Commentary focused on capital preservation, security and the conservative view."},
    {"monk": "Monk.Sentry", "role": "Sentinel", "message": "Commentary focused on detected risks, threats or tactical opportunities."},
    {"monk": "Monk.AI", "role": "Oracle", "message": "Data analysis, forward projection or logical trend."},
    {"monk": "Monk.Pockets", "role": "Manager", "message": "Pragmatic view on cash flow, spending or resource allocation."}
  ]
}`, candidate.Title, candidate.Source, candidate.URL, bodyText)
}
