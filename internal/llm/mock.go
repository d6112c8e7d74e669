package llm

import (
	"context"
	"fmt"
	"strings"
)

// MockProvider is the deterministic fallback provider required for tests
// and for LLM_PROVIDER=mock: it never touches the network and always
// succeeds, returning a canned, parseable narrative built from the
// request's last user message so callers can exercise the full pipeline
// without a live model.
type MockProvider struct{}

// NewMockProvider constructs the mock provider.
func NewMockProvider() *MockProvider { return &MockProvider{} }

// Name implements Provider.
func (m *MockProvider) Name() string { return "mock" }

// Generate implements Provider. It never errors and never blocks.
func (m *MockProvider) Generate(_ context.Context, req GenerateRequest) (string, error) {
	topic := lastUserContent(req.Messages)
	kind := classify(topic)

	switch kind {
	case "negotiation":
		return "Proposed terms reflect standard market positioning with balanced risk allocation for both parties.", nil
	case "compliance":
		return "Clause reviewed against enterprise policy; no language beyond the flagged terms requires escalation.", nil
	case "forecast":
		return "Spend trajectory aligns with category history; variance is within normal planning tolerance.", nil
	default:
		return fmt.Sprintf("Acknowledged request context: %s", truncate(topic, 120)), nil
	}
}

func lastUserContent(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	if len(messages) > 0 {
		return messages[len(messages)-1].Content
	}
	return ""
}

func classify(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "negotiation") || strings.Contains(lower, "vendor") || strings.Contains(lower, "discount"):
		return "negotiation"
	case strings.Contains(lower, "compliance") || strings.Contains(lower, "clause"):
		return "compliance"
	case strings.Contains(lower, "forecast") || strings.Contains(lower, "budget") || strings.Contains(lower, "quarter"):
		return "forecast"
	default:
		return "unknown"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
