package contextlayer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ledgerline/procureagent/pkg/types"
)

// buildSessionSections assembles the Session layer's content from raw
// session data: conversation turns, tool interactions, findings, and user
// preferences, each as its own prunable section.
func buildSessionSections(data types.SessionData) []section {
	var sections []section

	for i, turn := range data.ConversationTurns {
		sections = append(sections, newSection(
			fmt.Sprintf("turn-%d", i),
			fmt.Sprintf("Conversation Turn %d (%s)", i+1, turn.Topic),
			turn.Text,
			"conversation-turn", turn.Topic,
		))
	}

	for i, ti := range data.ToolInteractions {
		sections = append(sections, newSection(
			fmt.Sprintf("tool-%d", i),
			fmt.Sprintf("Tool Interaction %d (%s)", i+1, ti.Category),
			ti.Text,
			"tool-interaction", ti.Category,
		))
	}

	for i, f := range data.Findings {
		tags := append([]string{"finding"}, strings.Fields(strings.ToLower(f.Tags))...)
		sections = append(sections, newSection(
			fmt.Sprintf("finding-%d", i),
			fmt.Sprintf("Finding %d", i+1),
			f.Text,
			tags...,
		))
	}

	if len(data.UserPreferences) > 0 {
		keys := make([]string, 0, len(data.UserPreferences))
		for k := range data.UserPreferences {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var sb strings.Builder
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", k, data.UserPreferences[k]))
		}
		sections = append(sections, newSection("user-preferences", "User Preferences", sb.String(), "user-preferences"))
	}

	return sections
}

func renderSession(sections []section) string {
	return renderSections("Session", sections)
}
