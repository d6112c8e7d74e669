package contextlayer

import (
	"fmt"
	"strings"
)

// reduceStep is one reduction action in a layer's priority-ordered
// strategy list. It returns the reduced section set; callers recompute
// token counts after each step and stop once within budget.
type reduceStep func(sections []section) []section

// discardAll is the Ephemeral layer's sole, total-discard strategy.
func discardAll(sections []section) []section {
	return nil
}

// summarizeConversationTurns collapses conversation-turn sections into one
// summary-per-topic once there are more than three.
func summarizeConversationTurns(sections []section) []section {
	turns, rest := partition(sections, func(s section) bool { return s.hasAnyTag("conversation-turn") })
	if len(turns) <= 3 {
		return sections
	}

	byTopic := make(map[string][]string)
	var topicOrder []string
	for _, t := range turns {
		topic := "general"
		for tag := range t.tags {
			if tag != "conversation-turn" {
				topic = tag
				break
			}
		}
		if _, seen := byTopic[topic]; !seen {
			topicOrder = append(topicOrder, topic)
		}
		byTopic[topic] = append(byTopic[topic], t.body)
	}

	var summaries []section
	for _, topic := range topicOrder {
		summaries = append(summaries, newSection(
			"turns-summary-"+topic,
			fmt.Sprintf("Conversation Summary (%s)", topic),
			fmt.Sprintf("%d prior turns on %s, summarized.", len(byTopic[topic]), topic),
			"conversation-summary", topic,
		))
	}

	return append(rest, summaries...)
}

// summarizeToolInteractions collapses tool-interaction sections into one
// categorical summary per category once there are more than five.
func summarizeToolInteractions(sections []section) []section {
	interactions, rest := partition(sections, func(s section) bool { return s.hasAnyTag("tool-interaction") })
	if len(interactions) <= 5 {
		return sections
	}

	byCategory := make(map[string]int)
	var catOrder []string
	for _, t := range interactions {
		cat := "general"
		for tag := range t.tags {
			if tag != "tool-interaction" {
				cat = tag
				break
			}
		}
		if byCategory[cat] == 0 {
			catOrder = append(catOrder, cat)
		}
		byCategory[cat]++
	}

	var summaries []section
	for _, cat := range catOrder {
		summaries = append(summaries, newSection(
			"tools-summary-"+cat,
			fmt.Sprintf("Tool Interactions Summary (%s)", cat),
			fmt.Sprintf("%d tool interactions in category %s, summarized.", byCategory[cat], cat),
			"tool-summary", cat,
		))
	}

	return append(rest, summaries...)
}

// compressFindings keeps at most three findings, prioritizing those tagged
// critical, violation, risk, or required.
func compressFindings(sections []section) []section {
	findings, rest := partition(sections, func(s section) bool { return s.hasAnyTag("finding") })
	if len(findings) <= 3 {
		return sections
	}

	priority := []string{"critical", "violation", "risk", "required"}
	sortStable(findings, func(a, b section) bool {
		return findingRank(a, priority) < findingRank(b, priority)
	})

	return append(rest, findings[:3]...)
}

func findingRank(s section, priority []string) int {
	for i, tag := range priority {
		if s.hasAnyTag(tag) {
			return i
		}
	}
	return len(priority)
}

// keepUserPreferences is a no-op placeholder documenting that user
// preferences are never pruned by the Session layer's strategy list.
func keepUserPreferences(sections []section) []section {
	return sections
}

// sessionReductionSteps returns the Session layer's ordered strategy list.
func sessionReductionSteps() []reduceStep {
	return []reduceStep{
		summarizeConversationTurns,
		summarizeToolInteractions,
		compressFindings,
		keepUserPreferences,
	}
}

// keepTopMarketIntelligence partitions market-intelligence sections by
// trend/pricing/other and keeps at most two, one per partition preferred.
func keepTopMarketIntelligence(sections []section) []section {
	market, rest := partition(sections, func(s section) bool {
		return s.hasAnyTag("trend", "pricing", "other")
	})
	if len(market) <= 2 {
		return sections
	}

	var kept []section
	for _, tag := range []string{"trend", "pricing", "other"} {
		if len(kept) >= 2 {
			break
		}
		for _, m := range market {
			if m.hasAnyTag(tag) {
				kept = append(kept, m)
				break
			}
		}
	}
	return append(rest, kept...)
}

// keepRecentHistoricalPatterns keeps at most two historical-pattern
// sections, preferring those tagged recent.
func keepRecentHistoricalPatterns(sections []section) []section {
	history, rest := partition(sections, func(s section) bool {
		return strings.HasPrefix(s.id, "history-")
	})
	if len(history) <= 2 {
		return sections
	}

	sortStable(history, func(a, b section) bool {
		return rank(a.hasAnyTag("recent")) < rank(b.hasAnyTag("recent"))
	})
	return append(rest, history[:2]...)
}

func rank(recent bool) int {
	if recent {
		return 0
	}
	return 1
}

// promoteVendorGuidelines keeps at most three vendor-guideline sections,
// promoting those tagged compliance, risk, required, or mandatory.
func promoteVendorGuidelines(sections []section) []section {
	guidelines, rest := partition(sections, func(s section) bool {
		return strings.HasPrefix(s.id, "vendor-guideline-")
	})
	if len(guidelines) <= 3 {
		return sections
	}

	priority := []string{"compliance", "risk", "required", "mandatory"}
	sortStable(guidelines, func(a, b section) bool {
		return findingRank(a, priority) < findingRank(b, priority)
	})
	return append(rest, guidelines[:3]...)
}

// compressCategoryPlaybooks collapses any playbook section longer than 200
// characters to a one-line abstract.
func compressCategoryPlaybooks(sections []section) []section {
	out := make([]section, len(sections))
	copy(out, sections)
	for i, s := range out {
		if s.id == "playbook" && len(s.body) > 200 {
			abstract := s.body
			if idx := strings.IndexByte(abstract, '.'); idx > 0 {
				abstract = abstract[:idx+1]
			}
			out[i] = newSection(s.id, s.title, abstract, "playbook", "compressed")
		}
	}
	return out
}

// domainReductionSteps returns the Domain layer's ordered strategy list.
func domainReductionSteps() []reduceStep {
	return []reduceStep{
		keepTopMarketIntelligence,
		keepRecentHistoricalPatterns,
		promoteVendorGuidelines,
		compressCategoryPlaybooks,
	}
}

// partition splits sections into those matching pred and the remainder,
// preserving relative order in both groups.
func partition(sections []section, pred func(section) bool) (matched, rest []section) {
	for _, s := range sections {
		if pred(s) {
			matched = append(matched, s)
		} else {
			rest = append(rest, s)
		}
	}
	return matched, rest
}
