package contextlayer

import "fmt"

// buildDomainSections assembles the Domain layer's content for a category:
// one category playbook, vendor guidelines, market intelligence, and
// historical patterns. Content is deterministic so repeated calls with the
// same category produce identical token counts.
func buildDomainSections(category string) []section {
	if category == "" {
		category = "general"
	}

	var sections []section

	sections = append(sections, newSection(
		"playbook",
		fmt.Sprintf("%s Category Playbook", category),
		fmt.Sprintf(
			"The %s category playbook governs sourcing strategy, preferred vendor tiers, "+
				"negotiation levers, and escalation paths specific to this spend category. "+
				"It captures prior cycle learnings, competitive benchmarks, and the category "+
				"manager's standing guidance on acceptable terms, typical discount ranges, "+
				"and red-flag clauses to watch for during vendor negotiations.",
			category,
		),
		"playbook",
	))

	sections = append(sections,
		newSection("vendor-guideline-1", "Vendor Guideline: Standard Terms",
			"Standard payment terms net-30, standard SLAs apply.", "required"),
		newSection("vendor-guideline-2", "Vendor Guideline: Risk Review",
			"Vendors scoring below tier-2 risk rating require compliance sign-off.", "compliance", "risk", "mandatory"),
		newSection("vendor-guideline-3", "Vendor Guideline: Renewal Cadence",
			"Renewal negotiations should begin 90 days before contract expiry.", "generic"),
	)

	sections = append(sections,
		newSection("market-trend", "Market Intelligence: Trend", "Category pricing has trended down 3% this quarter.", "trend"),
		newSection("market-pricing", "Market Intelligence: Pricing", "Median unit pricing across comparable vendors is stable.", "pricing"),
		newSection("market-other", "Market Intelligence: Other", "Two new entrants have appeared in this category this year.", "other"),
	)

	sections = append(sections,
		newSection("history-recent", "Historical Pattern: Recent Cycle", "Last cycle closed at an 18% average discount.", "recent"),
		newSection("history-prior", "Historical Pattern: Prior Cycle", "Prior cycle closed at a 12% average discount.", "recent"),
		newSection("history-older", "Historical Pattern: Older Cycle", "Two cycles ago closed at a 9% average discount.", "older"),
	)

	return sections
}

// renderDomain renders the Domain layer's sections to markdown.
func renderDomain(sections []section) string {
	return renderSections("Domain", sections)
}
