package contextlayer

import (
	"fmt"

	"github.com/ledgerline/procureagent/pkg/types"
)

// buildEphemeralSections assembles the Ephemeral layer's content: short-
// lived tool payloads from the current request only. This layer carries no
// cross-request state and is the first discarded under budget pressure.
func buildEphemeralSections(data types.EphemeralData) []section {
	var sections []section

	for i, q := range data.Quotes {
		sections = append(sections, newSection(fmt.Sprintf("quote-%d", i), fmt.Sprintf("Quote %d", i+1), q, "quote"))
	}
	for i, b := range data.Budgets {
		sections = append(sections, newSection(fmt.Sprintf("budget-%d", i), fmt.Sprintf("Budget Snapshot %d", i+1), b, "budget"))
	}
	for i, v := range data.VendorData {
		sections = append(sections, newSection(fmt.Sprintf("vendor-%d", i), fmt.Sprintf("Vendor Data %d", i+1), v, "vendor-data"))
	}
	for i, r := range data.APIResponses {
		sections = append(sections, newSection(fmt.Sprintf("api-%d", i), fmt.Sprintf("API Response %d", i+1), r, "api-response"))
	}

	return sections
}

func renderEphemeral(sections []section) string {
	return renderSections("Ephemeral", sections)
}
