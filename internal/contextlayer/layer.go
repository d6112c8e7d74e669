// Package contextlayer implements the four-layer, token-budgeted Context
// Assembler: Policy, Domain, Session, and Ephemeral layers assembled per
// request, reconciled against a total token budget via a deterministic
// pruning hierarchy that never touches the pinned Policy layer.
//
// The assembler's shape — build structured sections, render to text,
// recount tokens, prune section-by-section while a budget is exceeded —
// is grounded on a context-window management component, generalized from a single flat markdown document with
// header-based pruning into four independently-budgeted layers with
// per-layer reduction caps and an ordered pruning walk.
package contextlayer

import (
	"fmt"
	"sort"
	"strings"
)

// section is the common unit of content within the Domain and Session
// layers: a taggable, independently prunable chunk of text.
type section struct {
	id    string
	title string
	body  string
	tags  map[string]bool
}

func newSection(id, title, body string, tags ...string) section {
	tagSet := make(map[string]bool, len(tags))
	for _, t := range tags {
		tagSet[strings.ToLower(t)] = true
	}
	return section{id: id, title: title, body: body, tags: tagSet}
}

func (s section) hasAnyTag(wanted ...string) bool {
	for _, w := range wanted {
		if s.tags[strings.ToLower(w)] {
			return true
		}
	}
	return false
}

func (s section) render() string {
	return fmt.Sprintf("#### %s\n%s\n", s.title, s.body)
}

func renderSections(heading string, sections []section) string {
	var sb strings.Builder
	sb.WriteString("### " + heading + "\n")
	for _, s := range sections {
		sb.WriteString(s.render())
	}
	return sb.String()
}

// sortStable sorts sections by a key function while preserving relative
// order of equal-keyed elements, so pruning stays deterministic.
func sortStable(sections []section, less func(a, b section) bool) {
	sort.SliceStable(sections, func(i, j int) bool {
		return less(sections[i], sections[j])
	})
}
