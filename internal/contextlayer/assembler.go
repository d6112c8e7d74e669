package contextlayer

import (
	"math"

	"github.com/ledgerline/procureagent/internal/policy"
	"github.com/ledgerline/procureagent/internal/tokens"
	"github.com/ledgerline/procureagent/pkg/types"
)

// Shares are the fraction of the total token budget allotted to each
// layer. They must sum to 1.0 within a small tolerance; config.Config.Validate
// (internal/config) enforces this at configuration load time.
type Shares struct {
	Policy    float64
	Domain    float64
	Session   float64
	Ephemeral float64
}

// DefaultShares is the built-in layer allocation: Policy 25%, Domain 25%,
// Session 40%, Ephemeral 10%.
func DefaultShares() Shares {
	return Shares{Policy: 0.25, Domain: 0.25, Session: 0.40, Ephemeral: 0.10}
}

// maxReduction is the largest fraction of a layer's current token count
// that a single pruning pass may remove. Policy has no entry: it is never
// pruned.
const (
	maxReductionDomain    = 0.60
	maxReductionSession   = 0.75
	maxReductionEphemeral = 1.00
)

// Assembled is the result of building a four-layer context: the rendered
// text for each layer and the resulting token usage.
type Assembled struct {
	PolicyText    string
	DomainText    string
	SessionText   string
	EphemeralText string
	Usage         types.ContextUsage
	PrunedLayers  []string
}

// Assembler builds and prunes four-layer contexts against a total token
// budget, consulting the Policy Store for the pinned Policy layer.
type Assembler struct {
	store      *policy.Store
	accountant *tokens.Accountant
	shares     Shares
}

// New constructs an Assembler backed by the given Policy Store and layer
// shares.
func New(store *policy.Store, shares Shares) *Assembler {
	return &Assembler{store: store, accountant: tokens.NewAccountant(), shares: shares}
}

// NewDefault constructs an Assembler using DefaultShares.
func NewDefault(store *policy.Store) *Assembler {
	return New(store, DefaultShares())
}

// ShareTokens returns the nominal per-layer budget allocation
// (floor(total × share)) for reporting and metrics; actual pruning works
// off real excess and each layer's own reduction cap, not these figures.
func (a *Assembler) ShareTokens(totalBudget int) types.ContextUsage {
	return types.ContextUsage{
		PolicyTokens:    int(math.Floor(float64(totalBudget) * a.shares.Policy)),
		DomainTokens:    int(math.Floor(float64(totalBudget) * a.shares.Domain)),
		SessionTokens:   int(math.Floor(float64(totalBudget) * a.shares.Session)),
		EphemeralTokens: int(math.Floor(float64(totalBudget) * a.shares.Ephemeral)),
	}
}

// Build assembles a four-layer context for category under totalBudget
// tokens, pruning Ephemeral, then Session, then Domain as needed. The
// Policy layer is never pruned; if excess remains after Domain is pruned
// to its cap, Usage.BudgetOverflow is set but a valid, Policy-complete
// context is still returned.
func (a *Assembler) Build(totalBudget int, category string, session types.SessionData, ephemeral types.EphemeralData) Assembled {
	policyLayer := a.store.PolicyLayer()
	policyText := policyLayer.Text()
	policyTokens := a.accountant.EstimatePlain(policyText)

	domainSections := buildDomainSections(category)
	sessionSections := buildSessionSections(session)
	ephemeralSections := buildEphemeralSections(ephemeral)

	domainTokens := a.accountant.EstimatePlain(renderDomain(domainSections))
	sessionTokens := a.accountant.EstimatePlain(renderSession(sessionSections))
	ephemeralTokens := a.accountant.EstimatePlain(renderEphemeral(ephemeralSections))

	total := policyTokens + domainTokens + sessionTokens + ephemeralTokens
	excess := total - totalBudget

	var pruned []string
	var removed int

	if excess > 0 {
		ephemeralSections, ephemeralTokens, removed = pruneLayer(
			ephemeralSections, ephemeralTokens, excess, maxReductionEphemeral,
			[]reduceStep{discardAll}, a.accountant, renderEphemeral,
		)
		if removed > 0 {
			pruned = append(pruned, "ephemeral")
		}
		excess -= removed

		if excess > 0 {
			sessionSections, sessionTokens, removed = pruneLayer(
				sessionSections, sessionTokens, excess, maxReductionSession,
				sessionReductionSteps(), a.accountant, renderSession,
			)
			if removed > 0 {
				pruned = append(pruned, "session")
			}
			excess -= removed
		}

		if excess > 0 {
			domainSections, domainTokens, removed = pruneLayer(
				domainSections, domainTokens, excess, maxReductionDomain,
				domainReductionSteps(), a.accountant, renderDomain,
			)
			if removed > 0 {
				pruned = append(pruned, "domain")
			}
			excess -= removed
		}
	}

	total = policyTokens + domainTokens + sessionTokens + ephemeralTokens

	return Assembled{
		PolicyText:    policyText,
		DomainText:    renderDomain(domainSections),
		SessionText:   renderSession(sessionSections),
		EphemeralText: renderEphemeral(ephemeralSections),
		Usage: types.ContextUsage{
			PolicyTokens:    policyTokens,
			DomainTokens:    domainTokens,
			SessionTokens:   sessionTokens,
			EphemeralTokens: ephemeralTokens,
			TotalTokens:     total,
			BudgetOverflow:  total > totalBudget,
		},
		PrunedLayers: pruned,
	}
}

// pruneLayer applies a layer's reduction steps in priority order until the
// layer is reduced by at least budgetForThisLayer = min(excess, cap)
// tokens or its steps are exhausted. A step that would take the total
// removed past the per-layer cap is skipped, so the number of tokens
// actually removed never exceeds that cap. It returns the resulting
// sections, the layer's new token count, and the tokens removed.
func pruneLayer(
	sections []section,
	currentTokens int,
	excess int,
	maxReduction float64,
	steps []reduceStep,
	accountant *tokens.Accountant,
	render func([]section) string,
) ([]section, int, int) {
	reductionCap := int(math.Floor(float64(currentTokens) * maxReduction))
	budget := excess
	if reductionCap < budget {
		budget = reductionCap
	}
	if budget <= 0 {
		return sections, currentTokens, 0
	}

	removed := 0
	for _, step := range steps {
		if removed >= budget {
			break
		}
		candidate := step(sections)
		candidateTokens := accountant.EstimatePlain(render(candidate))
		freed := currentTokens - candidateTokens
		if freed <= 0 || removed+freed > reductionCap {
			continue
		}
		sections = candidate
		currentTokens = candidateTokens
		removed += freed
	}

	return sections, currentTokens, removed
}

// SimulateExtremePruning sets the total budget to the Policy layer's own
// token count and asserts the enterprise-alignment property: the
// resulting context's Policy-layer token count always exactly equals the
// loaded Policy layer's token count, regardless of how aggressively the
// other layers were pruned.
func (a *Assembler) SimulateExtremePruning(category string, session types.SessionData, ephemeral types.EphemeralData) bool {
	policyTokens := a.accountant.EstimatePlain(a.store.PolicyLayer().Text())
	if policyTokens == 0 {
		policyTokens = 1
	}
	result := a.Build(policyTokens, category, session, ephemeral)
	return result.Usage.PolicyTokens == policyTokens
}
