package tokens

import "testing"

func TestEstimateEmpty(t *testing.T) {
	a := NewAccountant()
	if got := a.Estimate("", KindPlain); got != 0 {
		t.Fatalf("expected 0 for empty input, got %d", got)
	}
	if got := a.Estimate("   \t\n", KindPlain); got != 0 {
		t.Fatalf("expected 0 for whitespace-only input, got %d", got)
	}
}

func TestEstimateMinimumOne(t *testing.T) {
	a := NewAccountant()
	if got := a.Estimate(".", KindPlain); got < 1 {
		t.Fatalf("expected at least 1, got %d", got)
	}
}

func TestEstimateMonotone(t *testing.T) {
	a := NewAccountant()
	short := "enterprise procurement policy"
	long := short + " with additional clauses and guardrails appended"
	if a.Estimate(long, KindPlain) < a.Estimate(short, KindPlain) {
		t.Fatalf("extending a string must never reduce its token estimate")
	}
}

func TestEstimateMultiplierByKind(t *testing.T) {
	a := NewAccountant()
	text := "one two three four five"
	plain := a.Estimate(text, KindPlain)
	code := a.Estimate(text, KindCode)
	if code <= plain {
		t.Fatalf("code multiplier (1.5) should exceed plain multiplier (1.3) for identical text")
	}
}

func TestValidateTolerance(t *testing.T) {
	a := NewAccountant()
	if !a.Validate(105, 100, 0.05) {
		t.Fatalf("105 should validate against budget 100 with 5%% tolerance")
	}
	if a.Validate(106, 100, 0.05) {
		t.Fatalf("106 should fail to validate against budget 100 with 5%% tolerance")
	}
}

func TestSumStrings(t *testing.T) {
	a := NewAccountant()
	items := []string{"alpha beta", "gamma delta epsilon"}
	sum := a.SumStrings(items, KindPlain)
	if sum != a.Estimate(items[0], KindPlain)+a.Estimate(items[1], KindPlain) {
		t.Fatalf("SumStrings must equal the sum of individual estimates")
	}
}

func TestSumMappingDeterministic(t *testing.T) {
	a := NewAccountant()
	m := map[string]string{"b": "two", "a": "one"}
	first := a.SumMapping(m, KindPlain)
	second := a.SumMapping(m, KindPlain)
	if first != second {
		t.Fatalf("SumMapping must be deterministic across calls")
	}
}
