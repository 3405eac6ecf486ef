package llm

import (
	"testing"

	internalerrors "github.com/deepresearch/investigator/internal/errors"
)

func testGateway(budgetUSD float64) *Gateway {
	return NewGateway(map[Provider]Backend{}, budgetUSD)
}

func TestCheckBudgetUnlimitedWhenZero(t *testing.T) {
	g := testGateway(0)
	if err := g.CheckBudget(ProviderClaude, TierDeep, 1_000_000); err != nil {
		t.Fatalf("zero budget should be unlimited, got %v", err)
	}
}

func TestCheckBudgetExhausted(t *testing.T) {
	g := testGateway(0.01)
	g.cumulativeCost = 0.009

	err := g.CheckBudget(ProviderClaude, TierFast, 50_000)
	if err == nil {
		t.Fatal("expected budget exhaustion error")
	}
	if !internalerrors.IsType(err, internalerrors.ErrorTypeBudget) {
		t.Errorf("expected ErrorTypeBudget, got %v", err)
	}
}

func TestCheckBudgetWithinLimit(t *testing.T) {
	g := testGateway(100)
	if err := g.CheckBudget(ProviderGemini, TierFast, 1000); err != nil {
		t.Fatalf("expected call within budget to pass, got %v", err)
	}
}

func TestRecordSpendAccumulates(t *testing.T) {
	g := testGateway(0)
	g.RecordSpend(ProviderOpenAI, TierFast, 4000, 4000)
	first := g.CumulativeCost()
	if first <= 0 {
		t.Fatal("expected spend to accumulate a positive cost")
	}
	g.RecordSpend(ProviderOpenAI, TierFast, 4000, 4000)
	if g.CumulativeCost() <= first {
		t.Fatal("expected second call to add to cumulative cost")
	}
}

func TestSetRateOverridesEstimate(t *testing.T) {
	g := testGateway(0)
	before := g.EstimateCallCost(ProviderClaude, TierDeep, 4000)
	g.SetRate(ProviderClaude, TierDeep, 1.0, 1.0)
	after := g.EstimateCallCost(ProviderClaude, TierDeep, 4000)
	if after == before {
		t.Fatal("expected SetRate to change the cost estimate")
	}
}

func TestRateForUnknownProviderFallsBackToDefault(t *testing.T) {
	g := testGateway(0)
	cost := g.EstimateCallCost(Provider("unknown-provider"), TierDeep, 4000)
	if cost <= 0 {
		t.Fatal("expected a positive fallback estimate for an unconfigured provider")
	}
}
