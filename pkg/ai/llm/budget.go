package llm

import internalerrors "github.com/deepresearch/investigator/internal/errors"

// rateTable holds a provider/tier's USD-per-token input and output rates.
type rateTable struct {
	InPerToken  float64
	OutPerToken float64
}

// defaultRates gives each (provider, tier) pair an approximate per-token
// rate; callers may override via Gateway.SetRate for a specific deployment's
// actual pricing.
func defaultRates() map[Provider]map[Tier]rateTable {
	return map[Provider]map[Tier]rateTable{
		ProviderClaude: {
			TierDeep: {InPerToken: 15.0 / 1_000_000, OutPerToken: 75.0 / 1_000_000},
			TierFast: {InPerToken: 0.8 / 1_000_000, OutPerToken: 4.0 / 1_000_000},
		},
		ProviderOpenAI: {
			TierDeep: {InPerToken: 2.0 / 1_000_000, OutPerToken: 8.0 / 1_000_000},
			TierFast: {InPerToken: 0.15 / 1_000_000, OutPerToken: 0.6 / 1_000_000},
		},
		ProviderGemini: {
			TierDeep: {InPerToken: 1.25 / 1_000_000, OutPerToken: 5.0 / 1_000_000},
			TierFast: {InPerToken: 0.075 / 1_000_000, OutPerToken: 0.3 / 1_000_000},
		},
	}
}

// estimatedOutputTokens backs the pre-call cost estimate :
// "(input chars/4) x in-rate + 8000 x out-rate" assumes a fixed 8000-token
// output ceiling when no real output size is known yet.
const estimatedOutputTokens = 8000

// EstimateCallCost returns the pre-call cost estimate for a prospective
// call: (inputChars/4)*inRate + 8000*outRate, exactly as
// specifies.
func (g *Gateway) EstimateCallCost(provider Provider, tier Tier, inputChars int) float64 {
	rate := g.rateFor(provider, tier)
	return float64(inputChars)/4*rate.InPerToken + float64(estimatedOutputTokens)*rate.OutPerToken
}

// ActualCallCost returns the post-call cost: (inputChars/4)*in + (outputChars/4)*out.
func (g *Gateway) ActualCallCost(provider Provider, tier Tier, inputChars, outputChars int) float64 {
	rate := g.rateFor(provider, tier)
	return float64(inputChars)/4*rate.InPerToken + float64(outputChars)/4*rate.OutPerToken
}

func (g *Gateway) rateFor(provider Provider, tier Tier) rateTable {
	if byTier, ok := g.rates[provider]; ok {
		if r, ok := byTier[tier]; ok {
			return r
		}
	}
	return rateTable{InPerToken: 1.0 / 1_000_000, OutPerToken: 4.0 / 1_000_000}
}

// CheckBudget returns an ErrorTypeBudget *AppError if cumulativeCost + the
// estimated cost of this call would exceed budget. budget <= 0 means
// unlimited, matching the design's "0 = unlimited" convention.
func (g *Gateway) CheckBudget(provider Provider, tier Tier, inputChars int) error {
	if g.budgetUSD <= 0 {
		return nil
	}
	estimate := g.EstimateCallCost(provider, tier, inputChars)
	if g.cumulativeCost+estimate > g.budgetUSD {
		return internalerrors.NewBudgetError(g.budgetUSD, g.cumulativeCost+estimate)
	}
	return nil
}

// RecordSpend adds a call's actual cost to the gateway's running total.
func (g *Gateway) RecordSpend(provider Provider, tier Tier, inputChars, outputChars int) {
	g.cumulativeCost += g.ActualCallCost(provider, tier, inputChars, outputChars)
}

// CumulativeCost returns the running total spent so far.
func (g *Gateway) CumulativeCost() float64 {
	return g.cumulativeCost
}
