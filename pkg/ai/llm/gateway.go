package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/deepresearch/investigator/pkg/domain"
	"github.com/deepresearch/investigator/pkg/orchestration/dependency"
)

const (
	breakerFailureThreshold = 0.5
	breakerResetTimeout     = 60 * time.Second
)

// defaultTierOrder is the provider failover order for each tier: DEEP
// prefers Claude with OpenAI then Gemini behind it; FAST prefers OpenAI
// with Gemini then Claude behind it.
func defaultTierOrder() map[Tier][]Provider {
	return map[Tier][]Provider{
		TierDeep: {ProviderClaude, ProviderOpenAI, ProviderGemini},
		TierFast: {ProviderOpenAI, ProviderGemini, ProviderClaude},
	}
}

// defaultRouting maps each logical call site to the tier it runs at.
func defaultRouting() map[TaskRole]Tier {
	return map[TaskRole]Tier{
		domain.TaskPlanning:           TierDeep,
		domain.TaskRiskJudge:          TierDeep,
		domain.TaskReportGeneration:   TierDeep,
		domain.TaskFactExtraction:     TierFast,
		domain.TaskRiskProponent:      TierFast,
		domain.TaskRiskSkeptic:        TierFast,
		domain.TaskConnectionMapping:  TierDeep,
		domain.TaskTemporalAnalysis:   TierFast,
		domain.TaskSourceVerification: TierFast,
		domain.TaskEntityResolution:   TierFast,
	}
}

// tierChain pairs a tier's FallbackChain with the single in-flight request
// it is currently serving. The chain's provider closures read ctx/req and
// write resp/usedProvider; mu serializes concurrent Gateway.Call
// invocations that land on the same tier so breaker state stays accurate
// without handing each call its own throwaway breaker.
type tierChain struct {
	mu           sync.Mutex
	chain        *dependency.FallbackChain
	ctx          context.Context
	req          CompletionRequest
	resp         *CompletionResponse
	usedProvider Provider
}

// Gateway is the single call surface pkg/engine workers use to reach an
// LLM: it resolves a TaskRole to a tier, enforces the cumulative cost
// budget, and dispatches through a per-tier circuit-breaker-protected
// fallback chain (pkg/orchestration/dependency). Each provider in the
// chain retries its own transient failures with exponential backoff
// before the chain falls back to the tier's next configured provider.
type Gateway struct {
	mu sync.Mutex

	backends  map[Provider]Backend
	routing   map[TaskRole]Tier
	tierOrder map[Tier][]Provider
	chains    map[Tier]*tierChain

	rates          map[Provider]map[Tier]rateTable
	budgetUSD      float64
	cumulativeCost float64
	modelByTier    map[Tier]string

	consecutiveFailures int
}

// NewGateway wires one FallbackChain per tier from the given backends, in
// defaultTierOrder, skipping any provider for which no backend was
// registered. budgetUSD <= 0 means unlimited.
func NewGateway(backends map[Provider]Backend, budgetUSD float64) *Gateway {
	g := &Gateway{
		backends:  backends,
		routing:   defaultRouting(),
		tierOrder: defaultTierOrder(),
		chains:    make(map[Tier]*tierChain),
		rates:     defaultRates(),
		budgetUSD: budgetUSD,
	}

	for tier, order := range g.tierOrder {
		tc := &tierChain{}
		tc.chain = dependency.NewFallbackChain(string(tier), string(tier), ClassifyError, nil)
		for _, provider := range order {
			backend, ok := backends[provider]
			if !ok {
				continue
			}
			p := provider
			b := backend
			tc.chain.AddProvider(string(p), breakerFailureThreshold, breakerResetTimeout, func() ([]byte, error) {
				var resp *CompletionResponse
				err := WithRetry(tc.ctx, func() error {
					r, err := b.Complete(tc.ctx, tc.req)
					if err != nil {
						return err
					}
					resp = r
					return nil
				})
				if err != nil {
					return nil, err
				}
				tc.resp = resp
				tc.usedProvider = p
				return []byte(resp.Text), nil
			})
		}
		g.chains[tier] = tc
	}

	return g
}

// SetRoute overrides the tier a TaskRole is routed to.
func (g *Gateway) SetRoute(role TaskRole, tier Tier) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.routing[role] = tier
}

// SetRate overrides the per-token rate used for cost estimation for one
// provider/tier pair, for deployments with negotiated pricing.
func (g *Gateway) SetRate(provider Provider, tier Tier, inPerToken, outPerToken float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rates[provider] == nil {
		g.rates[provider] = make(map[Tier]rateTable)
	}
	g.rates[provider][tier] = rateTable{InPerToken: inPerToken, OutPerToken: outPerToken}
}

// Call resolves role to a tier, enforces the reasoning-model JSON-mode rule
// and the cost budget, then dispatches through that tier's fallback chain.
func (g *Gateway) Call(ctx context.Context, role TaskRole, req CompletionRequest) (*CompletionResponse, error) {
	tier, ok := g.routing[role]
	if !ok {
		tier = TierFast
	}

	if IsReasoningModel(req.Model) {
		req.RequestJSONMode = false
	}

	inputChars := 0
	for _, m := range req.Messages {
		inputChars += len(m.Content)
	}

	primary := g.tierOrder[tier]
	if len(primary) == 0 {
		return nil, fmt.Errorf("llm: no backend registered for tier %q", tier)
	}
	if err := g.CheckBudget(primary[0], tier, inputChars); err != nil {
		return nil, err
	}

	tc := g.chains[tier]
	tc.mu.Lock()
	tc.ctx = ctx
	tc.req = req
	tc.resp = nil
	_, err := tc.chain.Execute()
	resp := tc.resp
	used := tc.usedProvider
	tc.mu.Unlock()

	g.mu.Lock()
	if err != nil {
		g.consecutiveFailures++
	} else {
		g.consecutiveFailures = 0
		g.cumulativeCost += g.ActualCallCost(used, tier, resp.InputChars, resp.OutputChars)
	}
	g.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ConsecutiveFailures returns the number of Gateway.Call invocations that
// have failed in a row since the last success. The Director's
// persistent-failure check counts on InvestigationState instead.
func (g *Gateway) ConsecutiveFailures() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.consecutiveFailures
}

// BreakerState exposes a provider's circuit state within a tier, for
// diagnostics.
func (g *Gateway) BreakerState(tier Tier, provider Provider) dependency.CircuitState {
	tc, ok := g.chains[tier]
	if !ok {
		return dependency.CircuitStateClosed
	}
	return tc.chain.BreakerState(string(provider))
}
