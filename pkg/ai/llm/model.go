package llm

// defaultModelByTier gives each tier a representative model id used when a
// caller doesn't need to address one provider's model specifically (the
// gateway's fallback chain may route the call to any configured provider
// for the tier, so a single request carries one model string end to end,
// same as the Director's planning call already does).
var defaultModelByTier = map[Tier]string{
	TierDeep: "claude-opus-4-5",
	TierFast: "gpt-4o-mini",
}

// ModelForTier returns the configured representative model id for a tier,
// falling back to the package default if the gateway has none set.
func (g *Gateway) ModelForTier(tier Tier) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.modelByTier != nil {
		if m, ok := g.modelByTier[tier]; ok && m != "" {
			return m
		}
	}
	if m, ok := defaultModelByTier[tier]; ok {
		return m
	}
	return "default"
}

// SetModelForTier overrides the representative model id reported for tier
// by ModelForTier, read from config.LLMConfig's deep/fast model maps at
// startup.
func (g *Gateway) SetModelForTier(tier Tier, model string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.modelByTier == nil {
		g.modelByTier = make(map[Tier]string)
	}
	g.modelByTier[tier] = model
}

// TierForTask resolves a TaskRole to its configured tier, the same lookup
// Gateway.Call uses, exported so callers can pick a task-appropriate model
// before building a CompletionRequest.
func (g *Gateway) TierForTask(role TaskRole) Tier {
	g.mu.Lock()
	defer g.mu.Unlock()
	if tier, ok := g.routing[role]; ok {
		return tier
	}
	return TierFast
}
