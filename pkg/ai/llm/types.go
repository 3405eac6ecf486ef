package llm

import "github.com/deepresearch/investigator/pkg/domain"

// Provider and Tier are re-exported from pkg/domain so backend code, the
// gateway, and the engine workers that route calls all speak the same
// vocabulary without every file importing domain directly.
type (
	Provider = domain.Provider
	Tier     = domain.Tier
	TaskRole = domain.TaskRole
)

const (
	ProviderClaude = domain.ProviderClaude
	ProviderOpenAI = domain.ProviderOpenAI
	ProviderGemini = domain.ProviderGemini

	TierDeep = domain.TierDeep
	TierFast = domain.TierFast
)
