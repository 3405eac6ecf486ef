// Package agents implements every Agent Worker in : fact
// extraction, the risk-analysis adversarial debate, connection mapping,
// temporal analysis, source verification, entity resolution, and report
// generation. Every worker shares pkg/engine.Worker's single capability
// (run(state) -> state); workers are stateless across calls apart from the
// gateway/fetcher/client handles captured at construction (
// "Polymorphism over agent types").
package agents

import (
	"strings"

	"github.com/deepresearch/investigator/pkg/ai/llm"
	"github.com/deepresearch/investigator/pkg/domain"
)

// maxBatchChars bounds how much raw content one fact-extraction LLM call
// receives ("Batch policy").
const maxBatchChars = 6000

// packBatches greedily packs pending content items into batches whose
// combined raw-content length stays at or under maxBatchChars. A single
// item longer than the cap gets its own batch rather than being split.
func packBatches(items []*domain.PendingContentItem) [][]*domain.PendingContentItem {
	var batches [][]*domain.PendingContentItem
	var current []*domain.PendingContentItem
	currentChars := 0

	for _, item := range items {
		itemChars := len(item.RawContent)
		if itemChars == 0 {
			itemChars = len(item.Snippet)
		}
		if len(current) > 0 && currentChars+itemChars > maxBatchChars {
			batches = append(batches, current)
			current = nil
			currentChars = 0
		}
		current = append(current, item)
		currentChars += itemChars
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

// buildRequest fills in the gateway Call boilerplate every worker shares:
// resolve the task's tier, pick that tier's representative model, and
// suppress JSON mode automatically for a reasoning model (
// call protocol; extends this with a raised token budget).
func buildRequest(gateway *llm.Gateway, role domain.TaskRole, system, user string, wantJSON bool, maxTokens int) llm.CompletionRequest {
	tier := gateway.TierForTask(role)
	model := gateway.ModelForTier(tier)
	req := llm.CompletionRequest{
		Model:           model,
		Messages:        []llm.Message{{Role: "system", Content: system}, {Role: "user", Content: user}},
		Temperature:     0.2,
		MaxTokens:       maxTokens,
		RequestJSONMode: wantJSON,
	}
	if llm.IsReasoningModel(model) {
		req.RequestJSONMode = false
		req.MaxTokens = maxTokens * 2
	}
	return req
}

// resolveEndpoint resolves a raw entity-name string emitted by an LLM to an
// existing entity id via exact-then-fuzzy match ("Merge
// policy"). Returns "" if nothing in state matches closely enough.
func resolveEndpoint(state *domain.InvestigationState, name string, preferredTypes []domain.EntityType) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	for _, t := range preferredTypes {
		if id := state.FindEntityByName(name, t); id != "" {
			return id
		}
	}
	return ""
}

// allEntityTypesInPriorityOrder is the type search order resolveEndpoint
// falls back to when a worker doesn't know an endpoint's intended type
// (e.g. a connection mapper's raw JSON names a counterparty without a
// type tag).
var allEntityTypesInPriorityOrder = []domain.EntityType{
	domain.EntityPerson, domain.EntityOrganization, domain.EntityLocation,
	domain.EntityEvent, domain.EntityDocument, domain.EntityFinancialInstrument,
}

// resolveEndpointAnyType tries every entity type in priority order.
func resolveEndpointAnyType(state *domain.InvestigationState, name string) string {
	return resolveEndpoint(state, name, allEntityTypesInPriorityOrder)
}
