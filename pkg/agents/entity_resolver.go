package agents

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/deepresearch/investigator/pkg/ai/llm"
	"github.com/deepresearch/investigator/pkg/domain"
)

const (
	// entityResolutionMinEntities is the "only runs in
	// synthesis when entity count > 15" gate.
	entityResolutionMinEntities = 15
	// entityResolutionSimilarityFloor/Ceiling bound the candidate-pair
	// similarity band: ">= 0.75 and < 1.0" (an exact 1.0 match already
	// collapsed via AddEntity's exact-dedup path).
	entityResolutionSimilarityFloor   = 0.75
	entityResolutionSimilarityCeiling = 1.0
	// maxCandidatePairs caps how many pairs get sent to the LLM for
	// confirmation in one pass.
	maxCandidatePairs = 20
	// confirmThreshold is the LLM confidence floor for accepting a merge.
	confirmThreshold = 0.8
)

// EntityResolver is the Entity Resolver worker : it proposes
// near-duplicate entity pairs by normalized-name similarity, confirms each
// via an LLM call, and merges confirmed pairs, rewriting every connection
// endpoint that referenced the merged-away id.
type EntityResolver struct {
	gateway *llm.Gateway
}

func NewEntityResolver(gateway *llm.Gateway) *EntityResolver {
	return &EntityResolver{gateway: gateway}
}

func (r *EntityResolver) Name() string { return "entity_resolution" }

type candidatePair struct {
	a, b       *domain.Entity
	similarity float64
}

func (r *EntityResolver) Run(ctx context.Context, state *domain.InvestigationState) *domain.InvestigationState {
	next := state.Clone()

	if len(next.Entities) <= entityResolutionMinEntities {
		return next
	}

	candidates := findCandidatePairs(next.Entities)
	if len(candidates) == 0 {
		return next
	}

	merge := map[string]string{} // merged-away id -> survivor id
	removed := map[string]bool{}

	for _, pair := range candidates {
		if removed[pair.a.ID] || removed[pair.b.ID] {
			continue
		}
		confirmed, confidence := r.confirm(ctx, pair.a, pair.b)
		if !confirmed || confidence < confirmThreshold {
			continue
		}
		pair.a.MergeFrom(pair.b)
		merge[pair.b.ID] = pair.a.ID
		removed[pair.b.ID] = true
	}

	if len(merge) == 0 {
		return next
	}

	var survivors []*domain.Entity
	for _, e := range next.Entities {
		if !removed[e.ID] {
			survivors = append(survivors, e)
		}
	}
	next.Entities = survivors
	next.RemapConnectionEndpoints(merge)

	return next
}

// findCandidatePairs scans for same-type pairs whose normalized-name
// similarity falls in [0.75, 1.0), up to maxCandidatePairs, highest
// similarity first.
func findCandidatePairs(entities []*domain.Entity) []candidatePair {
	var candidates []candidatePair
	for i := 0; i < len(entities); i++ {
		for j := i + 1; j < len(entities); j++ {
			a, b := entities[i], entities[j]
			if a.Type != b.Type {
				continue
			}
			sim := domain.NameSimilarity(a.Name, b.Name)
			if sim >= entityResolutionSimilarityFloor && sim < entityResolutionSimilarityCeiling {
				candidates = append(candidates, candidatePair{a: a, b: b, similarity: sim})
			}
		}
	}
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].similarity > candidates[j-1].similarity; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}
	if len(candidates) > maxCandidatePairs {
		candidates = candidates[:maxCandidatePairs]
	}
	return candidates
}

// confirm asks the gateway whether a and b are the same real-world entity.
func (r *EntityResolver) confirm(ctx context.Context, a, b *domain.Entity) (confirmed bool, confidence float64) {
	prompt := fmt.Sprintf(
		"Entity A: %q (type=%s, description=%q)\nEntity B: %q (type=%s, description=%q)\n\nAre these the same real-world entity?",
		a.Name, a.Type, a.Description, b.Name, b.Type, b.Description,
	)
	req := buildRequest(r.gateway, domain.TaskEntityResolution, entityResolutionSystemPrompt, prompt, true, 256)
	resp, err := r.gateway.Call(ctx, domain.TaskEntityResolution, req)
	if err != nil {
		return false, 0
	}
	same := gjson.Get(resp.Text, "same_entity").Bool()
	conf := gjson.Get(resp.Text, "confidence").Float()
	return same, conf
}

const entityResolutionSystemPrompt = `You are an entity-resolution agent. Given two candidate entities, decide whether they refer to the same real-world person, organization, location, event, document, or financial instrument. ` +
	`Respond with a JSON object: {"same_entity": boolean, "confidence": number 0-1, "reasoning": string}.`

