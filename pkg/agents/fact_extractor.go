package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/deepresearch/investigator/pkg/ai/llm"
	"github.com/deepresearch/investigator/pkg/domain"
	"github.com/deepresearch/investigator/pkg/jsonrepair"
	"github.com/deepresearch/investigator/pkg/metrics"
)

// FactExtractor is the Fact Extractor worker : it distills
// pending raw web content into entities, connections, and key facts,
// packing content into <=6000-char batches and repairing whatever JSON the
// model returns before parsing it.
type FactExtractor struct {
	gateway *llm.Gateway
}

// NewFactExtractor builds a FactExtractor.
func NewFactExtractor(gateway *llm.Gateway) *FactExtractor {
	return &FactExtractor{gateway: gateway}
}

func (e *FactExtractor) Name() string { return "fact_extraction" }

// Run batches state's pending content, extracts entities/connections/facts
// from each batch, merges them into the returned snapshot, and always
// records an iteration yield -- even zero-zero when there was nothing to
// extract -- so the Director's diminishing-returns counter keeps advancing
// ("even when there was no content").
func (e *FactExtractor) Run(ctx context.Context, state *domain.InvestigationState) *domain.InvestigationState {
	next := state.Clone()

	batches := packBatches(next.PendingContent)
	newEntities, newFacts := 0, 0

	for _, batch := range batches {
		extracted, err := e.extractBatch(ctx, batch)
		if err != nil {
			next.LogError(e.Name(), err.Error(), time.Now())
			continue
		}

		for _, ee := range extracted.entities {
			entity := domain.NewEntity(ee.name, domain.EntityType(ee.entityType), ee.confidence, next.Iteration)
			entity.Description = ee.description
			entity.Aliases = ee.aliases
			entity.Attributes = ee.attributes
			entity.Sources = ee.sources
			survivor := next.AddEntity(entity)
			if survivor == entity {
				newEntities++
			}
		}

		for _, ec := range extracted.connections {
			sourceID := resolveEndpointAnyType(next, ec.source)
			targetID := resolveEndpointAnyType(next, ec.target)
			if sourceID == "" || targetID == "" {
				continue // unresolved endpoint drops the connection
			}
			conn := domain.NewConnection(sourceID, targetID, domain.RelationshipType(ec.relType), ec.confidence)
			conn.Description = ec.description
			conn.StartDate = ec.startDate
			conn.EndDate = ec.endDate
			conn.SetSources(ec.sources)
			next.AddConnection(conn)
		}

		for _, fact := range extracted.keyFacts {
			if fact == "" || containsFold(next.Subject.KnownAssociations, fact) {
				continue
			}
			next.Subject.KnownAssociations = append(next.Subject.KnownAssociations, fact)
			newFacts++
		}
	}

	next.RecordYield(newEntities, newFacts)
	next.ClearPendingContent()
	metrics.RecordEntitiesAccumulated(len(next.Entities))
	return next
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}

type extractedEntity struct {
	name        string
	entityType  string
	confidence  float64
	description string
	aliases     []string
	attributes  map[string]string
	sources     []string
}

type extractedConnection struct {
	source, target, relType, description, startDate, endDate string
	confidence                                                float64
	sources                                                    []string
}

type extraction struct {
	entities    []extractedEntity
	connections []extractedConnection
	keyFacts    []string
}

// extractBatch issues one structured-output LLM call for a batch and
// parses the (possibly malformed) JSON response through the repair
// pipeline, per the JSON repair protocol. A repair failure
// returns an empty extraction rather than an error.
func (e *FactExtractor) extractBatch(ctx context.Context, batch []*domain.PendingContentItem) (extraction, error) {
	var b strings.Builder
	for _, item := range batch {
		fmt.Fprintf(&b, "URL: %s\nTitle: %s\nQuery: %s\n", item.URL, item.Title, item.Query)
		content := item.RawContent
		if content == "" {
			content = item.Snippet
		}
		fmt.Fprintf(&b, "Content:\n%s\n\n---\n\n", content)
	}

	req := buildRequest(e.gateway, domain.TaskFactExtraction, factExtractionSystemPrompt, b.String(), true, 4096)
	resp, err := e.gateway.Call(ctx, domain.TaskFactExtraction, req)
	if err != nil {
		return extraction{}, err
	}

	repaired := jsonrepair.Repair(resp.Text)
	if repaired == "" {
		return extraction{}, nil
	}

	var result extraction
	gjson.Get(repaired, "entities").ForEach(func(_, v gjson.Result) bool {
		ee := extractedEntity{
			name:        v.Get("name").String(),
			entityType:  v.Get("type").String(),
			confidence:  v.Get("confidence").Float(),
			description: v.Get("description").String(),
			attributes:  map[string]string{},
		}
		if ee.name == "" {
			return true
		}
		v.Get("aliases").ForEach(func(_, a gjson.Result) bool {
			ee.aliases = append(ee.aliases, a.String())
			return true
		})
		v.Get("sources").ForEach(func(_, s gjson.Result) bool {
			ee.sources = append(ee.sources, s.String())
			return true
		})
		v.Get("attributes").ForEach(func(k, val gjson.Result) bool {
			ee.attributes[k.String()] = val.String()
			return true
		})
		result.entities = append(result.entities, ee)
		return true
	})

	gjson.Get(repaired, "connections").ForEach(func(_, v gjson.Result) bool {
		ec := extractedConnection{
			source:      v.Get("source").String(),
			target:      v.Get("target").String(),
			relType:     strings.ToUpper(v.Get("type").String()),
			confidence:  v.Get("confidence").Float(),
			description: v.Get("description").String(),
			startDate:   v.Get("start_date").String(),
			endDate:     v.Get("end_date").String(),
		}
		if ec.source == "" || ec.target == "" {
			return true
		}
		v.Get("sources").ForEach(func(_, s gjson.Result) bool {
			ec.sources = append(ec.sources, s.String())
			return true
		})
		result.connections = append(result.connections, ec)
		return true
	})

	gjson.Get(repaired, "key_facts").ForEach(func(_, v gjson.Result) bool {
		result.keyFacts = append(result.keyFacts, v.String())
		return true
	})

	return result, nil
}

const factExtractionSystemPrompt = `You are a fact-extraction agent for a due-diligence investigation. ` +
	`Given raw web content, extract structured entities, connections, and key facts. ` +
	`Respond with a JSON object: {"entities": [{"name": string, "type": one of ` +
	`"person","organization","location","event","document","financial_instrument", ` +
	`"confidence": number 0-1, "description": string, "aliases": [string], "sources": [string], ` +
	`"attributes": {string: string}}], "connections": [{"source": string, "target": string, ` +
	`"type": string, "confidence": number 0-1, "description": string, "start_date": string, ` +
	`"end_date": string, "sources": [string]}], "key_facts": [string]}. ` +
	`Only extract what the content actually supports; never invent entities.`
