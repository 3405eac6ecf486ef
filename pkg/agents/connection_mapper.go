package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/deepresearch/investigator/pkg/ai/llm"
	"github.com/deepresearch/investigator/pkg/domain"
)

// minEntitiesForConnectionMapping is the skip threshold.
const minEntitiesForConnectionMapping = 3

// suggestedInvestigationPriority is the fixed priority assigned to
// hypotheses generated from the mapper's suggested_investigations
//.
const suggestedInvestigationPriority = 7

// ConnectionMapper is the Connection Mapper worker : given
// entities, recent findings, and existing connections, it asks a deep-tier
// model for new connections plus suggested follow-up investigations.
type ConnectionMapper struct {
	gateway *llm.Gateway
}

func NewConnectionMapper(gateway *llm.Gateway) *ConnectionMapper {
	return &ConnectionMapper{gateway: gateway}
}

func (m *ConnectionMapper) Name() string { return "connection_mapping" }

func (m *ConnectionMapper) Run(ctx context.Context, state *domain.InvestigationState) *domain.InvestigationState {
	next := state.Clone()

	if len(next.Entities) < minEntitiesForConnectionMapping {
		next.LogError(m.Name(), "skipped: fewer than 3 entities", time.Now())
		return next
	}

	prompt := buildConnectionMappingPrompt(next)
	req := buildRequest(m.gateway, domain.TaskConnectionMapping, connectionMappingSystemPrompt, prompt, true, 3072)
	resp, err := m.gateway.Call(ctx, domain.TaskConnectionMapping, req)
	if err != nil {
		next.LogError(m.Name(), fmt.Sprintf("gateway call failed: %v", err), time.Now())
		return next
	}

	gjson.Get(resp.Text, "connections").ForEach(func(_, v gjson.Result) bool {
		sourceID := resolveEndpointAnyType(next, v.Get("source").String())
		targetID := resolveEndpointAnyType(next, v.Get("target").String())
		if sourceID == "" || targetID == "" {
			return true
		}
		conn := domain.NewConnection(sourceID, targetID, domain.RelationshipType(strings.ToUpper(v.Get("type").String())), v.Get("confidence").Float())
		conn.Description = v.Get("description").String()
		conn.StartDate = v.Get("start_date").String()
		conn.EndDate = v.Get("end_date").String()
		var sources []string
		v.Get("sources").ForEach(func(_, s gjson.Result) bool {
			sources = append(sources, s.String())
			return true
		})
		conn.SetSources(sources)
		next.AddConnection(conn)
		return true
	})

	gjson.Get(resp.Text, "suggested_investigations").ForEach(func(_, v gjson.Result) bool {
		desc := v.String()
		if desc == "" {
			return true
		}
		hyp := domain.NewHypothesis(desc, suggestedInvestigationPriority, nil)
		next.Hypotheses = append(next.Hypotheses, hyp)
		return true
	})

	return next
}

func buildConnectionMappingPrompt(state *domain.InvestigationState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n\nEntities:\n", state.Subject.FullName)
	for _, e := range state.Entities {
		fmt.Fprintf(&b, "- %s (%s): %s\n", e.Name, e.Type, e.Description)
	}
	b.WriteString("\nRecent findings:\n")
	for _, f := range lastKnownAssociations(state, 10) {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	b.WriteString("\nExisting connections:\n")
	for _, c := range state.Connections {
		fmt.Fprintf(&b, "- %s -[%s]-> %s\n", c.SourceID, c.Type, c.TargetID)
	}
	return b.String()
}

func lastKnownAssociations(state *domain.InvestigationState, n int) []string {
	facts := state.Subject.KnownAssociations
	if len(facts) <= n {
		return facts
	}
	return facts[len(facts)-n:]
}

const connectionMappingSystemPrompt = `You are a connection-mapping agent for a due-diligence investigation. ` +
	`Given entities and existing connections, identify NEW relationships not already captured, and suggest follow-up investigation threads. ` +
	`Respond with a JSON object: {"connections": [{"source": string, "target": string, "type": one of ` +
	`"WORKS_AT","BOARD_MEMBER_OF","FOUNDED","INVESTED_IN","SUBSIDIARY_OF","RELATED_TO","KNOWS","FAMILY_OF", ` +
	`"SUED_BY","REGULATED_BY","MENTIONED_IN","PARTNER_OF","ADVISOR_TO","DONOR_TO","PREVIOUSLY_AT", ` +
	`"confidence": number 0-1, "description": string, "start_date": string, "end_date": string, "sources": [string]}], ` +
	`"suggested_investigations": [string]}.`
