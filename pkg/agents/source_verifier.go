package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/deepresearch/investigator/pkg/ai/llm"
	"github.com/deepresearch/investigator/pkg/domain"
	sharedmath "github.com/deepresearch/investigator/pkg/shared/math"
)

// contradictionLogPrefix tags contradiction strings the Source Verifier
// surfaces into the error log.
const contradictionLogPrefix = "CONTRADICTION: "

// SourceVerifier is the Source Verifier worker :
// it emits a per-claim confidence score for the accumulated evidence and
// derives overall_confidence as their arithmetic mean.
type SourceVerifier struct {
	gateway *llm.Gateway
}

func NewSourceVerifier(gateway *llm.Gateway) *SourceVerifier {
	return &SourceVerifier{gateway: gateway}
}

func (v *SourceVerifier) Name() string { return "source_verification" }

func (v *SourceVerifier) Run(ctx context.Context, state *domain.InvestigationState) *domain.InvestigationState {
	next := state.Clone()

	prompt := buildVerificationPrompt(next)
	req := buildRequest(v.gateway, domain.TaskSourceVerification, sourceVerificationSystemPrompt, prompt, true, 2048)
	resp, err := v.gateway.Call(ctx, domain.TaskSourceVerification, req)
	if err != nil {
		next.LogError(v.Name(), fmt.Sprintf("gateway call failed: %v", err), time.Now())
		return next
	}

	var scores []float64
	gjson.Get(resp.Text, "claim_scores").ForEach(func(_, score gjson.Result) bool {
		scores = append(scores, score.Get("confidence").Float())
		return true
	})
	if len(scores) > 0 {
		next.OverallConfidence = sharedmath.Mean(scores)
	}

	now := time.Now()
	gjson.Get(resp.Text, "contradictions").ForEach(func(_, c gjson.Result) bool {
		text := c.String()
		if text == "" {
			return true
		}
		next.LogError(v.Name(), contradictionLogPrefix+text, now)
		return true
	})

	return next
}

func buildVerificationPrompt(state *domain.InvestigationState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n\nEntities and their sources:\n", state.Subject.FullName)
	for _, e := range state.Entities {
		fmt.Fprintf(&b, "- %s: sources=%v confidence=%.2f\n", e.Name, e.Sources, e.Confidence)
	}
	b.WriteString("\nConnections and their sources:\n")
	for _, c := range state.Connections {
		fmt.Fprintf(&b, "- %s -[%s]-> %s: sources=%v\n", c.SourceID, c.Type, c.TargetID, c.Sources)
	}
	return b.String()
}

const sourceVerificationSystemPrompt = `You are a source-verification agent for a due-diligence investigation. ` +
	`Score how well each major claim is corroborated by independent sources, and flag any contradictions between sources. ` +
	`Respond with a JSON object: {"claim_scores": [{"claim": string, "confidence": number 0-1}], ` +
	`"contradictions": [string]}.`
