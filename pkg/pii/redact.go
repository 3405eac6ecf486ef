// Package pii implements the post-synthesis redaction pass (
// supplemented feature 4): scanning the final report narrative for
// emails, phone numbers, SSN-shaped numbers, and IP addresses, and
// producing a redacted sibling report plus the span annotations the
// engine records on InvestigationState.
package pii

import (
	"regexp"
	"sort"

	"github.com/deepresearch/investigator/pkg/domain"
)

// Kind labels for PIIAnnotation.Kind.
const (
	KindEmail = "email"
	KindPhone = "phone"
	KindSSN   = "ssn"
	KindIP    = "ip"
)

// patterns lists the detectors. Overlapping matches (an SSN-shaped run of
// digits inside a phone number, say) are resolved by position in Annotate:
// the span that starts first wins, the longer one when two start together,
// and any later span overlapping it is skipped.
var patterns = []struct {
	kind string
	re   *regexp.Regexp
}{
	{KindEmail, regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)},
	{KindSSN, regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{KindIP, regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4]\d|1?\d?\d)\.){3}(?:25[0-5]|2[0-4]\d|1?\d?\d)\b`)},
	{KindPhone, regexp.MustCompile(`\b(?:\+?1[-. ]?)?\(?\d{3}\)?[-. ]\d{3}[-. ]\d{4}\b`)},
}

// Redactor replaces each detected span with [REDACTED:<kind>] and records
// the original match for audit via Annotate.
type Redactor struct{}

func New() *Redactor { return &Redactor{} }

// Annotate scans text and returns every detected PII span in first-to-last
// document order, skipping any span that overlaps one already kept (an
// earlier-starting span, or a longer one with the same start).
func (r *Redactor) Annotate(text string) []domain.PIIAnnotation {
	type span struct {
		start, end int
		kind       string
		match      string
	}
	var spans []span
	for _, p := range patterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			spans = append(spans, span{start: loc[0], end: loc[1], kind: p.kind, match: text[loc[0]:loc[1]]})
		}
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end // longer match at same start wins
	})

	var out []domain.PIIAnnotation
	claimedUntil := -1
	for _, s := range spans {
		if s.start < claimedUntil {
			continue
		}
		out = append(out, domain.PIIAnnotation{Kind: s.kind, Match: s.match, Start: s.start, End: s.end})
		claimedUntil = s.end
	}
	return out
}

// Redact rewrites text, replacing every annotated span with a
// "[REDACTED:<kind>]" placeholder, processing spans back-to-front so
// earlier offsets stay valid as the string shrinks/grows.
func (r *Redactor) Redact(text string, annotations []domain.PIIAnnotation) string {
	out := []byte(text)
	for i := len(annotations) - 1; i >= 0; i-- {
		a := annotations[i]
		if a.Start < 0 || a.End > len(out) || a.Start > a.End {
			continue
		}
		placeholder := "[REDACTED:" + a.Kind + "]"
		out = append(out[:a.Start], append([]byte(placeholder), out[a.End:]...)...)
	}
	return string(out)
}

// RedactReport annotates and redacts state.FinalReport, populating both
// state.PIIAnnotations and state.RedactedReport on the returned clone.
func (r *Redactor) RedactReport(state *domain.InvestigationState) *domain.InvestigationState {
	next := state.Clone()
	annotations := r.Annotate(next.FinalReport)
	next.PIIAnnotations = annotations
	next.RedactedReport = r.Redact(next.FinalReport, annotations)
	return next
}
