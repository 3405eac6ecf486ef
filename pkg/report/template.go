package report

// reportTemplate implements the required section order: title +
// metadata line; Executive Summary with overall rating; Subject Profile;
// Organizational Connections; Risk Assessment (grouped by severity); Key
// Findings; Investigation Timeline; Confidence Assessment; Recommendations.
const reportTemplate = `# Due Diligence Report: {{.SubjectName}}

_Generated {{.GeneratedAt.Format "2006-01-02 15:04 MST"}} · Role: {{.SubjectRole}} · Organization: {{.SubjectOrganization}}_

## Executive Summary

**Overall Rating: {{upper .OverallRating}}**

{{.Narrative}}

## Subject Profile

{{range .Entities}}- **{{.Name}}** ({{.Type}}, confidence {{pct .Confidence}}){{if .Description}} — {{.Description}}{{end}}
{{else}}_No entities were accumulated during this investigation._
{{end}}
## Organizational Connections

{{range .Connections}}- {{.SourceName}} —[{{.Type}}]→ {{.TargetName}} (confidence {{pct .Confidence}}){{if .Description}}: {{.Description}}{{end}}
{{else}}_No connections were mapped during this investigation._
{{end}}
## Risk Assessment

{{range .Risks}}### [{{upper (printf "%v" .Severity)}}] {{.Title}}

Category: {{.Category}} · Confidence: {{pct .Confidence}}

{{.Description}}
{{if .EvidenceURLs}}
Evidence: {{join .EvidenceURLs ", "}}
{{end}}{{if .MitigatingFactors}}
Mitigating factors: {{join .MitigatingFactors "; "}}
{{end}}
{{else}}_No risk flags were raised._
{{end}}
## Key Findings

{{range .KeyFindings}}- {{.}}
{{else}}_No standalone key findings were recorded separately from the narrative above._
{{end}}
## Investigation Timeline

{{range .Timeline}}- {{.Date}}: {{.Description}}
{{else}}_No dated facts were extracted._
{{end}}
## Confidence Assessment

Overall confidence: {{pct .OverallConfidence}}
{{if .InaccessibleURLs}}
The following sources could not be retrieved and may limit the completeness of this assessment:
{{range .InaccessibleURLs}}- {{.}}
{{end}}{{end}}
## Recommendations

{{range .Recommendations}}- {{.}}
{{else}}_No specific recommendations were generated._
{{end}}`
