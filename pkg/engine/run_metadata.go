package engine

import (
	"encoding/json"
	"os"
	"time"

	"github.com/deepresearch/investigator/pkg/domain"
)

// RunMetadata summarizes one investigation run, written alongside the
// report and surfaced in the CLI summary table.
type RunMetadata struct {
	RunID             string        `json:"run_id"`
	Subject           string        `json:"subject"`
	DurationSeconds   float64       `json:"duration_seconds"`
	PhasesExecuted    []domain.Phase `json:"phases_executed"`
	SourcesFailed     int           `json:"sources_failed"`
	ErrorCount        int           `json:"error_count"`
	TerminationReason string        `json:"termination_reason"`
	Iterations        int           `json:"iterations"`
	EntityCount       int           `json:"entity_count"`
	ConnectionCount   int           `json:"connection_count"`
	RiskFlagCount     int           `json:"risk_flag_count"`
	EstimatedCostUSD  float64       `json:"estimated_cost_usd"`
}

// BuildRunMetadata assembles a RunMetadata from the terminal state and the
// wall-clock duration of the run.
func BuildRunMetadata(runID string, state *domain.InvestigationState, duration time.Duration) RunMetadata {
	reason := state.TerminationReason
	if reason == "" {
		if state.Terminated {
			reason = "completed"
		} else {
			reason = "error"
		}
	}
	return RunMetadata{
		RunID:             runID,
		Subject:           state.Subject.FullName,
		DurationSeconds:   duration.Seconds(),
		PhasesExecuted:    state.PhasesExecuted,
		SourcesFailed:     len(state.InaccessibleURLs),
		ErrorCount:        len(state.ErrorLog),
		TerminationReason: reason,
		Iterations:        state.Iteration,
		EntityCount:       len(state.Entities),
		ConnectionCount:   len(state.Connections),
		RiskFlagCount:     len(state.RiskFlags),
		EstimatedCostUSD:  state.EstimatedCostUSD,
	}
}

// WriteJSON writes m to path as indented JSON.
func (m RunMetadata) WriteJSON(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
