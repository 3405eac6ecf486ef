// Package metrics registers the investigator's Prometheus collectors and
// exposes them over an HTTP server (Observability: "metrics
// enabled/port"). Besides run, Director, node, entity and risk-flag
// counters, the collectors below cover the concerns named in SPEC_FULL.md's
// Observability Hooks component: fetch-tier escalation, LLM cost,
// search-provider calls, and graph-query latency.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// InvestigationsStartedTotal counts investigation runs started.
	InvestigationsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "investigations_started_total",
		Help: "Total number of investigations started.",
	})

	// InvestigationsCompletedTotal counts investigation runs that reached
	// a terminal state, labelled by termination reason (completed,
	// terminated_by_director, error).
	InvestigationsCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "investigations_completed_total",
		Help: "Total number of investigations that reached a terminal state, by termination reason.",
	}, []string{"reason"})

	// DirectorIterationsTotal counts Director planning calls, by the next
	// action chosen.
	DirectorIterationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "director_iterations_total",
		Help: "Total number of Director planning iterations, by chosen next action.",
	}, []string{"action"})

	// NodeExecutionsTotal counts state-machine node executions, by node
	// name, for the engine's recursion-safeguard accounting.
	NodeExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "node_executions_total",
		Help: "Total number of investigation state-machine node executions, by node.",
	}, []string{"node"})

	// NodeDuration records node execution latency, by node.
	NodeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "node_duration_seconds",
		Help:    "Duration of one state-machine node execution, by node.",
		Buckets: prometheus.DefBuckets,
	}, []string{"node"})

	// LLMCallsTotal counts gateway calls, by provider, tier, and outcome
	// (success, transient_error, permanent_error, fallback).
	LLMCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_calls_total",
		Help: "Total number of LLM gateway calls, by provider, tier, and outcome.",
	}, []string{"provider", "tier", "outcome"})

	// LLMFallbacksTotal counts provider failovers, by tier, primary, and
	// fallback provider.
	LLMFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_fallbacks_total",
		Help: "Total number of LLM provider fallback dispatches, by tier and primary/fallback provider.",
	}, []string{"tier", "primary", "fallback"})

	// LLMCostUSDTotal accumulates estimated LLM spend, by provider/tier.
	LLMCostUSDTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_cost_usd_total",
		Help: "Cumulative estimated LLM spend in USD, by provider and tier.",
	}, []string{"provider", "tier"})

	// LLMCallDuration records gateway call latency, by provider/tier.
	LLMCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_call_duration_seconds",
		Help:    "Duration of one LLM gateway call, by provider and tier.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "tier"})

	// SearchCallsTotal counts search-provider queries, by provider and
	// phase.
	SearchCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "search_calls_total",
		Help: "Total number of search-provider queries, by provider and phase.",
	}, []string{"provider", "phase"})

	// FetchTierAttemptsTotal counts tiered-fetcher escalation attempts, by
	// tier number and outcome.
	FetchTierAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetch_tier_attempts_total",
		Help: "Total number of tiered-fetch attempts, by tier and outcome (success, failure).",
	}, []string{"tier", "outcome"})

	// FetchEscalationsTotal counts every tier-to-tier escalation event.
	FetchEscalationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fetch_escalations_total",
		Help: "Total number of tiered-fetch escalation events (moving from one tier to the next).",
	})

	// DeadDomainRecoveryTotal counts dead-domain recovery outcomes, by
	// method (wayback, relocated, unrecoverable).
	DeadDomainRecoveryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dead_domain_recovery_total",
		Help: "Total number of dead-domain recovery outcomes, by method.",
	}, []string{"method"})

	// RateLimiterWaitDuration records time spent waiting for a per-domain
	// rate-limit permit.
	RateLimiterWaitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rate_limiter_wait_duration_seconds",
		Help:    "Time spent waiting for a per-domain rate-limit permit before a fetch.",
		Buckets: prometheus.DefBuckets,
	})

	// GraphQueriesTotal counts graph-store operations, by operation and
	// outcome.
	GraphQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graph_queries_total",
		Help: "Total number of graph-store operations, by operation and outcome.",
	}, []string{"operation", "outcome"})

	// GraphQueryDuration records graph-store operation latency, by
	// operation.
	GraphQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "graph_query_duration_seconds",
		Help:    "Duration of one graph-store operation, by operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// EntitiesAccumulatedTotal observes the entity count at the end of
	// each investigation.
	EntitiesAccumulatedTotal = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "entities_accumulated_total",
		Help:    "Number of entities accumulated by a completed investigation.",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 250},
	})

	// RiskFlagsRaisedTotal counts risk flags raised, by severity.
	RiskFlagsRaisedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "risk_flags_raised_total",
		Help: "Total number of risk flags raised, by severity.",
	}, []string{"severity"})
)

// RecordInvestigationStarted increments InvestigationsStartedTotal.
func RecordInvestigationStarted() {
	InvestigationsStartedTotal.Inc()
}

// RecordInvestigationCompleted increments InvestigationsCompletedTotal for
// the given termination reason.
func RecordInvestigationCompleted(reason string) {
	InvestigationsCompletedTotal.WithLabelValues(reason).Inc()
}

// RecordDirectorDecision increments DirectorIterationsTotal for the given
// next action.
func RecordDirectorDecision(action string) {
	DirectorIterationsTotal.WithLabelValues(action).Inc()
}

// RecordNodeExecution increments NodeExecutionsTotal for node.
func RecordNodeExecution(node string) {
	NodeExecutionsTotal.WithLabelValues(node).Inc()
}

// RecordLLMCall increments LLMCallsTotal for the given provider/tier/outcome
// and adds cost to LLMCostUSDTotal.
func RecordLLMCall(provider, tier, outcome string, costUSD float64) {
	LLMCallsTotal.WithLabelValues(provider, tier, outcome).Inc()
	if costUSD > 0 {
		LLMCostUSDTotal.WithLabelValues(provider, tier).Add(costUSD)
	}
}

// RecordLLMFallback increments LLMFallbacksTotal for the tier/primary/fallback triple.
func RecordLLMFallback(tier, primary, fallback string) {
	LLMFallbacksTotal.WithLabelValues(tier, primary, fallback).Inc()
}

// RecordSearchCall increments SearchCallsTotal for the given provider/phase.
func RecordSearchCall(provider, phase string) {
	SearchCallsTotal.WithLabelValues(provider, phase).Inc()
}

// RecordFetchTierAttempt increments FetchTierAttemptsTotal for the given
// tier/outcome, and FetchEscalationsTotal when outcome is a failure
// (escalating to the next tier).
func RecordFetchTierAttempt(tier string, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
		FetchEscalationsTotal.Inc()
	}
	FetchTierAttemptsTotal.WithLabelValues(tier, outcome).Inc()
}

// RecordDeadDomainRecovery increments DeadDomainRecoveryTotal for method.
func RecordDeadDomainRecovery(method string) {
	DeadDomainRecoveryTotal.WithLabelValues(method).Inc()
}

// RecordGraphQuery increments GraphQueriesTotal for operation/outcome.
func RecordGraphQuery(operation string, success bool) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	GraphQueriesTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordEntitiesAccumulated observes the final entity count.
func RecordEntitiesAccumulated(count int) {
	EntitiesAccumulatedTotal.Observe(float64(count))
}

// RecordRiskFlag increments RiskFlagsRaisedTotal for severity.
func RecordRiskFlag(severity string) {
	RiskFlagsRaisedTotal.WithLabelValues(severity).Inc()
}

// Timer measures elapsed wall-clock time and records it against one of the
// duration histograms at Stop-time.
type Timer struct {
	start time.Time
}

// NewTimer starts a new Timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the time since the timer was created.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// RecordNode records the elapsed time against NodeDuration for node and
// increments NodeExecutionsTotal.
func (t *Timer) RecordNode(node string) {
	NodeDuration.WithLabelValues(node).Observe(t.Elapsed().Seconds())
	RecordNodeExecution(node)
}

// RecordLLMCall records the elapsed time against LLMCallDuration for
// provider/tier.
func (t *Timer) RecordLLMCall(provider, tier string) {
	LLMCallDuration.WithLabelValues(provider, tier).Observe(t.Elapsed().Seconds())
}

// RecordGraphQuery records the elapsed time against GraphQueryDuration for
// operation.
func (t *Timer) RecordGraphQuery(operation string) {
	GraphQueryDuration.WithLabelValues(operation).Observe(t.Elapsed().Seconds())
}

// RecordRateLimiterWait records the elapsed time against
// RateLimiterWaitDuration.
func (t *Timer) RecordRateLimiterWait() {
	RateLimiterWaitDuration.Observe(t.Elapsed().Seconds())
}
