package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordInvestigationStarted(t *testing.T) {
	initial := testutil.ToFloat64(InvestigationsStartedTotal)
	RecordInvestigationStarted()
	if got := testutil.ToFloat64(InvestigationsStartedTotal); got != initial+1.0 {
		t.Errorf("InvestigationsStartedTotal = %v, want %v", got, initial+1.0)
	}
}

func TestRecordInvestigationCompleted(t *testing.T) {
	reason := "test_completed"
	initial := testutil.ToFloat64(InvestigationsCompletedTotal.WithLabelValues(reason))
	RecordInvestigationCompleted(reason)
	if got := testutil.ToFloat64(InvestigationsCompletedTotal.WithLabelValues(reason)); got != initial+1.0 {
		t.Errorf("InvestigationsCompletedTotal(%s) = %v, want %v", reason, got, initial+1.0)
	}
}

func TestRecordDirectorDecision(t *testing.T) {
	action := "test_generate_report"
	initial := testutil.ToFloat64(DirectorIterationsTotal.WithLabelValues(action))
	RecordDirectorDecision(action)
	RecordDirectorDecision(action)
	if got := testutil.ToFloat64(DirectorIterationsTotal.WithLabelValues(action)); got != initial+2.0 {
		t.Errorf("DirectorIterationsTotal(%s) = %v, want %v", action, got, initial+2.0)
	}
}

func TestRecordNodeExecution(t *testing.T) {
	node := "test_director"
	initial := testutil.ToFloat64(NodeExecutionsTotal.WithLabelValues(node))
	RecordNodeExecution(node)
	if got := testutil.ToFloat64(NodeExecutionsTotal.WithLabelValues(node)); got != initial+1.0 {
		t.Errorf("NodeExecutionsTotal(%s) = %v, want %v", node, got, initial+1.0)
	}
}

func TestRecordLLMCall(t *testing.T) {
	provider, tier, outcome := "test_claude", "deep", "success"
	initialCalls := testutil.ToFloat64(LLMCallsTotal.WithLabelValues(provider, tier, outcome))
	initialCost := testutil.ToFloat64(LLMCostUSDTotal.WithLabelValues(provider, tier))

	RecordLLMCall(provider, tier, outcome, 0.0042)

	if got := testutil.ToFloat64(LLMCallsTotal.WithLabelValues(provider, tier, outcome)); got != initialCalls+1.0 {
		t.Errorf("LLMCallsTotal = %v, want %v", got, initialCalls+1.0)
	}
	if got := testutil.ToFloat64(LLMCostUSDTotal.WithLabelValues(provider, tier)); got < initialCost+0.0041 {
		t.Errorf("LLMCostUSDTotal = %v, want >= %v", got, initialCost+0.0041)
	}
}

func TestRecordLLMCallZeroCostDoesNotTouchCostCounter(t *testing.T) {
	provider, tier, outcome := "test_gemini", "fast", "permanent_error"
	initial := testutil.ToFloat64(LLMCostUSDTotal.WithLabelValues(provider, tier))
	RecordLLMCall(provider, tier, outcome, 0)
	if got := testutil.ToFloat64(LLMCostUSDTotal.WithLabelValues(provider, tier)); got != initial {
		t.Errorf("LLMCostUSDTotal = %v, want unchanged %v", got, initial)
	}
}

func TestRecordLLMFallback(t *testing.T) {
	initial := testutil.ToFloat64(LLMFallbacksTotal.WithLabelValues("deep", "test_claude", "test_openai"))
	RecordLLMFallback("deep", "test_claude", "test_openai")
	if got := testutil.ToFloat64(LLMFallbacksTotal.WithLabelValues("deep", "test_claude", "test_openai")); got != initial+1.0 {
		t.Errorf("LLMFallbacksTotal = %v, want %v", got, initial+1.0)
	}
}

func TestRecordSearchCall(t *testing.T) {
	initial := testutil.ToFloat64(SearchCallsTotal.WithLabelValues("test_primary", "baseline"))
	RecordSearchCall("test_primary", "baseline")
	if got := testutil.ToFloat64(SearchCallsTotal.WithLabelValues("test_primary", "baseline")); got != initial+1.0 {
		t.Errorf("SearchCallsTotal = %v, want %v", got, initial+1.0)
	}
}

func TestRecordFetchTierAttempt(t *testing.T) {
	initialSuccess := testutil.ToFloat64(FetchTierAttemptsTotal.WithLabelValues("1", "success"))
	initialEscalations := testutil.ToFloat64(FetchEscalationsTotal)

	RecordFetchTierAttempt("1", true)
	if got := testutil.ToFloat64(FetchTierAttemptsTotal.WithLabelValues("1", "success")); got != initialSuccess+1.0 {
		t.Errorf("FetchTierAttemptsTotal success = %v, want %v", got, initialSuccess+1.0)
	}
	if got := testutil.ToFloat64(FetchEscalationsTotal); got != initialEscalations {
		t.Errorf("FetchEscalationsTotal should not increase on success: got %v, want %v", got, initialEscalations)
	}

	RecordFetchTierAttempt("1", false)
	if got := testutil.ToFloat64(FetchEscalationsTotal); got != initialEscalations+1.0 {
		t.Errorf("FetchEscalationsTotal = %v, want %v", got, initialEscalations+1.0)
	}
}

func TestRecordDeadDomainRecovery(t *testing.T) {
	initial := testutil.ToFloat64(DeadDomainRecoveryTotal.WithLabelValues("wayback"))
	RecordDeadDomainRecovery("wayback")
	if got := testutil.ToFloat64(DeadDomainRecoveryTotal.WithLabelValues("wayback")); got != initial+1.0 {
		t.Errorf("DeadDomainRecoveryTotal(wayback) = %v, want %v", got, initial+1.0)
	}
}

func TestRecordGraphQuery(t *testing.T) {
	initialOK := testutil.ToFloat64(GraphQueriesTotal.WithLabelValues("upsert_entity", "success"))
	initialErr := testutil.ToFloat64(GraphQueriesTotal.WithLabelValues("upsert_entity", "error"))

	RecordGraphQuery("upsert_entity", true)
	if got := testutil.ToFloat64(GraphQueriesTotal.WithLabelValues("upsert_entity", "success")); got != initialOK+1.0 {
		t.Errorf("GraphQueriesTotal success = %v, want %v", got, initialOK+1.0)
	}

	RecordGraphQuery("upsert_entity", false)
	if got := testutil.ToFloat64(GraphQueriesTotal.WithLabelValues("upsert_entity", "error")); got != initialErr+1.0 {
		t.Errorf("GraphQueriesTotal error = %v, want %v", got, initialErr+1.0)
	}
}

func TestRecordEntitiesAccumulated(t *testing.T) {
	RecordEntitiesAccumulated(12)
	metric := &dto.Metric{}
	if err := EntitiesAccumulatedTotal.Write(metric); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if metric.GetHistogram().GetSampleCount() == 0 {
		t.Error("EntitiesAccumulatedTotal should have recorded a sample")
	}
}

func TestRecordRiskFlag(t *testing.T) {
	initial := testutil.ToFloat64(RiskFlagsRaisedTotal.WithLabelValues("critical"))
	RecordRiskFlag("critical")
	if got := testutil.ToFloat64(RiskFlagsRaisedTotal.WithLabelValues("critical")); got != initial+1.0 {
		t.Errorf("RiskFlagsRaisedTotal(critical) = %v, want %v", got, initial+1.0)
	}
}

func TestTimerElapsed(t *testing.T) {
	timer := NewTimer()
	if timer.start.IsZero() {
		t.Fatal("NewTimer should set a non-zero start time")
	}
	time.Sleep(10 * time.Millisecond)
	elapsed := timer.Elapsed()
	if elapsed < 10*time.Millisecond {
		t.Errorf("Elapsed() = %v, want >= 10ms", elapsed)
	}
	if elapsed > time.Second {
		t.Errorf("Elapsed() = %v, want < 1s", elapsed)
	}
}

func TestTimerRecordNode(t *testing.T) {
	timer := NewTimer()
	node := "test_timer_node"
	initialExecs := testutil.ToFloat64(NodeExecutionsTotal.WithLabelValues(node))

	time.Sleep(5 * time.Millisecond)
	timer.RecordNode(node)

	if got := testutil.ToFloat64(NodeExecutionsTotal.WithLabelValues(node)); got != initialExecs+1.0 {
		t.Errorf("NodeExecutionsTotal(%s) = %v, want %v", node, got, initialExecs+1.0)
	}

	metric := &dto.Metric{}
	if err := NodeDuration.WithLabelValues(node).Write(metric); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if metric.GetHistogram().GetSampleCount() == 0 {
		t.Error("NodeDuration should have recorded a sample")
	}
}

func TestTimerRecordLLMCall(t *testing.T) {
	timer := NewTimer()
	provider, tier := "test_timer_provider", "fast"
	time.Sleep(5 * time.Millisecond)
	timer.RecordLLMCall(provider, tier)

	metric := &dto.Metric{}
	if err := LLMCallDuration.WithLabelValues(provider, tier).Write(metric); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if metric.GetHistogram().GetSampleCount() == 0 {
		t.Error("LLMCallDuration should have recorded a sample")
	}
}

func TestTimerRecordGraphQuery(t *testing.T) {
	timer := NewTimer()
	op := "test_timer_discovery_query"
	time.Sleep(5 * time.Millisecond)
	timer.RecordGraphQuery(op)

	metric := &dto.Metric{}
	if err := GraphQueryDuration.WithLabelValues(op).Write(metric); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if metric.GetHistogram().GetSampleCount() == 0 {
		t.Error("GraphQueryDuration should have recorded a sample")
	}
}

func TestTimerRecordRateLimiterWait(t *testing.T) {
	timer := NewTimer()
	time.Sleep(5 * time.Millisecond)
	timer.RecordRateLimiterWait()

	metric := &dto.Metric{}
	if err := RateLimiterWaitDuration.Write(metric); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if metric.GetHistogram().GetSampleCount() == 0 {
		t.Error("RateLimiterWaitDuration should have recorded a sample")
	}
}

func TestMetricsIntegrationInvestigationLifecycle(t *testing.T) {
	initialStarted := testutil.ToFloat64(InvestigationsStartedTotal)
	initialCompleted := testutil.ToFloat64(InvestigationsCompletedTotal.WithLabelValues("completed"))

	RecordInvestigationStarted()
	RecordDirectorDecision("search_web")
	RecordSearchCall("test_primary", "baseline")
	RecordLLMCall("test_claude", "deep", "success", 0.01)
	RecordGraphQuery("upsert_entity", true)
	RecordEntitiesAccumulated(5)
	RecordInvestigationCompleted("completed")

	if got := testutil.ToFloat64(InvestigationsStartedTotal); got != initialStarted+1.0 {
		t.Errorf("InvestigationsStartedTotal = %v, want %v", got, initialStarted+1.0)
	}
	if got := testutil.ToFloat64(InvestigationsCompletedTotal.WithLabelValues("completed")); got != initialCompleted+1.0 {
		t.Errorf("InvestigationsCompletedTotal(completed) = %v, want %v", got, initialCompleted+1.0)
	}
}
