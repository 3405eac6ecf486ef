package engine

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/deepresearch/investigator/pkg/ai/llm"
	"github.com/deepresearch/investigator/pkg/domain"
	"github.com/deepresearch/investigator/pkg/graphstore"
	"github.com/deepresearch/investigator/pkg/metrics"
	"github.com/deepresearch/investigator/pkg/search"
	"github.com/deepresearch/investigator/pkg/shared/logging"
)

const (
	nodeDirector            = "director"
	nodeWebResearch         = "web_research"
	nodeRiskAnalysis        = "risk_analysis"
	nodeConnectionMapping   = "connection_mapping"
	nodeSourceVerification  = "source_verification"
	nodeEntityResolution    = "entity_resolution"
	nodeTemporalAnalysis    = "temporal_analysis"
	nodeGraphPersist        = "graph_persist"
	nodeGraphReasoning      = "graph_reasoning"
	nodeReportGeneration    = "report_generation"
)

var tracer = otel.Tracer("github.com/deepresearch/investigator/pkg/engine")

// Machine is the Investigation State Machine : it owns the
// node registry, the Director→node routing map, checkpointing, progress
// emission, and the recursion safeguard, and drives one investigation from
// its initial state through to a terminal report.
type Machine struct {
	director *Director

	webResearch         Worker
	riskAnalysis        Worker
	connectionMapping   Worker
	sourceVerification  Worker
	entityResolution    Worker
	temporalAnalysis    Worker
	graphPersist        Worker
	graphReasoning      Worker
	reportGeneration    Worker

	checkpoint *Checkpointer
	progress   *ProgressWriter
	debug      *DebugSink
	log        *zap.Logger
}

// Dependencies bundles every collaborator Machine needs. The Worker fields
// mirror pkg/agents' exported worker set; GraphClient may be nil when
// graph persistence is disabled (config.Agent.EnableGraph == false).
type Dependencies struct {
	Gateway             *llm.Gateway
	Researcher          *search.Researcher
	GraphClient         *graphstore.Client
	FactExtractor       Worker
	RiskAnalyzer        Worker
	ConnectionMapper    Worker
	SourceVerifier      Worker
	EntityResolver      Worker
	TemporalAnalyzer    Worker
	ReportGenerator     Worker
	CheckpointDir       string
	DebugDir            string
	Progress            *ProgressWriter
	Logger              *zap.Logger
	DirectorLookback    int
	DirectorMinNew      int
}

// NewMachine wires every node from deps. web_research is assembled here
// from Researcher + FactExtractor since the data-flow folds
// "Web Research → Fact Extraction" into a single routing target.
func NewMachine(deps Dependencies) (*Machine, error) {
	checkpoint, err := NewCheckpointer(deps.CheckpointDir)
	if err != nil {
		return nil, err
	}
	debug, err := NewDebugSink(deps.DebugDir)
	if err != nil {
		return nil, err
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Machine{
		director:           NewDirector(deps.Gateway, deps.DirectorLookback, deps.DirectorMinNew),
		webResearch:        &chainedWorker{name: nodeWebResearch, steps: []Worker{&researchNode{researcher: deps.Researcher}, deps.FactExtractor}},
		riskAnalysis:       deps.RiskAnalyzer,
		connectionMapping:  deps.ConnectionMapper,
		sourceVerification: deps.SourceVerifier,
		entityResolution:   deps.EntityResolver,
		temporalAnalysis:   deps.TemporalAnalyzer,
		graphPersist:       &graphPersistNode{client: deps.GraphClient},
		graphReasoning:     &graphReasoningNode{client: deps.GraphClient},
		reportGeneration:   deps.ReportGenerator,
		checkpoint:         checkpoint,
		progress:           deps.Progress,
		debug:              debug,
		log:                log,
	}, nil
}

// chainedWorker runs its steps in sequence, feeding each step's output
// state into the next, under a single node name for progress/checkpoint
// purposes.
type chainedWorker struct {
	name  string
	steps []Worker
}

func (c *chainedWorker) Name() string { return c.name }

func (c *chainedWorker) Run(ctx context.Context, state *domain.InvestigationState) *domain.InvestigationState {
	next := state
	for _, step := range c.steps {
		next = step.Run(ctx, next)
	}
	return next
}

// routeAfterDirector maps a Director decision's next action to the node
// the machine visits next ("Routing map"). generate_report,
// terminate, and update_graph all enter the linear synthesis pipeline --
// update_graph has no standalone node of its own, and terminate must still
// produce a report rather than exit with nothing (supplemented
// feature 7).
func routeAfterDirector(action domain.Action) string {
	switch action {
	case domain.ActionSearchWeb, domain.ActionExtractFacts:
		return nodeWebResearch
	case domain.ActionAnalyzeRisks:
		return nodeRiskAnalysis
	case domain.ActionMapConnections:
		return nodeConnectionMapping
	case domain.ActionVerifySources:
		return nodeSourceVerification
	default: // generate_report, terminate, update_graph
		return nodeEntityResolution
	}
}

// Run drives state from its current node through to a terminal report,
// honoring the recursion safeguard (max_iterations*10+20 total node
// executions) and checkpointing after every node.
func (m *Machine) Run(ctx context.Context, state *domain.InvestigationState) *domain.InvestigationState {
	slug := Slug(state.Subject.FullName)
	maxExecutions := state.MaxIterations*10 + 20
	node := nodeDirector
	step := 0

	metrics.RecordInvestigationStarted()

	for executions := 0; ; executions++ {
		if executions >= maxExecutions {
			state.Terminated = true
			state.TerminationReason = "terminated_by_director"
			m.log.Warn("recursion safeguard tripped", zap.Int("executions", executions))
			break
		}

		if node == nodeDirector {
			state = m.stepDirector(ctx, state)
			node = routeAfterDirector(state.LastDecision.NextAction)
			_ = m.checkpoint.Save(slug, state)
			continue
		}

		step++
		worker := m.nodeFor(node)
		state = m.runNode(ctx, step, worker, state)
		_ = m.checkpoint.Save(slug, state)

		switch node {
		case nodeWebResearch, nodeRiskAnalysis, nodeConnectionMapping, nodeSourceVerification:
			node = nodeDirector
		case nodeEntityResolution:
			node = nodeTemporalAnalysis
		case nodeTemporalAnalysis:
			node = nodeGraphPersist
		case nodeGraphPersist:
			node = nodeGraphReasoning
		case nodeGraphReasoning:
			node = nodeReportGeneration
		case nodeReportGeneration:
			state.Terminated = true
			if state.TerminationReason == "" {
				state.TerminationReason = "completed"
			}
			_ = m.checkpoint.Save(slug, state)
			m.progress.Emit("complete", nodeReportGeneration, "investigation complete", nil)
			metrics.RecordInvestigationCompleted(state.TerminationReason)
			return state
		}
	}

	metrics.RecordInvestigationCompleted(state.TerminationReason)
	return state
}

func (m *Machine) stepDirector(ctx context.Context, state *domain.InvestigationState) *domain.InvestigationState {
	ctx, span := tracer.Start(ctx, nodeDirector)
	defer span.End()

	m.progress.Emit("node_start", nodeDirector, "", nil)
	state.Iteration++
	decision, next := m.director.Plan(ctx, state)
	next.LastDecision = decision
	next.AdvancePhase(decision.Phase)
	metrics.RecordNodeExecution(nodeDirector)
	m.log.Info("director decision",
		logging.InvestigationFields(next.InvestigationID, string(next.CurrentPhase), next.Iteration).
			Custom("next_action", string(decision.NextAction)).ToZap()...)
	m.progress.Emit("node", nodeDirector, decision.Reasoning, decision)
	return next
}

func (m *Machine) nodeFor(node string) Worker {
	switch node {
	case nodeWebResearch:
		return m.webResearch
	case nodeRiskAnalysis:
		return m.riskAnalysis
	case nodeConnectionMapping:
		return m.connectionMapping
	case nodeSourceVerification:
		return m.sourceVerification
	case nodeEntityResolution:
		return m.entityResolution
	case nodeTemporalAnalysis:
		return m.temporalAnalysis
	case nodeGraphPersist:
		return m.graphPersist
	case nodeGraphReasoning:
		return m.graphReasoning
	case nodeReportGeneration:
		return m.reportGeneration
	default:
		return nil
	}
}

func (m *Machine) runNode(ctx context.Context, step int, worker Worker, state *domain.InvestigationState) *domain.InvestigationState {
	ctx, span := tracer.Start(ctx, worker.Name())
	defer span.End()

	m.progress.Emit("node_start", worker.Name(), "", nil)
	m.debug.Snapshot(step, worker.Name(), "in", state)

	start := time.Now()
	next := worker.Run(ctx, state)
	metrics.RecordNodeExecution(worker.Name())

	m.debug.Snapshot(step, worker.Name(), "out", next)
	m.progress.Emit("node", worker.Name(), "", nil)
	if len(next.Entities) != len(state.Entities) {
		m.progress.Emit("entities_update", worker.Name(), "", len(next.Entities))
	}
	if len(next.RiskFlags) != len(state.RiskFlags) {
		m.progress.Emit("risks_update", worker.Name(), "", len(next.RiskFlags))
	}
	m.log.Debug("node executed",
		logging.NewFields().Component("engine").Operation(worker.Name()).Duration(time.Since(start)).ToZap()...)
	return next
}
