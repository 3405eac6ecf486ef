package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deepresearch/investigator/internal/config"
	internalerrors "github.com/deepresearch/investigator/internal/errors"
	"github.com/deepresearch/investigator/pkg/agents"
	"github.com/deepresearch/investigator/pkg/ai/llm"
	"github.com/deepresearch/investigator/pkg/domain"
	"github.com/deepresearch/investigator/pkg/engine"
	"github.com/deepresearch/investigator/pkg/graphstore"
	"github.com/deepresearch/investigator/pkg/metrics"
	"github.com/deepresearch/investigator/pkg/pii"
	"github.com/deepresearch/investigator/pkg/report"
	"github.com/deepresearch/investigator/pkg/search"
	"github.com/deepresearch/investigator/pkg/search/ratelimit"
)

var (
	flagRole       string
	flagOrg        string
	flagMaxIter    int
	flagBudget     float64
	flagOutput     string
	flagLive       bool
	flagResume     string
	flagRedactPII  bool
)

var investigateCmd = &cobra.Command{
	Use:   "investigate <name>",
	Short: "Run an autonomous due-diligence investigation on a named subject",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvestigate,
}

func init() {
	investigateCmd.Flags().StringVar(&flagRole, "role", "", "The subject's role/title")
	investigateCmd.Flags().StringVar(&flagOrg, "org", "", "The subject's organization")
	investigateCmd.Flags().IntVar(&flagMaxIter, "max-iter", 0, "Override the configured max iterations (0 = use config)")
	investigateCmd.Flags().Float64Var(&flagBudget, "budget", 0, "Override the configured cost budget in USD (0 = use config)")
	investigateCmd.Flags().StringVar(&flagOutput, "output", "output", "Directory to write per-run output files to")
	investigateCmd.Flags().BoolVar(&flagLive, "live", false, "Render phase/stats/elapsed/cost as the investigation runs")
	investigateCmd.Flags().StringVar(&flagResume, "resume", "", "Resume a previously checkpointed run by subject slug")
	investigateCmd.Flags().BoolVar(&flagRedactPII, "redact-pii", false, "Always write a PII-redacted sibling report")
}

func runInvestigate(cmd *cobra.Command, args []string) error {
	subjectName := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfigOrDefaults(configPath)
	if err != nil {
		return err
	}
	if flagMaxIter > 0 {
		cfg.Agent.MaxIterations = flagMaxIter
	}
	if flagBudget > 0 {
		cfg.Agent.CostBudgetUSD = flagBudget
	}

	if err := os.MkdirAll(flagOutput, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	gateway, err := buildGateway(cfg)
	if err != nil {
		return err
	}

	httpClient := &http.Client{Timeout: cfg.Search.RequestTimeout}
	primary, fallback := search.NewProviders(cfg.Search.PrimaryProviderKey, httpClient)
	policies, err := config.LoadPolicies(cfg.Policies)
	if err != nil {
		return err
	}
	overrides := make(map[string]ratelimit.DomainOverride, len(policies.DomainPolicies))
	for _, p := range policies.DomainPolicies {
		overrides[p.Domain] = ratelimit.DomainOverride{RequestsPerSecond: p.RequestsPerSecond, Concurrent: int64(p.Concurrent)}
	}
	limiter := ratelimit.New(overrides)
	fetcher := search.NewFetcher(search.FetcherConfig{
		HTTPClient:              httpClient,
		Limiter:                 limiter,
		EnableStructuredBrowser: cfg.Search.EnableStructuredBrowser,
		BrowserTimeout:          cfg.Search.BrowserTierTimeout,
		SECContactEmail:         cfg.Search.SECContactEmail,
	})
	researcher := search.NewResearcher(primary, fallback, fetcher, cfg.Search.ResultCap)

	var graphClient *graphstore.Client
	if cfg.Graph.Enabled && cfg.Agent.EnableGraph {
		graphClient, err = graphstore.NewClient(graphstore.ClientConfig{
			URI:      cfg.Graph.URI,
			Username: cfg.Graph.Username,
			Password: cfg.Graph.Password,
			Database: cfg.Graph.Database,
		})
		if err != nil {
			logger.Warn("graph store unavailable, continuing without persistence", zap.Error(err))
			graphClient = nil
		} else {
			defer graphClient.Close(ctx)
		}
	}

	progressPath := filepath.Join(flagOutput, engine.Slug(subjectName)+"_progress.jsonl")
	progressFile, err := os.Create(progressPath)
	if err != nil {
		return fmt.Errorf("create progress file: %w", err)
	}
	defer progressFile.Close()
	progressWriter := engine.NewProgressWriter(progressFile)

	var debugDir string
	if debugFlag {
		debugDir = filepath.Join(flagOutput, "debug")
	}

	machine, err := engine.NewMachine(engine.Dependencies{
		Gateway:          gateway,
		Researcher:       researcher,
		GraphClient:      graphClient,
		FactExtractor:    agents.NewFactExtractor(gateway),
		RiskAnalyzer:     agents.NewRiskAnalyzer(gateway),
		ConnectionMapper: agents.NewConnectionMapper(gateway),
		SourceVerifier:   agents.NewSourceVerifier(gateway),
		EntityResolver:   agents.NewEntityResolver(gateway),
		TemporalAnalyzer: agents.NewTemporalAnalyzer(gateway),
		ReportGenerator:  agents.NewReportGenerator(gateway),
		CheckpointDir:    filepath.Join(flagOutput, "checkpoints"),
		DebugDir:         debugDir,
		Progress:         progressWriter,
		Logger:           logger,
		DirectorLookback: cfg.Agent.DiminishingReturnsLookback,
		DirectorMinNew:   cfg.Agent.DiminishingReturnsMinNew,
	})
	if err != nil {
		return fmt.Errorf("wire engine: %w", err)
	}

	var metricsServer *metrics.Server
	if cfg.Observability.MetricsEnabled {
		metricsServer = metrics.NewServer(cfg.Observability.MetricsPort, logger)
		metricsServer.StartAsync()
		defer metricsServer.Stop(ctx)
	}

	state := loadOrInitState(flagResume, subjectName, cfg)

	var liveStop func()
	if flagLive {
		liveStop = startLiveRenderer(progressPath)
		defer liveStop()
	}

	start := time.Now()
	final := machine.Run(ctx, state)
	duration := time.Since(start)

	final = pii.New().RedactReport(final)

	if err := writeOutputs(flagOutput, final, duration); err != nil {
		return err
	}

	fmt.Printf("investigation complete: %s\n", subjectName)
	fmt.Printf("  termination: %s\n", final.TerminationReason)
	fmt.Printf("  iterations: %d, entities: %d, connections: %d, risk flags: %d\n",
		final.Iteration, len(final.Entities), len(final.Connections), len(final.RiskFlags))
	fmt.Printf("  estimated cost: $%.4f\n", final.EstimatedCostUSD)
	fmt.Printf("  output: %s\n", flagOutput)

	return nil
}

// loadConfigOrDefaults loads path if present; a missing config file is not
// an error for the CLI, but a
// present, malformed one is.
func loadConfigOrDefaults(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		empty, writeErr := os.CreateTemp("", "investigator-defaults-*.yaml")
		if writeErr != nil {
			return nil, fmt.Errorf("prepare default config: %w", writeErr)
		}
		defer os.Remove(empty.Name())
		empty.Close()
		return config.Load(empty.Name())
	}
	return config.Load(path)
}

// buildGateway wires one Backend per provider with a configured credential
// (or all three against the proxy endpoint in proxy mode), then constructs
// the Gateway with the configured cost budget, per-tier model names, and
// the task->tier overrides from the model-routing policy file.
func buildGateway(cfg *config.Config) (*llm.Gateway, error) {
	backends := map[llm.Provider]llm.Backend{}

	if cfg.LLM.ProxyBaseURL != "" {
		for _, provider := range []llm.Provider{llm.ProviderClaude, llm.ProviderOpenAI, llm.ProviderGemini} {
			model := cfg.LLM.DeepModel[string(provider)]
			backend, err := llm.NewOpenAIBackend(cfg.LLM.ProxyAPIKey, cfg.LLM.ProxyBaseURL, model)
			if err != nil {
				return nil, fmt.Errorf("proxy backend for %s: %w", provider, err)
			}
			backends[provider] = backend
		}
	} else {
		if cfg.LLM.ClaudeAPIKey != "" {
			backends[llm.ProviderClaude] = llm.NewClaudeBackend(cfg.LLM.ClaudeAPIKey)
		}
		if cfg.LLM.OpenAIAPIKey != "" {
			model := cfg.LLM.FastModel["openai"]
			backend, err := llm.NewOpenAIBackend(cfg.LLM.OpenAIAPIKey, "", model)
			if err != nil {
				return nil, fmt.Errorf("openai backend: %w", err)
			}
			backends[llm.ProviderOpenAI] = backend
		}
		if cfg.LLM.GeminiAPIKey != "" {
			backend, err := llm.NewGeminiBackend(context.Background(), cfg.LLM.GeminiAPIKey)
			if err != nil {
				return nil, fmt.Errorf("gemini backend: %w", err)
			}
			backends[llm.ProviderGemini] = backend
		}
	}

	if len(backends) == 0 {
		return nil, internalerrors.NewAuthError("no LLM provider credentials configured")
	}

	gateway := llm.NewGateway(backends, cfg.Agent.CostBudgetUSD)
	if model, ok := cfg.LLM.DeepModel["claude"]; ok {
		gateway.SetModelForTier(llm.TierDeep, model)
	}
	if model, ok := cfg.LLM.FastModel["openai"]; ok {
		gateway.SetModelForTier(llm.TierFast, model)
	}
	policies, err := config.LoadPolicies(cfg.Policies)
	if err != nil {
		return nil, err
	}
	for _, entry := range policies.ModelRouting {
		gateway.SetRoute(llm.TaskRole(entry.Task), llm.Tier(entry.Tier))
	}
	return gateway, nil
}

// loadOrInitState resumes a checkpointed run by slug when --resume was
// given and a checkpoint exists, otherwise seeds a fresh InvestigationState.
func loadOrInitState(resumeSlug, subjectName string, cfg *config.Config) *domain.InvestigationState {
	if resumeSlug != "" {
		checkpointer, err := engine.NewCheckpointer(filepath.Join(flagOutput, "checkpoints"))
		if err == nil {
			if state, found, loadErr := checkpointer.Load(resumeSlug); loadErr == nil && found {
				return state
			}
		}
	}
	subject := domain.Subject{
		FullName:     subjectName,
		Role:         flagRole,
		Organization: flagOrg,
	}
	return domain.NewInvestigationState(uuid.NewString(), subject, cfg.Agent.MaxIterations, cfg.Agent.FuzzyDedupThreshold)
}

// writeOutputs writes every per-run file named in under outDir,
// keyed by the subject's slug.
func writeOutputs(outDir string, state *domain.InvestigationState, duration time.Duration) error {
	slug := engine.Slug(state.Subject.FullName)

	stateData, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, slug+"_state.json"), stateData, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}

	reportText := state.FinalReport
	if reportText == "" {
		reportText = report.Fallback(state)
	}
	if err := os.WriteFile(filepath.Join(outDir, slug+"_report.md"), []byte(reportText), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if flagRedactPII || len(state.PIIAnnotations) > 0 {
		if err := os.WriteFile(filepath.Join(outDir, slug+"_report_redacted.md"), []byte(state.RedactedReport), 0o644); err != nil {
			return fmt.Errorf("write redacted report: %w", err)
		}
	}

	entitiesData, err := json.MarshalIndent(state.Entities, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal entities: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, slug+"_entities.json"), entitiesData, 0o644); err != nil {
		return fmt.Errorf("write entities: %w", err)
	}

	runID := slug + "-" + state.InvestigationID
	metadata := engine.BuildRunMetadata(runID, state, duration)
	if err := metadata.WriteJSON(filepath.Join(outDir, slug+"_metadata.json")); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	return nil
}
