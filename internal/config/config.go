// Package config loads the investigator's environment-driven configuration:
// a YAML file read at startup with environment-variable overrides applied
// afterward, in a Load/validate/loadFromEnv three-function shape.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	sharederrors "github.com/deepresearch/investigator/pkg/shared/errors"
)

var structValidator = validator.New()

// LLMConfig covers provider API keys, model identifiers per tier, and the
// optional OpenAI-compatible proxy mode.
type LLMConfig struct {
	ClaudeAPIKey string `yaml:"claude_api_key"`
	OpenAIAPIKey string `yaml:"openai_api_key"`
	GeminiAPIKey string `yaml:"gemini_api_key"`

	DeepModel map[string]string `yaml:"deep_model"` // provider -> model id
	FastModel map[string]string `yaml:"fast_model"`

	Temperature float32       `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int           `yaml:"max_tokens" validate:"gt=0"`
	Timeout     time.Duration `yaml:"timeout"`

	ProxyBaseURL string `yaml:"proxy_base_url"`
	ProxyAPIKey  string `yaml:"proxy_api_key"`

	CostBudgetUSD float64 `yaml:"cost_budget_usd"`
}

// SearchConfig covers search-provider keys and fetch-tier tuning.
type SearchConfig struct {
	PrimaryProviderKey  string        `yaml:"primary_provider_key"`
	FallbackProviderKey string        `yaml:"fallback_provider_key"`
	ResultCap           int           `yaml:"result_cap" validate:"gt=0"`
	RequestTimeout      time.Duration `yaml:"request_timeout"`
	BrowserTierTimeout  time.Duration `yaml:"browser_tier_timeout"`
	SECContactEmail     string        `yaml:"sec_contact_email"`
	EnableStructuredBrowser bool      `yaml:"enable_structured_browser"`
}

// GraphConfig covers the Neo4j driver connection.
type GraphConfig struct {
	URI      string `yaml:"uri" validate:"required_if=Enabled true"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Enabled  bool   `yaml:"enabled"`
}

// AgentConfig covers Director/engine tuning knobs.
type AgentConfig struct {
	MaxIterations             int     `yaml:"max_iterations" validate:"gt=0"`
	ConfidenceThreshold       float64 `yaml:"confidence_threshold" validate:"gte=0,lte=1"`
	CostBudgetUSD             float64 `yaml:"cost_budget_usd" validate:"gte=0"` // 0 = unlimited
	FuzzyDedupThreshold       float64 `yaml:"fuzzy_dedup_threshold" validate:"gte=0,lte=1"`
	DiminishingReturnsLookback int    `yaml:"diminishing_returns_lookback" validate:"gt=0"`
	DiminishingReturnsMinNew  int     `yaml:"diminishing_returns_min_new"`
	EnableGraph               bool    `yaml:"enable_graph"`
	EnableAdversarial         bool    `yaml:"enable_adversarial"`
}

// ObservabilityConfig covers metrics/tracing/logging toggles.
type ObservabilityConfig struct {
	MetricsEnabled bool   `yaml:"metrics_enabled"`
	MetricsPort    string `yaml:"metrics_port"`
	TracingEnabled bool   `yaml:"tracing_enabled"`
	LogLevel       string `yaml:"log_level"`
}

// PolicyPaths points at the YAML policy files under config/ :
// source-authority overrides, per-host rate-limit policies, the
// task->tier model-routing table, and the risk-category list.
type PolicyPaths struct {
	SourceAuthority string `yaml:"source_authority"`
	DomainPolicies  string `yaml:"domain_policies"`
	ModelRouting    string `yaml:"model_routing"`
	RiskCategories  string `yaml:"risk_categories"`
}

// Config is the root configuration object returned by Load.
type Config struct {
	LLM           LLMConfig           `yaml:"llm"`
	Search        SearchConfig        `yaml:"search"`
	Graph         GraphConfig         `yaml:"graph"`
	Agent         AgentConfig         `yaml:"agent"`
	Observability ObservabilityConfig `yaml:"observability"`
	Policies      PolicyPaths         `yaml:"policies"`
}

// defaults returns the baseline Config applied before the YAML file and env
// overrides are layered on, so a minimal or empty config file still loads
// with usable defaults.
func defaults() *Config {
	return &Config{
		LLM: LLMConfig{
			DeepModel: map[string]string{
				"claude": "claude-opus-4-5",
				"openai": "o3",
				"gemini": "gemini-2.5-pro",
			},
			FastModel: map[string]string{
				"claude": "claude-haiku-4-5",
				"openai": "gpt-4o-mini",
				"gemini": "gemini-2.5-flash",
			},
			Temperature: 0.2,
			MaxTokens:   4096,
			Timeout:     60 * time.Second,
		},
		Search: SearchConfig{
			ResultCap:          10,
			RequestTimeout:     30 * time.Second,
			BrowserTierTimeout: 45 * time.Second,
		},
		Graph: GraphConfig{
			Database: "neo4j",
		},
		Agent: AgentConfig{
			MaxIterations:              15,
			ConfidenceThreshold:        0.6,
			FuzzyDedupThreshold:        0.88,
			DiminishingReturnsLookback: 2,
			DiminishingReturnsMinNew:   2,
			EnableGraph:                true,
			EnableAdversarial:          true,
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: true,
			MetricsPort:    "9090",
			LogLevel:       "info",
		},
		Policies: PolicyPaths{
			SourceAuthority: "config/source_authority.yaml",
			DomainPolicies:  "config/domain_policies.yaml",
			ModelRouting:    "config/model_routing.yaml",
			RiskCategories:  "config/risk_categories.yaml",
		},
	}
}

// Load reads the YAML file at path, layers environment overrides on top,
// validates the result, and returns it.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", sharederrors.ParseError(path, "yaml", err))
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromEnv applies environment-variable overrides on top of whatever was
// loaded from the YAML file. Unset variables leave cfg untouched.
func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.LLM.ClaudeAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.OpenAIAPIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.LLM.GeminiAPIKey = v
	}
	if v := os.Getenv("LLM_PROXY_BASE_URL"); v != "" {
		cfg.LLM.ProxyBaseURL = v
	}
	if v := os.Getenv("LLM_PROXY_API_KEY"); v != "" {
		cfg.LLM.ProxyAPIKey = v
	}
	if v := os.Getenv("LLM_COST_BUDGET_USD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("LLM_COST_BUDGET_USD: %w", err)
		}
		cfg.Agent.CostBudgetUSD = f
	}
	if v := os.Getenv("SEARCH_PRIMARY_KEY"); v != "" {
		cfg.Search.PrimaryProviderKey = v
	}
	if v := os.Getenv("SEARCH_FALLBACK_KEY"); v != "" {
		cfg.Search.FallbackProviderKey = v
	}
	if v := os.Getenv("SEC_CONTACT_EMAIL"); v != "" {
		cfg.Search.SECContactEmail = v
	}
	if v := os.Getenv("NEO4J_URI"); v != "" {
		cfg.Graph.URI = v
	}
	if v := os.Getenv("NEO4J_USERNAME"); v != "" {
		cfg.Graph.Username = v
	}
	if v := os.Getenv("NEO4J_PASSWORD"); v != "" {
		cfg.Graph.Password = v
	}
	if v := os.Getenv("AGENT_MAX_ITERATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AGENT_MAX_ITERATIONS: %w", err)
		}
		cfg.Agent.MaxIterations = n
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("METRICS_PORT"); v != "" {
		cfg.Observability.MetricsPort = v
	}
	return nil
}

var validTier = map[string]bool{"deep": true, "fast": true}

// validate enforces required fields, numeric ranges, and enum membership
// across the loaded config. Each field-level constraint is also declared as
// a struct tag (see the struct definitions above); validate checks them
// by hand first so callers get a specific, field-named error message, then
// runs the struct validator as a second pass to catch anything a future
// field addition declares a tag for but this function doesn't yet check.
func validate(cfg *Config) error {
	if cfg.Agent.MaxIterations <= 0 {
		return fmt.Errorf("agent max_iterations must be greater than 0")
	}
	if cfg.Agent.CostBudgetUSD < 0 {
		return fmt.Errorf("agent cost_budget_usd must be >= 0 (0 means unlimited)")
	}
	if cfg.Agent.FuzzyDedupThreshold < 0 || cfg.Agent.FuzzyDedupThreshold > 1 {
		return fmt.Errorf("agent fuzzy_dedup_threshold must be between 0.0 and 1.0")
	}
	if cfg.Agent.DiminishingReturnsLookback <= 0 {
		return fmt.Errorf("agent diminishing_returns_lookback must be greater than 0")
	}
	if cfg.Agent.ConfidenceThreshold < 0 || cfg.Agent.ConfidenceThreshold > 1 {
		return fmt.Errorf("agent confidence_threshold must be between 0.0 and 1.0")
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return fmt.Errorf("llm temperature must be between 0.0 and 2.0")
	}
	if cfg.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm max_tokens must be greater than 0")
	}
	if cfg.LLM.ProxyBaseURL != "" && isLocalBaseURL(cfg.LLM.ProxyBaseURL) {
		return fmt.Errorf("llm proxy_base_url must not be a local address in a deployed environment")
	}
	if cfg.Search.ResultCap <= 0 {
		return fmt.Errorf("search result_cap must be greater than 0")
	}
	if cfg.Graph.Enabled && cfg.Graph.URI == "" {
		return fmt.Errorf("graph uri is required when graph persistence is enabled")
	}
	if err := structValidator.Struct(cfg); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}

// isLocalBaseURL reports whether url points at loopback/localhost, rejected
// for the LLM gateway's proxy mode outside of local development.
func isLocalBaseURL(url string) bool {
	for _, prefix := range []string{
		"http://localhost", "https://localhost",
		"http://127.0.0.1", "https://127.0.0.1",
		"http://0.0.0.0", "https://0.0.0.0",
		"http://[::1]", "https://[::1]",
	} {
		if len(url) >= len(prefix) && url[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}
