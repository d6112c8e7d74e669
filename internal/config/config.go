// Package config provides configuration management for the procurement
// orchestration service.
//
// Responsibilities:
//   - Load configuration from an optional YAML file and environment
//     variables
//   - Validate configuration on startup
//   - Provide runtime access to all configuration
//   - Support configuration reloading (policy catalogs and thresholds)
//   - Establish reasonable defaults
//
// Configuration Sources (priority order, high to low):
//  1. Environment variables — both the PROCUREAGENT_* prefixed form and
//     the literal keys named in the external-interfaces spec (LLM_PROVIDER,
//     CONTEXT_BUDGET_TOTAL, PROHIBITED_CLAUSES, REQUIRED_CLAUSES,
//     BUDGET_THRESHOLDS, VARIANCE_THRESHOLD, AUTO_REVISION_ENABLED,
//     AUDIT_LOGGING_ENABLED)
//  2. YAML config file (optional; no default path)
//  3. Built-in defaults (lowest priority)
//
// Main Configuration Sections:
//
//  1. LLM Provider
//     - provider: "ollama" | "openai" | "anthropic" | "mock"
//     - host / api_base / api_key / model: per provider
//
//  2. Context Budget
//     - total: total token budget (default 2000)
//     - per-layer shares, validated to sum to 1.0 ± 0.001
//
//  3. Policy
//     - prohibited_clauses / required_clauses: comma-separated canonical phrases
//     - budget_thresholds: comma-separated category:amount pairs, tolerant
//       of trailing punctuation; falls back to built-in defaults on parse
//       failure
//
//  4. Workflow
//     - variance_threshold (default 0.15)
//     - auto_revision_enabled, audit_logging_enabled
//
//  5. Logging
//     - level: "debug" | "info" | "warn" | "error"
//     - format: "json" | "text"
package config

import "context"

// Config is the fully resolved configuration for the service.
type Config struct {
	// Server records the port the (externally-owned) HTTP transport would
	// bind, for documentation parity with the httpapi package.
	Server struct {
		Port int
	}

	// LLM selects and configures the model-provider client.
	LLM struct {
		Provider string // ollama | openai | anthropic | mock
		Host     string
		APIBase  string
		APIKey   string
		Model    string
	}

	// ContextBudget configures the four-layer context budget (§3, §4.3).
	ContextBudget struct {
		Total          int
		PolicyShare    float64
		DomainShare    float64
		SessionShare   float64
		EphemeralShare float64
	}

	// Policy configures the Policy Store's catalogs and thresholds (§4.2, §6).
	Policy struct {
		ProhibitedClauses []string
		RequiredClauses   []string
		BudgetThresholds  map[string]float64
	}

	// Workflow configures orchestration-wide behavior (§4.5, §5).
	Workflow struct {
		VarianceThreshold   float64
		AutoRevisionEnabled bool
		AuditLoggingEnabled bool
	}

	// Logging configures the zap-backed app/audit loggers.
	Logging struct {
		Level  string
		Format string
	}
}

// Manager defines the interface for configuration access.
type Manager interface {
	// Load loads configuration from all sources.
	Load(ctx context.Context) error

	// Get returns the current configuration.
	Get(ctx context.Context) *Config

	// Validate validates configuration is correct and complete.
	Validate(ctx context.Context) error

	// Watch watches for configuration changes and emits the reloaded
	// configuration on the returned channel.
	Watch(ctx context.Context) <-chan Config

	// Reload reloads configuration from sources (environment + file).
	Reload(ctx context.Context) error
}

// NewManager creates a new configuration manager reading the optional YAML
// file at configPath in addition to environment variables and defaults. An
// empty configPath skips the file source entirely.
func NewManager(configPath string) (Manager, error) {
	mgr := &viperManager{
		configPath: configPath,
		config:     DefaultConfig(),
		watchChan:  make(chan Config, 1),
	}
	return mgr, nil
}

// NewManagerWithDefaults creates a config manager with no YAML file,
// relying on environment variables and defaults only.
func NewManagerWithDefaults() (Manager, error) {
	return NewManager("")
}
