package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// viperManager implements Manager using Viper, with the literal
// environment variable names from §6 layered on top of viper's own
// PROCUREAGENT_-prefixed bindings.
type viperManager struct {
	configPath string
	config     *Config
	viper      *viper.Viper
	watchChan  chan Config
}

// Load loads configuration from all sources.
func (m *viperManager) Load(ctx context.Context) error {
	m.viper = viper.New()

	if m.configPath != "" {
		m.viper.SetConfigFile(m.configPath)
		m.viper.SetConfigType("yaml")
	}

	m.viper.SetEnvPrefix("PROCUREAGENT")
	m.viper.AutomaticEnv()
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	m.setDefaults()

	if m.configPath != "" {
		if err := m.viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				// optional file absent — defaults + environment only
			} else if os.IsNotExist(err) {
				// optional file absent — defaults + environment only
			} else {
				return fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	if err := m.unmarshalConfig(); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.applyLiteralEnvOverrides()

	return nil
}

// Get returns the current configuration.
func (m *viperManager) Get(ctx context.Context) *Config {
	return m.config
}

// Validate validates configuration is correct and complete.
func (m *viperManager) Validate(ctx context.Context) error {
	errs := m.config.Validate()
	if len(errs) > 0 {
		var errMsgs []string
		for _, err := range errs {
			errMsgs = append(errMsgs, err.Error())
		}
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errMsgs, "\n  - "))
	}
	return nil
}

// Watch watches the optional config file for changes and, on each
// reload, emits the new configuration on the returned channel. Callers
// typically use this to drive PolicyStore.Reload without a restart.
func (m *viperManager) Watch(ctx context.Context) <-chan Config {
	if m.configPath == "" {
		return m.watchChan
	}

	m.viper.WatchConfig()
	m.viper.OnConfigChange(func(e fsnotify.Event) {
		if err := m.unmarshalConfig(); err != nil {
			return
		}
		m.applyLiteralEnvOverrides()
		select {
		case m.watchChan <- *m.config:
		default:
			// channel full — drop this update, the next reload supersedes it
		}
	})

	return m.watchChan
}

// Reload reloads configuration from sources.
func (m *viperManager) Reload(ctx context.Context) error {
	if m.configPath != "" {
		if err := m.viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	if err := m.unmarshalConfig(); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.applyLiteralEnvOverrides()
	return nil
}

// setDefaults sets default values in viper so unset keys resolve to
// DefaultConfig() rather than the zero value.
func (m *viperManager) setDefaults() {
	d := DefaultConfig()

	m.viper.SetDefault("server.port", d.Server.Port)

	m.viper.SetDefault("llm.provider", d.LLM.Provider)
	m.viper.SetDefault("llm.host", d.LLM.Host)
	m.viper.SetDefault("llm.api_base", d.LLM.APIBase)
	m.viper.SetDefault("llm.api_key", d.LLM.APIKey)
	m.viper.SetDefault("llm.model", d.LLM.Model)

	m.viper.SetDefault("context_budget.total", d.ContextBudget.Total)
	m.viper.SetDefault("context_budget.policy_share", d.ContextBudget.PolicyShare)
	m.viper.SetDefault("context_budget.domain_share", d.ContextBudget.DomainShare)
	m.viper.SetDefault("context_budget.session_share", d.ContextBudget.SessionShare)
	m.viper.SetDefault("context_budget.ephemeral_share", d.ContextBudget.EphemeralShare)

	m.viper.SetDefault("workflow.variance_threshold", d.Workflow.VarianceThreshold)
	m.viper.SetDefault("workflow.auto_revision_enabled", d.Workflow.AutoRevisionEnabled)
	m.viper.SetDefault("workflow.audit_logging_enabled", d.Workflow.AuditLoggingEnabled)

	m.viper.SetDefault("logging.level", d.Logging.Level)
	m.viper.SetDefault("logging.format", d.Logging.Format)
}

// unmarshalConfig reads the YAML-file-backed viper keys into Config. The
// literal §6 environment variable names are layered on top afterward by
// applyLiteralEnvOverrides since they don't follow viper's dotted-key
// convention.
func (m *viperManager) unmarshalConfig() error {
	cfg := DefaultConfig()

	cfg.Server.Port = m.viper.GetInt("server.port")

	cfg.LLM.Provider = m.viper.GetString("llm.provider")
	cfg.LLM.Host = m.viper.GetString("llm.host")
	cfg.LLM.APIBase = m.viper.GetString("llm.api_base")
	cfg.LLM.APIKey = m.viper.GetString("llm.api_key")
	cfg.LLM.Model = m.viper.GetString("llm.model")

	cfg.ContextBudget.Total = m.viper.GetInt("context_budget.total")
	cfg.ContextBudget.PolicyShare = m.viper.GetFloat64("context_budget.policy_share")
	cfg.ContextBudget.DomainShare = m.viper.GetFloat64("context_budget.domain_share")
	cfg.ContextBudget.SessionShare = m.viper.GetFloat64("context_budget.session_share")
	cfg.ContextBudget.EphemeralShare = m.viper.GetFloat64("context_budget.ephemeral_share")

	cfg.Policy.ProhibitedClauses = splitCSV(m.viper.GetString("policy.prohibited_clauses"))
	cfg.Policy.RequiredClauses = splitCSV(m.viper.GetString("policy.required_clauses"))
	cfg.Policy.BudgetThresholds = defaultBudgetThresholds()
	if v := m.viper.GetString("policy.budget_thresholds"); v != "" {
		if parsed, ok := parseBudgetThresholds(v); ok {
			cfg.Policy.BudgetThresholds = parsed
		}
	}

	cfg.Workflow.VarianceThreshold = m.viper.GetFloat64("workflow.variance_threshold")
	cfg.Workflow.AutoRevisionEnabled = m.viper.GetBool("workflow.auto_revision_enabled")
	cfg.Workflow.AuditLoggingEnabled = m.viper.GetBool("workflow.audit_logging_enabled")

	cfg.Logging.Level = m.viper.GetString("logging.level")
	cfg.Logging.Format = m.viper.GetString("logging.format")

	m.config = cfg
	return nil
}

// applyLiteralEnvOverrides applies the literal environment variable names
// the external-interfaces spec requires, which viper's automatic env
// binding (PROCUREAGENT_*) would not pick up on its own.
func (m *viperManager) applyLiteralEnvOverrides() {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		m.config.LLM.Provider = v
	}
	if v := os.Getenv("LLM_HOST"); v != "" {
		m.config.LLM.Host = v
	}
	if v := os.Getenv("LLM_API_BASE"); v != "" {
		m.config.LLM.APIBase = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		m.config.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		m.config.LLM.Model = v
	}

	if v := os.Getenv("CONTEXT_BUDGET_TOTAL"); v != "" {
		if total, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && total > 0 {
			m.config.ContextBudget.Total = total
		}
	}

	if v := os.Getenv("PROHIBITED_CLAUSES"); v != "" {
		m.config.Policy.ProhibitedClauses = splitCSV(v)
	}
	if v := os.Getenv("REQUIRED_CLAUSES"); v != "" {
		m.config.Policy.RequiredClauses = splitCSV(v)
	}

	if v := os.Getenv("BUDGET_THRESHOLDS"); v != "" {
		if parsed, ok := parseBudgetThresholds(v); ok {
			m.config.Policy.BudgetThresholds = parsed
		} else {
			m.config.Policy.BudgetThresholds = defaultBudgetThresholds()
		}
	}

	if v := os.Getenv("VARIANCE_THRESHOLD"); v != "" {
		if threshold, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			m.config.Workflow.VarianceThreshold = threshold
		}
	}
	if v := os.Getenv("AUTO_REVISION_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			m.config.Workflow.AutoRevisionEnabled = enabled
		}
	}
	if v := os.Getenv("AUDIT_LOGGING_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			m.config.Workflow.AuditLoggingEnabled = enabled
		}
	}
}

// splitCSV splits a comma-separated list, trimming whitespace and
// dropping empty entries.
func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseBudgetThresholds parses a comma-separated "category:amount" list,
// tolerant of trailing punctuation on each entry (e.g. a trailing
// semicolon or period). It reports ok=false if no entry parsed, signaling
// the caller should fall back to defaultBudgetThresholds().
func parseBudgetThresholds(v string) (map[string]float64, bool) {
	out := make(map[string]float64)
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		part = strings.TrimRight(part, ".;!? ")
		if part == "" {
			continue
		}
		idx := strings.LastIndex(part, ":")
		if idx < 0 {
			continue
		}
		category := strings.ToLower(strings.TrimSpace(part[:idx]))
		amountStr := strings.TrimSpace(part[idx+1:])
		amount, err := strconv.ParseFloat(amountStr, 64)
		if category == "" || err != nil {
			continue
		}
		out[category] = amount
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}
