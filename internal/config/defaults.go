package config

// DefaultConfig returns a configuration with all default values, matching
// the fallback behavior §6 specifies for every recognized key.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Port = 8081

	cfg.LLM.Provider = "mock"
	cfg.LLM.Host = "http://localhost:11434"
	cfg.LLM.APIBase = ""
	cfg.LLM.APIKey = ""
	cfg.LLM.Model = ""

	cfg.ContextBudget.Total = 2000
	cfg.ContextBudget.PolicyShare = 0.25
	cfg.ContextBudget.DomainShare = 0.25
	cfg.ContextBudget.SessionShare = 0.40
	cfg.ContextBudget.EphemeralShare = 0.10

	cfg.Policy.ProhibitedClauses = nil // nil selects the built-in catalog
	cfg.Policy.RequiredClauses = nil
	cfg.Policy.BudgetThresholds = defaultBudgetThresholds()

	cfg.Workflow.VarianceThreshold = 0.15
	cfg.Workflow.AutoRevisionEnabled = true
	cfg.Workflow.AuditLoggingEnabled = true

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	return cfg
}

// defaultBudgetThresholds is the fallback per-category spend threshold
// table used when BUDGET_THRESHOLDS is unset or fails to parse.
func defaultBudgetThresholds() map[string]float64 {
	return map[string]float64{
		"software": 50000,
		"hardware": 100000,
		"services": 25000,
	}
}
