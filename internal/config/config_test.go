package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, 2000, cfg.ContextBudget.Total)
	assert.InDelta(t, 1.0, cfg.ContextBudget.PolicyShare+cfg.ContextBudget.DomainShare+
		cfg.ContextBudget.SessionShare+cfg.ContextBudget.EphemeralShare, shareTolerance)
	assert.Equal(t, 0.15, cfg.Workflow.VarianceThreshold)
	assert.True(t, cfg.Workflow.AutoRevisionEnabled)
	assert.True(t, cfg.Workflow.AuditLoggingEnabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 50000.0, cfg.Policy.BudgetThresholds["software"])
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name      string
		modifyFn  func(*Config)
		wantError bool
		errorMsg  string
	}{
		{name: "valid default config", modifyFn: func(cfg *Config) {}, wantError: false},
		{
			name:      "invalid port too low",
			modifyFn:  func(cfg *Config) { cfg.Server.Port = 0 },
			wantError: true,
			errorMsg:  "port must be between 1 and 65535",
		},
		{
			name:      "invalid port too high",
			modifyFn:  func(cfg *Config) { cfg.Server.Port = 70000 },
			wantError: true,
			errorMsg:  "port must be between 1 and 65535",
		},
		{
			name:      "invalid LLM provider",
			modifyFn:  func(cfg *Config) { cfg.LLM.Provider = "invalid" },
			wantError: true,
			errorMsg:  "invalid provider",
		},
		{
			name: "missing API key for non-mock non-ollama provider",
			modifyFn: func(cfg *Config) {
				cfg.LLM.Provider = "openai"
				cfg.LLM.APIKey = ""
			},
			wantError: true,
			errorMsg:  "API key is required",
		},
		{
			name: "shares not summing to 1.0",
			modifyFn: func(cfg *Config) {
				cfg.ContextBudget.PolicyShare = 0.5
			},
			wantError: true,
			errorMsg:  "must sum to 1.0",
		},
		{
			name:      "variance threshold out of range",
			modifyFn:  func(cfg *Config) { cfg.Workflow.VarianceThreshold = 1.5 },
			wantError: true,
			errorMsg:  "variance_threshold must be in",
		},
		{
			name:      "invalid log level",
			modifyFn:  func(cfg *Config) { cfg.Logging.Level = "invalid" },
			wantError: true,
			errorMsg:  "invalid log level",
		},
		{
			name:      "invalid log format",
			modifyFn:  func(cfg *Config) { cfg.Logging.Format = "invalid" },
			wantError: true,
			errorMsg:  "invalid log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modifyFn(cfg)

			errs := cfg.Validate()

			if tt.wantError {
				require.NotEmpty(t, errs, "expected validation errors but got none")
				found := false
				for _, err := range errs {
					if strContains(err.Error(), tt.errorMsg) {
						found = true
					}
				}
				assert.True(t, found, "expected error message containing %q, got: %v", tt.errorMsg, errs)
			} else {
				assert.Empty(t, errs, "expected no validation errors but got: %v", errs)
			}
		})
	}
}

func TestManagerLoadFromYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090

llm:
  provider: "anthropic"
  api_key: "test-key"
  model: "claude-3-5-sonnet-20241022"

context_budget:
  total: 4000

logging:
  level: "debug"
  format: "text"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	mgr, err := NewManager(configPath)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, mgr.Load(ctx))

	cfg := mgr.Get(ctx)
	require.NotNil(t, cfg)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "test-key", cfg.LLM.APIKey)
	assert.Equal(t, 4000, cfg.ContextBudget.Total)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestManagerLiteralEnvOverrides(t *testing.T) {
	os.Setenv("LLM_PROVIDER", "ollama")
	os.Setenv("CONTEXT_BUDGET_TOTAL", "3000")
	os.Setenv("PROHIBITED_CLAUSES", "custom clause, another clause")
	os.Setenv("BUDGET_THRESHOLDS", "software:75000, hardware:125000;")
	os.Setenv("VARIANCE_THRESHOLD", "0.2")
	defer func() {
		os.Unsetenv("LLM_PROVIDER")
		os.Unsetenv("CONTEXT_BUDGET_TOTAL")
		os.Unsetenv("PROHIBITED_CLAUSES")
		os.Unsetenv("BUDGET_THRESHOLDS")
		os.Unsetenv("VARIANCE_THRESHOLD")
	}()

	mgr, err := NewManagerWithDefaults()
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, mgr.Load(ctx))

	cfg := mgr.Get(ctx)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, 3000, cfg.ContextBudget.Total)
	assert.Equal(t, []string{"custom clause", "another clause"}, cfg.Policy.ProhibitedClauses)
	assert.Equal(t, 75000.0, cfg.Policy.BudgetThresholds["software"])
	assert.Equal(t, 125000.0, cfg.Policy.BudgetThresholds["hardware"])
	assert.Equal(t, 0.2, cfg.Workflow.VarianceThreshold)
}

func TestManagerBudgetThresholdsFallBackOnParseFailure(t *testing.T) {
	os.Setenv("BUDGET_THRESHOLDS", "not-a-valid-entry")
	defer os.Unsetenv("BUDGET_THRESHOLDS")

	mgr, err := NewManagerWithDefaults()
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, mgr.Load(ctx))

	cfg := mgr.Get(ctx)
	assert.Equal(t, defaultBudgetThresholds(), cfg.Policy.BudgetThresholds)
}

func TestManagerMissingFileUsesDefaults(t *testing.T) {
	mgr, err := NewManager(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, mgr.Load(ctx))

	cfg := mgr.Get(ctx)
	assert.Equal(t, 8081, cfg.Server.Port)
}

func TestManagerValidateSurfacesConfigErrors(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  port: 99999\nllm:\n  provider: invalid\n"), 0644))

	mgr, err := NewManager(configPath)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, mgr.Load(ctx))

	err = mgr.Validate(ctx)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}

func strContains(s, substr string) bool {
	return len(substr) == 0 || (len(s) >= len(substr) && indexOf(s, substr) >= 0)
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
