package config

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/multierr"
)

// ValidationError represents a single configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

// shareTolerance is the allowed drift of the four layer shares from
// summing to exactly 1.0 (§3: "validated to sum to 1.0 ± 0.001").
const shareTolerance = 0.001

var validLLMProviders = map[string]bool{
	"ollama":    true,
	"openai":    true,
	"anthropic": true,
	"mock":      true,
}

// Validate validates the configuration and returns the accumulated
// validation errors, combined with multierr the way
// this codebase's config validation aggregates its field-level
// checks.
func (c *Config) Validate() []error {
	var err error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		err = multierr.Append(err, &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", c.Server.Port),
		})
	}

	if !validLLMProviders[c.LLM.Provider] {
		err = multierr.Append(err, &ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("invalid provider '%s', must be one of: ollama, openai, anthropic, mock", c.LLM.Provider),
		})
	} else if c.LLM.Provider != "mock" && c.LLM.APIKey == "" && c.LLM.Provider != "ollama" {
		err = multierr.Append(err, &ValidationError{
			Field:   "llm.api_key",
			Message: fmt.Sprintf("an API key is required for provider '%s'", c.LLM.Provider),
		})
	}

	if c.ContextBudget.Total < 1 {
		err = multierr.Append(err, &ValidationError{
			Field:   "context_budget.total",
			Message: fmt.Sprintf("total must be positive, got %d", c.ContextBudget.Total),
		})
	}

	shareSum := c.ContextBudget.PolicyShare + c.ContextBudget.DomainShare +
		c.ContextBudget.SessionShare + c.ContextBudget.EphemeralShare
	if math.Abs(shareSum-1.0) > shareTolerance {
		err = multierr.Append(err, &ValidationError{
			Field:   "context_budget.shares",
			Message: fmt.Sprintf("policy+domain+session+ephemeral shares must sum to 1.0 ± %.3f, got %.4f", shareTolerance, shareSum),
		})
	}

	if c.Workflow.VarianceThreshold < 0 || c.Workflow.VarianceThreshold > 1 {
		err = multierr.Append(err, &ValidationError{
			Field:   "workflow.variance_threshold",
			Message: fmt.Sprintf("variance_threshold must be in [0,1], got %.4f", c.Workflow.VarianceThreshold),
		})
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		err = multierr.Append(err, &ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level '%s', must be one of: debug, info, warn, error", c.Logging.Level),
		})
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[strings.ToLower(c.Logging.Format)] {
		err = multierr.Append(err, &ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format '%s', must be one of: json, text", c.Logging.Format),
		})
	}

	return multierr.Errors(err)
}
