// Package llm implements the model-provider abstraction: a single
// generate(messages, max_tokens, temperature) -> text capability behind
// which retries, timeouts, and provider selection all live.
//
// Grounded on an llm adapter interface shape and per-provider client
// files (one file per backend, dispatched by configuration), generalized from
// a tool-calling chat adapter down to the plain text-in/text-out capability
// this service actually needs.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Message is one turn of the prompt sent to a model provider.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// GenerateRequest is the full input to a provider's Generate call.
type GenerateRequest struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Provider is the model-provider capability every backend implements:
// generate(messages, max_tokens, temperature) -> text. Retries, timeouts,
// and fallbacks live entirely behind this boundary, per the design notes.
type Provider interface {
	// Generate produces a single text completion for req. Implementations
	// must respect ctx's deadline/cancellation.
	Generate(ctx context.Context, req GenerateRequest) (string, error)

	// Name identifies the provider for metrics labels and logging.
	Name() string
}

// Sentinel errors for the §7 error taxonomy: ModelConnectionError and
// ModelResponseError. Callers use errors.Is to distinguish a connectivity
// failure (retryable, eventually swallowed by the agents' deterministic
// narrative fallback) from a response the provider returned but this service
// could not parse (never retried; falls back to a deterministic template).
var (
	ErrModelConnection = errors.New("llm: model provider unreachable")
	ErrModelResponse   = errors.New("llm: model provider returned an unusable response")
)

// ConnectionError wraps a transport-level failure reaching the provider.
type ConnectionError struct {
	Provider string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("llm(%s): connection error: %v", e.Provider, e.Err)
}

func (e *ConnectionError) Unwrap() error { return ErrModelConnection }

// ResponseError wraps a provider response this service could not parse or
// use.
type ResponseError struct {
	Provider string
	Err      error
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("llm(%s): response error: %v", e.Provider, e.Err)
}

func (e *ResponseError) Unwrap() error { return ErrModelResponse }
