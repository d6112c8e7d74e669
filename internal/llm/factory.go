package llm

import "fmt"

// Settings is the subset of internal/config.Config.LLM the factory needs.
// Declared locally instead of importing internal/config to keep this
// package free of a dependency on the configuration layer.
type Settings struct {
	Provider string
	Host     string
	APIBase  string
	APIKey   string
	Model    string
}

// New selects and constructs a Provider from Settings.Provider. Unknown
// providers fall back to the mock provider rather than failing, since the
// model provider is explicitly an opaque external collaborator with a
// mock fallback (§1 Out of scope).
func New(s Settings) (Provider, error) {
	switch s.Provider {
	case "", "mock":
		return NewMockProvider(), nil
	case "ollama":
		return NewOllamaProvider(s.Host, s.Model), nil
	case "openai":
		if s.APIKey == "" {
			return nil, fmt.Errorf("llm: openai provider requires an API key")
		}
		return NewOpenAIProvider(s.APIBase, s.APIKey, s.Model), nil
	case "anthropic":
		if s.APIKey == "" {
			return nil, fmt.Errorf("llm: anthropic provider requires an API key")
		}
		return NewAnthropicProvider(s.APIBase, s.APIKey, s.Model), nil
	default:
		return NewMockProvider(), nil
	}
}
