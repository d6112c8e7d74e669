package llm

import (
	"fmt"
	"net/http"
)

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// NewAnthropicProvider builds a Provider backed by the Anthropic Messages
// API, following its documented request/response shape.
func NewAnthropicProvider(apiBase, apiKey, model string) Provider {
	if apiBase == "" {
		apiBase = "https://api.anthropic.com/v1"
	}
	p := newHTTPProvider("anthropic")
	p.endpoint = func() string { return apiBase + "/messages" }
	p.authHeader = func(r *http.Request) {
		r.Header.Set("x-api-key", apiKey)
		r.Header.Set("anthropic-version", "2023-06-01")
	}
	p.buildBody = func(req GenerateRequest) (interface{}, error) {
		msgs := make([]anthropicMessage, 0, len(req.Messages))
		for _, m := range req.Messages {
			if m.Role == "system" {
				continue
			}
			msgs = append(msgs, anthropicMessage{Role: m.Role, Content: m.Content})
		}
		maxTokens := req.MaxTokens
		if maxTokens <= 0 {
			maxTokens = 1024
		}
		return anthropicRequest{
			Model:       model,
			Messages:    msgs,
			MaxTokens:   maxTokens,
			Temperature: req.Temperature,
		}, nil
	}
	p.parseBody = func(body []byte) (string, error) {
		var resp anthropicResponse
		if err := unmarshalJSON(body, &resp); err != nil {
			return "", err
		}
		if len(resp.Content) == 0 || resp.Content[0].Text == "" {
			return "", fmt.Errorf("empty completion from anthropic")
		}
		return resp.Content[0].Text, nil
	}
	return p
}
