package llm

import (
	"fmt"
	"net/http"
)

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

// NewOpenAIProvider builds a Provider backed by the OpenAI chat
// completions API, following its documented request/response shape.
func NewOpenAIProvider(apiBase, apiKey, model string) Provider {
	if apiBase == "" {
		apiBase = "https://api.openai.com/v1"
	}
	p := newHTTPProvider("openai")
	p.endpoint = func() string { return apiBase + "/chat/completions" }
	p.authHeader = func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+apiKey)
	}
	p.buildBody = func(req GenerateRequest) (interface{}, error) {
		msgs := make([]openAIMessage, 0, len(req.Messages))
		for _, m := range req.Messages {
			msgs = append(msgs, openAIMessage{Role: m.Role, Content: m.Content})
		}
		return openAIChatRequest{
			Model:       model,
			Messages:    msgs,
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
		}, nil
	}
	p.parseBody = func(body []byte) (string, error) {
		var resp openAIChatResponse
		if err := unmarshalJSON(body, &resp); err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			return "", fmt.Errorf("empty completion from openai")
		}
		return resp.Choices[0].Message.Content, nil
	}
	return p
}
