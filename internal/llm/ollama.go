package llm

import "fmt"

// ollamaChatRequest/ollamaChatResponse mirror the subset of the Ollama
// /api/chat schema this service needs, following Ollama's documented
// request/response shape.
type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  ollamaOptions  `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// NewOllamaProvider builds a Provider backed by a locally-hosted Ollama
// instance at host, using model for generation.
func NewOllamaProvider(host, model string) Provider {
	if host == "" {
		host = "http://localhost:11434"
	}
	p := newHTTPProvider("ollama")
	p.endpoint = func() string { return host + "/api/chat" }
	p.buildBody = func(req GenerateRequest) (interface{}, error) {
		msgs := make([]ollamaMessage, 0, len(req.Messages))
		for _, m := range req.Messages {
			msgs = append(msgs, ollamaMessage{Role: m.Role, Content: m.Content})
		}
		return ollamaChatRequest{
			Model:    model,
			Messages: msgs,
			Stream:   false,
			Options:  ollamaOptions{Temperature: req.Temperature, NumPredict: req.MaxTokens},
		}, nil
	}
	p.parseBody = func(body []byte) (string, error) {
		var resp ollamaChatResponse
		if err := unmarshalJSON(body, &resp); err != nil {
			return "", err
		}
		if resp.Message.Content == "" {
			return "", fmt.Errorf("empty completion from ollama")
		}
		return resp.Message.Content, nil
	}
	return p
}
