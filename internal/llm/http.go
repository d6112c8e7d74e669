package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout is the per-call deadline applied when the caller's
// context carries no earlier deadline, per §5: "every outbound model call
// carries a deadline (default 30s)".
const DefaultTimeout = 30 * time.Second

// httpProvider is the shared shape for every HTTP-backed model provider:
// build a provider-specific request body, POST it, and extract the text
// completion from a provider-specific response shape.
type httpProvider struct {
	name       string
	client     *http.Client
	retry      RetryConfig
	endpoint   func() string
	buildBody  func(GenerateRequest) (interface{}, error)
	authHeader func(*http.Request)
	parseBody  func([]byte) (string, error)
}

func newHTTPProvider(name string) httpProvider {
	return httpProvider{
		name:   name,
		client: &http.Client{Timeout: DefaultTimeout},
		retry:  DefaultRetryConfig(),
	}
}

func (p httpProvider) Name() string { return p.name }

func (p httpProvider) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	return withRetry(ctx, p.retry, func(ctx context.Context) (string, error) {
		return p.doOnce(ctx, req)
	})
}

func (p httpProvider) doOnce(ctx context.Context, req GenerateRequest) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	body, err := p.buildBody(req)
	if err != nil {
		return "", &ResponseError{Provider: p.name, Err: err}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", &ResponseError{Provider: p.name, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return "", &ConnectionError{Provider: p.name, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.authHeader != nil {
		p.authHeader(httpReq)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", &ConnectionError{Provider: p.name, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ConnectionError{Provider: p.name, Err: err}
	}

	if resp.StatusCode >= 500 {
		return "", &ConnectionError{Provider: p.name, Err: fmt.Errorf("status %d: %s", resp.StatusCode, respBody)}
	}
	if resp.StatusCode >= 400 {
		return "", &ResponseError{Provider: p.name, Err: fmt.Errorf("status %d: %s", resp.StatusCode, respBody)}
	}

	text, err := p.parseBody(respBody)
	if err != nil {
		return "", &ResponseError{Provider: p.name, Err: err}
	}
	return text, nil
}
