package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMockProviderClassifiesByKeyword(t *testing.T) {
	m := NewMockProvider()
	ctx := context.Background()

	cases := []struct {
		name string
		text string
		want string
	}{
		{"negotiation", "negotiate vendor discount terms", "Proposed terms"},
		{"compliance", "review this clause for compliance", "Clause reviewed"},
		{"forecast", "forecast budget for next quarter", "Spend trajectory"},
		{"unknown", "unrelated request about office supplies", "Acknowledged request context"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := m.Generate(ctx, GenerateRequest{Messages: []Message{{Role: "user", Content: tc.text}}})
			if err != nil {
				t.Fatalf("Generate returned error: %v", err)
			}
			if len(out) == 0 {
				t.Fatal("expected non-empty completion")
			}
			if out[:len(tc.want)] != tc.want {
				t.Errorf("expected completion to start with %q, got %q", tc.want, out)
			}
		})
	}
}

func TestMockProviderNeverErrors(t *testing.T) {
	m := NewMockProvider()
	_, err := m.Generate(context.Background(), GenerateRequest{})
	if err != nil {
		t.Fatalf("mock provider must never error, got: %v", err)
	}
}

func TestWithRetryStopsOnNonConnectionError(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), DefaultRetryConfig(), func(ctx context.Context) (string, error) {
		calls++
		return "", &ResponseError{Provider: "test", Err: errors.New("bad json")}
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 attempt for a non-connection error, got %d", calls)
	}
}

func TestWithRetryRetriesConnectionErrors(t *testing.T) {
	calls := 0
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond}
	_, err := withRetry(context.Background(), cfg, func(ctx context.Context) (string, error) {
		calls++
		return "", &ConnectionError{Provider: "test", Err: errors.New("dial refused")}
	})
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestWithRetrySucceedsAfterTransientFailure(t *testing.T) {
	calls := 0
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond}
	out, err := withRetry(context.Background(), cfg, func(ctx context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", &ConnectionError{Provider: "test", Err: errors.New("timeout")}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got error: %v", err)
	}
	if out != "ok" {
		t.Errorf("expected 'ok', got %q", out)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
}
