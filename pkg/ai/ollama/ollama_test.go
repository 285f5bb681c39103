package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/OFFIS-RIT/citegraph/pkg/ai"
)

func TestGenerateCompletionWithFormat(t *testing.T) {
	var req map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/x-ndjson")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":             "llama",
			"message":           map[string]any{"role": "assistant", "content": `{"rewrites":[]}`},
			"done":              true,
			"prompt_eval_count": 12,
			"eval_count":        3,
			"total_duration":    1000000,
		})
	}))
	defer srv.Close()

	c, err := NewOllamaClient(NewOllamaClientParams{Model: "llama", BaseURL: srv.URL, ApiKey: "secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out struct {
		Rewrites []string `json:"rewrites"`
	}
	if err := c.GenerateCompletionWithFormat(context.Background(), "r", "r", "prompt", &out, ai.WithMaxTokens(100)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Rewrites == nil {
		t.Fatalf("expected decoded rewrites")
	}
	if req["format"] == nil {
		t.Fatalf("expected format in request")
	}
	if opts, _ := req["options"].(map[string]any); opts["num_predict"] != float64(100) {
		t.Fatalf("unexpected options %v", req["options"])
	}
	if m := c.GetMetrics(); m.TotalTokens != 15 {
		t.Fatalf("unexpected metrics %+v", m)
	}
}

func TestGenerateCompletionWithFormatRejectsNonPointer(t *testing.T) {
	c, err := NewOllamaClient(NewOllamaClientParams{Model: "llama"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out struct{}
	if err := c.GenerateCompletionWithFormat(context.Background(), "r", "r", "p", out); err == nil {
		t.Fatalf("expected error for non-pointer")
	}
}
