package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func completionServer(t *testing.T, handler func(w http.ResponseWriter, attempt int32)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Errorf("unexpected authorization header %q", got)
		}
		handler(w, calls.Add(1))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func writeContent(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	payload := map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func fastRetry() Option {
	return WithRetry(3, time.Millisecond, 5*time.Millisecond)
}

func TestClientHealthCheckCodeFence(t *testing.T) {
	server, _ := completionServer(t, func(w http.ResponseWriter, _ int32) {
		writeContent(t, w, "```json\n{\"ok\":true}\n```")
	})
	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"}, fastRetry())
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckUnauthorizedDoesNotRetry(t *testing.T) {
	server, calls := completionServer(t, func(w http.ResponseWriter, _ int32) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
	})
	client := NewClient(Config{APIKey: "test", BaseURL: server.URL}, fastRetry())
	err := client.HealthCheck(context.Background())
	if err == nil {
		t.Fatal("expected health check to fail")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected status in error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestClientRetriesOnTooManyRequests(t *testing.T) {
	server, calls := completionServer(t, func(w http.ResponseWriter, attempt int32) {
		if attempt == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeContent(t, w, `{"ok":true}`)
	})
	client := NewClient(Config{APIKey: "test", BaseURL: server.URL}, fastRetry())
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestClientRetriesOnEmptyContent(t *testing.T) {
	server, calls := completionServer(t, func(w http.ResponseWriter, attempt int32) {
		if attempt < 3 {
			writeContent(t, w, "")
			return
		}
		writeContent(t, w, `{"ok":true}`)
	})
	client := NewClient(Config{APIKey: "test", BaseURL: server.URL}, fastRetry())
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestClientRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{})
	if _, err := client.CompleteJSON(context.Background(), "sys", "user"); err == nil {
		t.Fatal("expected missing key error")
	}
}

func TestClassifyContentNormalizesGuess(t *testing.T) {
	server, _ := completionServer(t, func(w http.ResponseWriter, _ int32) {
		writeContent(t, w, `Claro: {"title":" Solo Leveling ","chapter":"10","category":"Manhwa","tags":[" Accion ",""]}`)
	})
	client := NewClient(Config{APIKey: "test", BaseURL: server.URL}, fastRetry())
	guess, err := client.ClassifyContent(context.Background(), ContentInput{Filename: "solo_leveling_cap10.pdf"})
	if err != nil {
		t.Fatalf("ClassifyContent: %v", err)
	}
	if guess.Title != "Solo Leveling" || guess.Chapter != "10" || guess.Category != "manhwa" {
		t.Fatalf("unexpected guess %+v", guess)
	}
	if len(guess.Tags) != 1 || guess.Tags[0] != "accion" {
		t.Fatalf("unexpected tags %v", guess.Tags)
	}
}

func TestClassifyContentRequiresInput(t *testing.T) {
	client := NewClient(Config{APIKey: "test"})
	if _, err := client.ClassifyContent(context.Background(), ContentInput{}); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestDecodeLLMJSONVariants(t *testing.T) {
	cases := []string{
		`{"ok":true}`,
		"```json\n{\"ok\":true}\n```",
		"aqui tienes {\"ok\":true} saludos",
	}
	for _, input := range cases {
		var parsed struct {
			OK bool `json:"ok"`
		}
		if err := DecodeLLMJSON(input, &parsed); err != nil || !parsed.OK {
			t.Fatalf("DecodeLLMJSON(%q) = %v, %+v", input, err, parsed)
		}
	}
	var parsed map[string]any
	if err := DecodeLLMJSON("   ", &parsed); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
