package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"flowsense/internal/config"
)

func newTestLLMClient(t *testing.T, handler http.Handler, minSpacing string) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("failed to parse test server URL: %v", err)
	}
	port, _ := strconv.Atoi(u.Port())

	return NewClient(&config.LLMConfig{
		Host:        u.Hostname(),
		Port:        port,
		Model:       "mistral",
		Timeout:     "5s",
		MinSpacing:  minSpacing,
		Temperature: 0.3,
		NumPredict:  300,
		TopP:        0.9,
	})
}

func TestGenerate(t *testing.T) {
	var gotReq generateRequest
	client := newTestLLMClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(generateResponse{Response: `{"current_state": "productive"}`})
	}), "1ms")

	response, err := client.Generate(context.Background(), "analyze this", "system prompt")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if response != `{"current_state": "productive"}` {
		t.Errorf("unexpected response %q", response)
	}

	if gotReq.Model != "mistral" {
		t.Errorf("Model = %q, want mistral", gotReq.Model)
	}
	if gotReq.Stream {
		t.Error("Stream must be false")
	}
	if gotReq.Prompt != "analyze this" || gotReq.System != "system prompt" {
		t.Errorf("prompt/system not forwarded: %+v", gotReq)
	}
	if gotReq.Options.Temperature != 0.3 || gotReq.Options.NumPredict != 300 || gotReq.Options.TopP != 0.9 {
		t.Errorf("options not forwarded: %+v", gotReq.Options)
	}
}

func TestGenerate_ErrorStatus(t *testing.T) {
	client := newTestLLMClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}), "1ms")

	if _, err := client.Generate(context.Background(), "p", ""); err == nil {
		t.Error("expected error for non-200 status")
	}
}

func TestGenerate_SpacingEnforced(t *testing.T) {
	client := newTestLLMClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{Response: "ok"})
	}), "150ms")

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := client.Generate(context.Background(), "p", ""); err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 300*time.Millisecond {
		t.Errorf("three calls completed in %v, spacing not enforced", elapsed)
	}
}

func TestPing(t *testing.T) {
	client := newTestLLMClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.Write([]byte(`{"models": []}`))
			return
		}
		http.NotFound(w, r)
	}), "1ms")

	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
