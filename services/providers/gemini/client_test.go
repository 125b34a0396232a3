package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/upb/room-qa/services/providers"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, server *httptest.Server) *Config {
	t.Helper()
	return &Config{APIKey: "test-key", BaseURL: server.URL + "/", HTTPClient: server.Client()}
}

func TestGenerator_Generate(t *testing.T) {
	var gotBody map[string]any
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "models/gemini-2.5-flash:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Error("API key header missing")
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Uma closure "},{"text":"captura variáveis."}]},"finishReason":"STOP"}]}`))
	})

	cfg := newTestClient(t, server)
	client, err := NewClient(context.Background(), *cfg)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	gen := NewGenerator(client, "")

	resp, err := gen.Generate(context.Background(), &providers.GenerateRequest{
		Contents: []providers.Content{providers.UserText("O que é uma closure?")},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if resp.Text != "Uma closure captura variáveis." {
		t.Errorf("Text = %q", resp.Text)
	}
	if len(resp.Candidates) != 1 || len(resp.Candidates[0].Content.Parts) != 2 {
		t.Fatalf("Candidates = %+v", resp.Candidates)
	}
	if resp.Candidates[0].FinishReason != "STOP" {
		t.Errorf("FinishReason = %s", resp.Candidates[0].FinishReason)
	}
	if resp.Provider != "gemini" || resp.Model != DefaultGenerationModel {
		t.Errorf("Provider/Model = %s/%s", resp.Provider, resp.Model)
	}

	contents, _ := gotBody["contents"].([]any)
	if len(contents) != 1 {
		t.Fatalf("request contents = %v", gotBody["contents"])
	}
	first := contents[0].(map[string]any)
	if first["role"] != "user" {
		t.Errorf("role = %v, want user", first["role"])
	}
}

func TestGenerator_Generate_Error(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`))
	})

	client, err := NewClient(context.Background(), *newTestClient(t, server))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = NewGenerator(client, "").Generate(context.Background(), &providers.GenerateRequest{
		Contents: []providers.Content{providers.UserText("q")},
	})
	if err == nil {
		t.Fatal("expected error")
	}

	var provErr *providers.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if provErr.StatusCode != http.StatusServiceUnavailable || !provErr.Retryable {
		t.Errorf("ProviderError = %+v", provErr)
	}
}

func TestEmbedder_Embed(t *testing.T) {
	var gotBody string
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "text-embedding-004") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embeddings":[{"values":[0.1,0.2,0.3]}]}`))
	})

	client, err := NewClient(context.Background(), *newTestClient(t, server))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	emb := NewEmbedder(client, "", "", 3)

	vec, err := emb.Embed(context.Background(), "O que é uma closure?")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Errorf("vector = %v", vec)
	}
	if !strings.Contains(gotBody, "RETRIEVAL_DOCUMENT") {
		t.Errorf("request body missing task type: %s", gotBody)
	}
	if emb.Model() != DefaultEmbeddingModel || emb.Name() != "gemini" {
		t.Errorf("Model/Name = %s/%s", emb.Model(), emb.Name())
	}
}

func TestEmbedder_Embed_Empty(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embeddings":[]}`))
	})

	client, err := NewClient(context.Background(), *newTestClient(t, server))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = NewEmbedder(client, "", "", 0).Embed(context.Background(), "texto")
	if err == nil {
		t.Fatal("expected error for empty embeddings")
	}
}

func TestNewClient_RequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), Config{}); err == nil {
		t.Error("expected error without API key")
	}
}
