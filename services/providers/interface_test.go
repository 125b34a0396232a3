package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// MockGenerator is a test implementation of the GenerationProvider interface
type MockGenerator struct {
	name  string
	text  string
	err   error
	calls int
	delay time.Duration
}

func NewMockGenerator(name string) *MockGenerator {
	return &MockGenerator{name: name, text: "mock answer"}
}

func (m *MockGenerator) Name() string {
	return m.name
}

func (m *MockGenerator) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	m.calls++
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &GenerateResponse{Text: m.text, Provider: m.name}, nil
}

// MockEmbedder is a test implementation of the EmbeddingProvider interface
type MockEmbedder struct {
	name   string
	vector []float32
}

func (m *MockEmbedder) Name() string  { return m.name }
func (m *MockEmbedder) Model() string { return "mock-embedding" }

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return m.vector, nil
}

func TestUserText(t *testing.T) {
	c := UserText("PERGUNTA")

	if c.Role != RoleUser {
		t.Errorf("Role = %s, want %s", c.Role, RoleUser)
	}
	if len(c.Parts) != 1 || c.Parts[0].Text != "PERGUNTA" {
		t.Errorf("Parts = %+v, want one text part", c.Parts)
	}
	if c.Parts[0].InlineData != nil {
		t.Error("InlineData should be nil for text contents")
	}
}

func TestProviderError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewProviderError("gemini", "UNAVAILABLE", "request failed", 503, true, cause)

	if err.Error() != "gemini: request failed: connection reset" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if !IsRetryable(err) {
		t.Error("expected error to be retryable")
	}

	wrapped := errors.Join(errors.New("outer"), NewProviderError("openai", "invalid", "bad", 400, false, nil))
	if IsRetryable(wrapped) {
		t.Error("non retryable provider error reported as retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("plain errors are never retryable")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	gen := NewMockGenerator("gemini")
	emb := &MockEmbedder{name: "openai", vector: []float32{1}}

	if err := r.RegisterGenerator(gen); err != nil {
		t.Fatalf("RegisterGenerator() error = %v", err)
	}
	if err := r.RegisterEmbedder(emb); err != nil {
		t.Fatalf("RegisterEmbedder() error = %v", err)
	}
	if err := r.RegisterGenerator(gen); !errors.Is(err, ErrProviderAlreadyRegistered) {
		t.Errorf("duplicate registration error = %v", err)
	}
	if err := r.RegisterEmbedder(nil); err == nil {
		t.Error("expected error for nil provider")
	}

	got, err := r.Generator("gemini")
	if err != nil || got.Name() != "gemini" {
		t.Errorf("Generator() = %v, %v", got, err)
	}
	if _, err := r.Embedder("gemini"); !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("Embedder(gemini) error = %v, want ErrProviderNotFound", err)
	}

	names := r.ListProviders()
	if len(names) != 2 || names[0] != "gemini" || names[1] != "openai" {
		t.Errorf("ListProviders() = %v", names)
	}
	if r.Count() != 2 {
		t.Errorf("Count() = %d, want 2", r.Count())
	}
}

func TestBreakerGenerator(t *testing.T) {
	t.Run("passes responses through", func(t *testing.T) {
		gen := NewMockGenerator("gemini")
		b := NewBreakerGenerator(gen, BreakerConfig{Timeout: time.Minute}, zap.NewNop())

		resp, err := b.Generate(context.Background(), &GenerateRequest{Contents: []Content{UserText("q")}})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if resp.Text != "mock answer" {
			t.Errorf("Text = %q", resp.Text)
		}
		if b.Name() != "gemini" {
			t.Errorf("Name() = %s", b.Name())
		}
	})

	t.Run("opens after repeated failures", func(t *testing.T) {
		gen := NewMockGenerator("gemini")
		gen.err = errors.New("upstream 503")
		b := NewBreakerGenerator(gen, BreakerConfig{MinRequests: 3, FailureRatio: 0.5, Timeout: time.Minute}, zap.NewNop())

		for i := 0; i < 3; i++ {
			if _, err := b.Generate(context.Background(), &GenerateRequest{}); err == nil {
				t.Fatal("expected provider error")
			}
		}
		if b.State() != gobreaker.StateOpen {
			t.Fatalf("State() = %s, want open", b.State())
		}

		_, err := b.Generate(context.Background(), &GenerateRequest{})
		if !errors.Is(err, ErrCircuitOpen) {
			t.Errorf("error = %v, want ErrCircuitOpen", err)
		}
		if gen.calls != 3 {
			t.Errorf("provider called %d times, want 3", gen.calls)
		}
	})

	t.Run("cancellations do not trip the breaker", func(t *testing.T) {
		gen := NewMockGenerator("gemini")
		gen.err = context.Canceled
		b := NewBreakerGenerator(gen, BreakerConfig{MinRequests: 2, Timeout: time.Minute}, zap.NewNop())

		for i := 0; i < 4; i++ {
			_, _ = b.Generate(context.Background(), &GenerateRequest{})
		}
		if b.State() != gobreaker.StateClosed {
			t.Errorf("State() = %s, want closed", b.State())
		}
	})
}

func TestFallbackGenerator(t *testing.T) {
	req := &GenerateRequest{Contents: []Content{UserText("q")}}

	t.Run("primary answers", func(t *testing.T) {
		primary, secondary := NewMockGenerator("gemini"), NewMockGenerator("openai")
		f := NewFallbackGenerator(zap.NewNop(), primary, secondary)

		resp, err := f.Generate(context.Background(), req)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if resp.Provider != "gemini" || secondary.calls != 0 {
			t.Errorf("Provider = %s, secondary calls = %d", resp.Provider, secondary.calls)
		}
		if f.Name() != "gemini" {
			t.Errorf("Name() = %s", f.Name())
		}
	})

	tests := []struct {
		name         string
		primaryErr   error
		wantFallback bool
	}{
		{"retryable error falls back", NewProviderError("gemini", "UNAVAILABLE", "overloaded", 503, true, nil), true},
		{"open circuit falls back", ErrCircuitOpen, true},
		{"permanent error stops", NewProviderError("gemini", "INVALID", "bad request", 400, false, nil), false},
		{"plain error stops", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary, secondary := NewMockGenerator("gemini"), NewMockGenerator("openai")
			primary.err = tt.primaryErr
			f := NewFallbackGenerator(zap.NewNop(), primary, secondary)

			resp, err := f.Generate(context.Background(), req)
			if tt.wantFallback {
				if err != nil || resp.Provider != "openai" {
					t.Fatalf("Generate() = %+v, %v; want openai response", resp, err)
				}
				return
			}
			if !errors.Is(err, tt.primaryErr) {
				t.Errorf("error = %v, want %v", err, tt.primaryErr)
			}
			if secondary.calls != 0 {
				t.Errorf("secondary called %d times", secondary.calls)
			}
		})
	}

	t.Run("last error is returned", func(t *testing.T) {
		primary, secondary := NewMockGenerator("gemini"), NewMockGenerator("openai")
		primary.err = ErrCircuitOpen
		secondary.err = NewProviderError("openai", "RATE_LIMIT", "slow down", 429, true, nil)

		_, err := NewFallbackGenerator(nil, primary, secondary).Generate(context.Background(), req)
		var provErr *ProviderError
		if !errors.As(err, &provErr) || provErr.Provider != "openai" {
			t.Errorf("error = %v, want openai provider error", err)
		}
	})
}
