package rag

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/upb/room-qa/services/providers"
)

type mockEmbeddingProvider struct {
	mock.Mock
}

func (m *mockEmbeddingProvider) Name() string  { return "mock" }
func (m *mockEmbeddingProvider) Model() string { return "mock-embedding" }

func (m *mockEmbeddingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if v := args.Get(0); v != nil {
		return v.([]float32), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Name() string { return "mock" }

func (m *mockGenerator) Generate(ctx context.Context, req *providers.GenerateRequest) (*providers.GenerateResponse, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*providers.GenerateResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

type wordCounter struct{}

func (wordCounter) CountTokens(text string) int {
	n := 0
	inWord := false
	for _, r := range text {
		if r == ' ' || r == '\n' {
			inWord = false
			continue
		}
		if !inWord {
			n++
			inWord = true
		}
	}
	return n
}
