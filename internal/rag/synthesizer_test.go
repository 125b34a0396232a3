package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/room-qa/services/providers"
	"go.uber.org/zap"
)

func promptMatching(fragment string) interface{} {
	return mock.MatchedBy(func(req *providers.GenerateRequest) bool {
		return len(req.Contents) == 1 &&
			req.Contents[0].Role == providers.RoleUser &&
			len(req.Contents[0].Parts) == 1 &&
			strings.Contains(req.Contents[0].Parts[0].Text, fragment)
	})
}

func TestSynthesizer_Synthesize(t *testing.T) {
	ctx := context.Background()

	t.Run("context aware prompt", func(t *testing.T) {
		gen := &mockGenerator{}
		gen.On("Generate", mock.Anything, promptMatching("CONTEXTO:\ncaso base")).
			Return(&providers.GenerateResponse{Text: "Recursão precisa de um caso base."}, nil)

		answer, err := NewSynthesizer(gen, SynthesizerConfig{}, zap.NewNop()).
			Synthesize(ctx, "O que foi dito sobre recursão?", "caso base")

		require.NoError(t, err)
		assert.Equal(t, "Recursão precisa de um caso base.", answer)
		gen.AssertExpectations(t)
	})

	t.Run("context free prompt", func(t *testing.T) {
		gen := &mockGenerator{}
		gen.On("Generate", mock.Anything, promptMatching("tecnologia e programação")).
			Return(&providers.GenerateResponse{OutputText: "Uma closure captura variáveis."}, nil)

		answer, err := NewSynthesizer(gen, SynthesizerConfig{}, nil).Synthesize(ctx, "What is a closure?", "")

		require.NoError(t, err)
		assert.Equal(t, "Uma closure captura variáveis.", answer)
	})

	t.Run("request settings forwarded", func(t *testing.T) {
		temp := 0.3
		gen := &mockGenerator{}
		gen.On("Generate", mock.Anything, mock.MatchedBy(func(req *providers.GenerateRequest) bool {
			return req.Model == "gemini-2.5-pro" && req.Temperature == &temp && req.MaxOutputTokens == 512
		})).Return(&providers.GenerateResponse{Candidates: candidateParts("ok")}, nil)

		cfg := SynthesizerConfig{Model: "gemini-2.5-pro", Temperature: &temp, MaxOutputTokens: 512}
		answer, err := NewSynthesizer(gen, cfg, nil).Synthesize(ctx, "q", "")

		require.NoError(t, err)
		assert.Equal(t, "ok", answer)
	})

	t.Run("empty response in every shape", func(t *testing.T) {
		gen := &mockGenerator{}
		gen.On("Generate", mock.Anything, mock.Anything).
			Return(&providers.GenerateResponse{Text: "", OutputText: " ", Candidates: candidateParts("")}, nil)

		answer, err := NewSynthesizer(gen, SynthesizerConfig{}, nil).Synthesize(ctx, "q", "")

		assert.ErrorIs(t, err, ErrSynthesis)
		assert.Empty(t, answer)
	})

	t.Run("provider failure", func(t *testing.T) {
		gen := &mockGenerator{}
		gen.On("Generate", mock.Anything, mock.Anything).Return(nil, providers.ErrCircuitOpen)

		_, err := NewSynthesizer(gen, SynthesizerConfig{}, nil).Synthesize(ctx, "q", "")

		assert.ErrorIs(t, err, ErrSynthesis)
		assert.True(t, errors.Is(err, providers.ErrCircuitOpen))
	})
}
