package rag

import (
	"context"
	"fmt"

	"github.com/upb/room-qa/services/providers"
	"go.uber.org/zap"
)

// SynthesizerConfig tunes the generation request
type SynthesizerConfig struct {
	Model           string
	Language        string
	Temperature     *float64
	MaxOutputTokens int
}

// Synthesizer builds the answer prompt and normalizes the generation response
type Synthesizer struct {
	generator providers.GenerationProvider
	prompts   *PromptBuilder
	cfg       SynthesizerConfig
	logger    *zap.Logger
}

// NewSynthesizer creates a synthesizer over a generation provider
func NewSynthesizer(generator providers.GenerationProvider, cfg SynthesizerConfig, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{
		generator: generator,
		prompts:   NewPromptBuilder(cfg.Language),
		cfg:       cfg,
		logger:    logger,
	}
}

// Synthesize answers question, grounded on block when it is not empty.
// Provider failures and empty responses wrap ErrSynthesis.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, block ContextBlock) (string, error) {
	prompt, kind := s.prompts.Build(question, block)

	resp, err := s.generator.Generate(ctx, &providers.GenerateRequest{
		Model:           s.cfg.Model,
		Contents:        []providers.Content{providers.UserText(prompt)},
		Temperature:     s.cfg.Temperature,
		MaxOutputTokens: s.cfg.MaxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrSynthesis, s.generator.Name(), err)
	}

	answer, shape, ok := ExtractAnswer(resp)
	if !ok {
		s.logger.Warn("generation returned no extractable text",
			zap.String("provider", s.generator.Name()),
			zap.String("template", kind.String()))
		return "", fmt.Errorf("%w: empty response from %s", ErrSynthesis, s.generator.Name())
	}

	s.logger.Debug("answer synthesized",
		zap.String("provider", s.generator.Name()),
		zap.String("template", kind.String()),
		zap.String("shape", shape.String()),
		zap.Int("answer_length", len(answer)))

	return answer, nil
}
