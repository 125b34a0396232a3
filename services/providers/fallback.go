package providers

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// FallbackGenerator tries each generation provider in order.
// It moves on only for retryable provider errors or an open circuit.
type FallbackGenerator struct {
	chain  []GenerationProvider
	logger *zap.Logger
}

// NewFallbackGenerator chains a primary provider with its fallbacks
func NewFallbackGenerator(logger *zap.Logger, primary GenerationProvider, fallbacks ...GenerationProvider) *FallbackGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackGenerator{
		chain:  append([]GenerationProvider{primary}, fallbacks...),
		logger: logger,
	}
}

// Name returns the primary provider name
func (f *FallbackGenerator) Name() string {
	return f.chain[0].Name()
}

// Generate returns the first successful response in the chain
func (f *FallbackGenerator) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	var lastErr error
	for i, p := range f.chain {
		resp, err := p.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil || !shouldFallback(err) || i == len(f.chain)-1 {
			break
		}
		f.logger.Warn("generation provider failed, trying fallback",
			zap.String("provider", p.Name()),
			zap.String("fallback", f.chain[i+1].Name()),
			zap.Error(err))
	}
	return nil, lastErr
}

func shouldFallback(err error) bool {
	return errors.Is(err, ErrCircuitOpen) || IsRetryable(err)
}
