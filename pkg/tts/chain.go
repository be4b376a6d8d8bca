package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Chain implements Provider by trying multiple engines in order.
// The first successful engine wins; if all fail, the errors aggregate.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

// NewChain creates a provider chain that tries engines in order.
// At least one provider is required.
func NewChain(providers ...Provider) (*Chain, error) {
	if len(providers) == 0 {
		return nil, ErrProviderUnavailable
	}
	return &Chain{
		providers: providers,
		logger:    slog.Default().With("component", "tts.chain"),
	}, nil
}

// NewChainWithLogger creates a provider chain with a custom logger.
func NewChainWithLogger(logger *slog.Logger, providers ...Provider) (*Chain, error) {
	chain, err := NewChain(providers...)
	if err != nil {
		return nil, err
	}
	chain.logger = logger.With("component", "tts.chain")
	return chain, nil
}

// Synthesize tries each engine until one succeeds.
func (c *Chain) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	var errs []error

	for i, p := range c.providers {
		result, err := p.Synthesize(ctx, text)
		if err == nil {
			if i > 0 {
				c.logger.Info("fallback engine succeeded", "engine", p.Name())
			}
			return result, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		c.logger.Warn("engine failed, trying next", "engine", p.Name(), "error", err)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("%w: %w", ErrAllProvidersFailed, errors.Join(errs...))
}

// Stream tries each engine until one succeeds.
func (c *Chain) Stream(ctx context.Context, text string) (AudioStream, error) {
	var errs []error

	for i, p := range c.providers {
		stream, err := p.Stream(ctx, text)
		if err == nil {
			if i > 0 {
				c.logger.Info("fallback engine succeeded", "engine", p.Name())
			}
			return stream, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		c.logger.Warn("engine failed, trying next", "engine", p.Name(), "error", err)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("%w: %w", ErrAllProvidersFailed, errors.Join(errs...))
}

// Name returns "chain".
func (c *Chain) Name() string { return "chain" }

// Close closes every engine in the chain, returning the first error.
func (c *Chain) Close() error {
	var firstErr error
	for _, p := range c.providers {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ Provider = (*Chain)(nil)
