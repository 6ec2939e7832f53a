// Package ratelimit throttles an embedding service with a token bucket and
// backs off after the provider reports a rate limit.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
	"github.com/custodia-labs/benchbook/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultBackoff is the pause after a rate-limited response.
const DefaultBackoff = 20 * time.Second

// Config sets the sustained request rate and burst.
type Config struct {
	RequestsPerSecond float64
	Burst             int
	Backoff           time.Duration
}

// EmbeddingService wraps another EmbeddingService. Each Embed or
// EmbedBatch call consumes one token.
type EmbeddingService struct {
	next    driven.EmbeddingService
	limiter *rate.Limiter
	backoff time.Duration

	mu      sync.Mutex
	retryAt time.Time
	now     func() time.Time
}

// Wrap returns next throttled to cfg. A non-positive rate disables the
// token bucket but keeps the backoff.
func Wrap(next driven.EmbeddingService, cfg Config) *EmbeddingService {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	return &EmbeddingService{
		next:    next,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		backoff: cfg.Backoff,
		now:     time.Now,
	}
}

// Wait blocks until a request may be sent.
func (s *EmbeddingService) Wait(ctx context.Context) error {
	s.mu.Lock()
	retryAt := s.retryAt
	s.mu.Unlock()

	if d := retryAt.Sub(s.now()); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return s.limiter.Wait(ctx)
}

func (s *EmbeddingService) observe(err error) {
	if !errors.Is(err, domain.ErrRateLimited) {
		return
	}
	s.mu.Lock()
	s.retryAt = s.now().Add(s.backoff)
	s.mu.Unlock()
	logger.Warn("embedding_rate_limited", "backoff", s.backoff.String())
}

// Embed waits for a token, then embeds text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.Wait(ctx); err != nil {
		return nil, err
	}
	v, err := s.next.Embed(ctx, text)
	s.observe(err)
	return v, err
}

// EmbedBatch waits for a token, then embeds texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.Wait(ctx); err != nil {
		return nil, err
	}
	v, err := s.next.EmbedBatch(ctx, texts)
	s.observe(err)
	return v, err
}

// Dimensions delegates to the wrapped service.
func (s *EmbeddingService) Dimensions() int { return s.next.Dimensions() }

// ModelName delegates to the wrapped service.
func (s *EmbeddingService) ModelName() string { return s.next.ModelName() }

// Ping delegates without consuming a token.
func (s *EmbeddingService) Ping(ctx context.Context) error { return s.next.Ping(ctx) }

// Close closes the wrapped service.
func (s *EmbeddingService) Close() error { return s.next.Close() }
