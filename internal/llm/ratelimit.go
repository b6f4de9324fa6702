package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/bookrag/bookrag/internal/observability"
)

// RateLimited gates every call to the wrapped model behind a token bucket.
// The limiter belongs to the value, so separate pipelines can share or
// isolate budgets by passing the same or different instances.
type RateLimited struct {
	next    Model
	limiter *rate.Limiter
}

// NewRateLimited wraps next with a bucket refilling at perSecond tokens per
// second up to burst. A non-positive rate disables limiting and returns next.
func NewRateLimited(next Model, perSecond float64, burst int) Model {
	if perSecond <= 0 {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// WithLimiter wraps next with an existing limiter, letting several models
// draw from one budget.
func WithLimiter(next Model, limiter *rate.Limiter) *RateLimited {
	return &RateLimited{next: next, limiter: limiter}
}

func (m *RateLimited) Complete(ctx context.Context, req Request) (Completion, error) {
	start := time.Now()
	if err := m.limiter.Wait(ctx); err != nil {
		return Completion{}, fmt.Errorf("wait for model rate limit: %w", err)
	}
	observability.ObserveRateLimitWait(time.Since(start))
	return m.next.Complete(ctx, req)
}
