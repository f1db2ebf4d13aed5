package extract

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// Limited throttles calls to an Extractor with a token bucket.
// Waiting for a token honors ctx, so the per-item timeout covers queueing here too.
type Limited struct {
	next    Extractor
	limiter *rate.Limiter
}

// NewLimited allows rpm calls per minute with the given burst. rpm <= 0 disables limiting.
func NewLimited(next Extractor, rpm, burst int) *Limited {
	limit := rate.Inf
	if rpm > 0 {
		limit = rate.Every(time.Minute / time.Duration(rpm))
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

func (l *Limited) Extract(ctx context.Context, doc Document) (Result, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return Result{}, &Error{Kind: KindProviderError, Err: err}
		}
		return Result{}, &Error{Kind: KindTimeout, Err: err}
	}
	return l.next.Extract(ctx, doc)
}
