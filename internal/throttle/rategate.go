package throttle

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"review-sentiment/internal/common/errors"
	"review-sentiment/internal/common/metrics"
)

// RateGate admits at most perSecond call initiations per second. Callers
// that arrive early queue until a token is available.
type RateGate struct {
	limiter *rate.Limiter
}

// NewRateGate builds a gate releasing one token every 1/perSecond. A burst
// above 1 would let an idle gate start up to burst+perSecond-1 calls inside
// one second, so it is rejected; zero means 1.
func NewRateGate(perSecond, burst int) (*RateGate, error) {
	if perSecond <= 0 {
		return nil, fmt.Errorf("rate must be positive, got %d", perSecond)
	}
	if burst <= 0 {
		burst = 1
	}
	if burst > 1 {
		return nil, fmt.Errorf("burst must be 1, got %d", burst)
	}
	return &RateGate{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}, nil
}

// Wait blocks until the caller may start a call.
func (g *RateGate) Wait(ctx context.Context) error {
	start := time.Now()
	if err := g.limiter.Wait(ctx); err != nil {
		return errors.NewInfrastructureError("rate_gate", err)
	}
	metrics.RateGateWait.Observe(time.Since(start).Seconds())
	return nil
}

func (g *RateGate) Limit() float64 {
	return float64(g.limiter.Limit())
}
