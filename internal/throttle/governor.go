// Package throttle bounds outbound classification traffic with a process-wide
// concurrency governor and a token-bucket rate gate.
package throttle

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"review-sentiment/internal/common/errors"
	"review-sentiment/internal/common/metrics"
)

// Governor is a counting semaphore limiting in-flight calls. Waiters are
// served in FIFO order.
type Governor struct {
	sem      *semaphore.Weighted
	size     int64
	inFlight atomic.Int64
}

func NewGovernor(size int) (*Governor, error) {
	if size <= 0 {
		return nil, fmt.Errorf("governor size must be positive, got %d", size)
	}
	return &Governor{
		sem:  semaphore.NewWeighted(int64(size)),
		size: int64(size),
	}, nil
}

// Acquire blocks until a permit is available. It fails only when ctx ends first.
func (g *Governor) Acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return errors.NewInfrastructureError("governor", err)
	}
	g.inFlight.Add(1)
	metrics.ClassificationsInFlight.Inc()
	return nil
}

// Release returns a permit obtained by Acquire.
func (g *Governor) Release() {
	g.inFlight.Add(-1)
	metrics.ClassificationsInFlight.Dec()
	g.sem.Release(1)
}

func (g *Governor) Size() int {
	return int(g.size)
}

// InFlight reports the number of permits currently held.
func (g *Governor) InFlight() int {
	return int(g.inFlight.Load())
}
