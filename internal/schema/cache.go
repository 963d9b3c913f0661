package schema

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// State is the lifecycle of a cached value.
type State int

const (
	Uncomputed State = iota
	Computing
	Cached
)

func (s State) String() string {
	switch s {
	case Uncomputed:
		return "uncomputed"
	case Computing:
		return "computing"
	case Cached:
		return "cached"
	default:
		return "unknown"
	}
}

// flightKey is shared by every computation, so at most one runs at a time,
// even across a Reset.
const flightKey = "value"

// Cache holds one lazily computed value.
// Concurrent callers share a single computation; failures are not cached.
type Cache[T any] struct {
	group singleflight.Group

	mu         sync.Mutex
	value      T
	state      State
	generation uint64
}

// flight is what one computation hands to its waiters.
type flight[T any] struct {
	value      T
	generation uint64
}

// GetOrCompute returns the cached value or runs compute to produce it.
// compute is detached from the cancellation of ctx because other callers may be
// waiting on it; ctx only bounds how long this caller waits.
// A caller that joins a computation started before the last Reset waits for it
// to finish and then computes again.
func (c *Cache[T]) GetOrCompute(ctx context.Context, compute func(context.Context) (T, error)) (T, error) {
	computeCtx := context.WithoutCancel(ctx)

	for {
		c.mu.Lock()
		if c.state == Cached {
			v := c.value
			c.mu.Unlock()
			return v, nil
		}
		c.state = Computing
		gen := c.generation
		c.mu.Unlock()

		ch := c.group.DoChan(flightKey, func() (any, error) {
			c.mu.Lock()
			if c.state == Cached {
				f := flight[T]{value: c.value, generation: c.generation}
				c.mu.Unlock()
				return f, nil
			}
			flightGen := c.generation
			c.state = Computing
			c.mu.Unlock()

			v, err := compute(computeCtx)

			c.mu.Lock()
			defer c.mu.Unlock()
			// a Reset during the computation discards its result
			if c.generation == flightGen {
				if err != nil {
					c.state = Uncomputed
				} else {
					c.value = v
					c.state = Cached
				}
			}
			return flight[T]{value: v, generation: flightGen}, err
		})

		select {
		case res := <-ch:
			f, _ := res.Val.(flight[T])
			if f.generation < gen {
				continue
			}
			if res.Err != nil {
				var zero T
				return zero, res.Err
			}
			return f.value, nil
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Reset drops the cached value. The next GetOrCompute recomputes.
func (c *Cache[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	c.value = zero
	c.state = Uncomputed
	c.generation++
}

// State reports the current lifecycle state.
func (c *Cache[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
