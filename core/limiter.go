package core

import (
	"errors"
	"fmt"
	"sync"
)

// ErrModelBudgetExceeded is returned once a turn has used up its model calls.
var ErrModelBudgetExceeded = errors.New("model call budget exceeded")

// ModelLimiter enforces a maximum number of model calls within one agent turn.
// A turn with a search round-trip needs two calls; anything beyond that
// indicates a chained tool loop, which is not supported.
type ModelLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewModelLimiter creates a new limiter with a max number of calls.
// If max == 0, unlimited calls are allowed.
func NewModelLimiter(max int) *ModelLimiter {
	return &ModelLimiter{max: max}
}

// Acquire reserves one model call and fails when the budget is exhausted.
// A failed Acquire does not consume budget.
func (ml *ModelLimiter) Acquire() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	if ml.max > 0 && ml.count >= ml.max {
		return fmt.Errorf("%w: %d", ErrModelBudgetExceeded, ml.max)
	}

	ml.count++

	return nil
}

// Count returns the current number of calls made.
func (ml *ModelLimiter) Count() int {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	return ml.count
}

// Remaining returns how many calls are left before hitting the limit.
func (ml *ModelLimiter) Remaining() int {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	if ml.max == 0 {
		return -1 // unlimited
	}

	return ml.max - ml.count
}
