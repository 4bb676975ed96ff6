package render

import (
	"errors"
	"fmt"
	"sync"

	"github.com/microsoft/filter-effects/internal/params"
)

// ChangeQueue holds parameter updates accumulated between render cycles.
// Add never blocks on an in-flight render.
type ChangeQueue struct {
	mu      sync.Mutex
	pending []params.Update
}

func NewChangeQueue() *ChangeQueue {
	return &ChangeQueue{}
}

// Add appends updates to the tail of the queue.
func (q *ChangeQueue) Add(updates ...params.Update) {
	if len(updates) == 0 {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, updates...)
	q.mu.Unlock()
}

// Len returns the number of queued updates.
func (q *ChangeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Pending returns a copy of the queued updates without removing them.
func (q *ChangeQueue) Pending() []params.Update {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]params.Update(nil), q.pending...)
}

// Drain removes and returns every queued update in insertion order.
func (q *ChangeQueue) Drain() []params.Update {
	q.mu.Lock()
	drained := q.pending
	q.pending = nil
	q.mu.Unlock()
	return drained
}

// DrainAndApply applies the queued updates to s in insertion order, so a
// later update of a parameter wins over an earlier one. Invalid updates are
// skipped and reported together; valid ones are still applied.
func (q *ChangeQueue) DrainAndApply(s *params.Set) (int, error) {
	var errs []error
	applied := 0
	for _, u := range q.Drain() {
		if err := u.Apply(s); err != nil {
			errs = append(errs, fmt.Errorf("apply %s: %w", u, err))
			continue
		}
		applied++
	}
	return applied, errors.Join(errs...)
}
