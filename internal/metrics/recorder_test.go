package metrics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microsoft/filter-effects/internal/render"
)

func TestRecorderCountsRequests(t *testing.T) {
	r := NewRecorder(nil)

	r.RequestReceived("Marvel", render.Idle)
	r.RequestReceived("Marvel", render.Rendering)
	r.RequestReceived("Marvel", render.RenderingWithPending)

	s := r.Snapshot()["Marvel"]
	assert.EqualValues(t, 3, s.Requests)
	assert.EqualValues(t, 2, s.Coalesced)
}

func TestRecorderClassifiesCycles(t *testing.T) {
	r := NewRecorder(nil)

	r.CycleFinished("Surrounded", 10*time.Millisecond, nil)
	r.CycleFinished("Surrounded", 30*time.Millisecond, errors.New("boom"))
	r.CycleFinished("Surrounded", 20*time.Millisecond, fmt.Errorf("wrapped: %w", render.ErrNoInput))

	s := r.Snapshot()["Surrounded"]
	assert.EqualValues(t, 3, s.Cycles)
	assert.EqualValues(t, 1, s.Failures)
	assert.EqualValues(t, 1, s.MissingInput)
	assert.Equal(t, 20*time.Millisecond, s.LastDuration)
	assert.Equal(t, 20*time.Millisecond, s.MeanDuration)
}

func TestRecorderTotalAndNames(t *testing.T) {
	r := NewRecorder(nil)
	r.RequestReceived("b", render.Idle)
	r.RequestReceived("a", render.Rendering)
	r.CycleFinished("a", 2*time.Millisecond, nil)
	r.CycleFinished("b", 4*time.Millisecond, nil)

	assert.Equal(t, []string{"a", "b"}, r.Names())

	total := r.Total()
	assert.EqualValues(t, 2, total.Requests)
	assert.EqualValues(t, 1, total.Coalesced)
	assert.EqualValues(t, 2, total.Cycles)
	assert.Equal(t, 3*time.Millisecond, total.MeanDuration)

	r.Reset()
	assert.Empty(t, r.Snapshot())
}

func TestRecorderSnapshotIsCopy(t *testing.T) {
	r := NewRecorder(nil)
	r.RequestReceived("x", render.Idle)

	snap := r.Snapshot()
	s := snap["x"]
	s.Requests = 99
	snap["x"] = s

	assert.EqualValues(t, 1, r.Snapshot()["x"].Requests)
}

func TestRecorderConcurrentUse(t *testing.T) {
	r := NewRecorder(nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.RequestReceived("shared", render.Idle)
				r.CycleFinished("shared", time.Millisecond, nil)
			}
		}()
	}
	wg.Wait()

	s := r.Snapshot()["shared"]
	require.EqualValues(t, 800, s.Requests)
	assert.EqualValues(t, 800, s.Cycles)
}

func TestRecorderObservesCoalescer(t *testing.T) {
	r := NewRecorder(nil)
	release := make(chan struct{})
	c := render.NewCoalescer("live", func(ctx context.Context) error {
		<-release
		return nil
	}, nil, render.WithObserver(r))

	c.RequestApply()
	c.RequestApply()
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx))

	s := r.Snapshot()["live"]
	assert.EqualValues(t, 2, s.Requests)
	assert.EqualValues(t, 1, s.Coalesced)
	assert.EqualValues(t, 2, s.Cycles)
}
