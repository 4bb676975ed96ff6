package render

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microsoft/filter-effects/internal/params"
)

func TestDrainAndApplyInInsertionOrder(t *testing.T) {
	q := NewChangeQueue()
	q.Add(params.SetBrightness(0.2))
	q.Add(params.SetSaturation(0.9), params.SetBrightness(0.8))
	require.Equal(t, 3, q.Len())

	var s params.Set
	n, err := q.DrainAndApply(&s)
	require.NoError(t, err)

	assert.Equal(t, 3, n)
	assert.Equal(t, 0.8, s.Brightness)
	assert.Equal(t, 0.9, s.Saturation)
	assert.Zero(t, q.Len())
}

func TestDrainAndApplyIsNotRepeated(t *testing.T) {
	q := NewChangeQueue()
	q.Add(params.SetBrightness(0.4))

	var s params.Set
	_, err := q.DrainAndApply(&s)
	require.NoError(t, err)

	s.Brightness = 0.1
	n, err := q.DrainAndApply(&s)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 0.1, s.Brightness, "drained updates must not be applied twice")
}

func TestDrainAndApplySkipsInvalid(t *testing.T) {
	q := NewChangeQueue()
	q.Add(params.Update{Param: "gamma"}, params.SetDistinctEdges(true))

	var s params.Set
	n, err := q.DrainAndApply(&s)
	assert.Error(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, s.DistinctEdges)
}

func TestAddDuringDrainIsKeptForNextCycle(t *testing.T) {
	q := NewChangeQueue()
	q.Add(params.SetBrightness(0.3))

	drained := q.Drain()
	q.Add(params.SetBrightness(0.7))

	require.Len(t, drained, 1)
	assert.Equal(t, 1, q.Len())

	var s params.Set
	_, err := q.DrainAndApply(&s)
	require.NoError(t, err)
	assert.Equal(t, 0.7, s.Brightness)
}

func TestConcurrentAddLosesNothing(t *testing.T) {
	q := NewChangeQueue()

	var wg sync.WaitGroup
	for w := 0; w < 10; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Add(params.SetSaturation(0.5))
			}
		}()
	}
	wg.Wait()

	assert.Len(t, q.Drain(), 1000)
}

func TestPendingDoesNotDrain(t *testing.T) {
	q := NewChangeQueue()
	q.Add(params.SetHDRStrength(0.9))

	pending := q.Pending()
	require.Len(t, pending, 1)
	pending[0] = params.SetHDRStrength(0.1)

	assert.Equal(t, 1, q.Len())
	assert.Equal(t, params.SetHDRStrength(0.9), q.Drain()[0])
}
