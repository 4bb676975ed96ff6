package preview

import (
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(img *image.RGBA, c color.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func TestBeginRequiresResolution(t *testing.T) {
	b := NewBuffer(nil)
	_, err := b.Begin()
	assert.ErrorIs(t, err, ErrNoResolution)
	assert.Nil(t, b.Snapshot())
}

func TestResize(t *testing.T) {
	b := NewBuffer(nil)

	changed, err := b.Resize(4, 3)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, image.Pt(4, 3), b.Size())

	changed, err = b.Resize(4, 3)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = b.Resize(4, 5)
	require.NoError(t, err)
	assert.True(t, changed, "a height-only change must reallocate")

	_, err = b.Resize(0, 5)
	assert.Error(t, err)
}

func TestCommitCopiesWholeFrame(t *testing.T) {
	b := NewBuffer(nil)
	_, err := b.Resize(3, 2)
	require.NoError(t, err)

	var invalidations atomic.Int32
	b.SetInvalidateFunc(func() { invalidations.Add(1) })

	f, err := b.Begin()
	require.NoError(t, err)
	red := color.RGBA{R: 255, A: 255}
	fill(f.Target(), red)

	before := b.Snapshot()
	assert.Equal(t, color.RGBA{}, before.RGBAAt(0, 0), "visible must not change until commit")

	assert.True(t, b.Commit(f, nil))
	snap := b.Snapshot()
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			assert.Equal(t, red, snap.RGBAAt(x, y))
		}
	}
	assert.EqualValues(t, 1, invalidations.Load())
	assert.EqualValues(t, 1, b.Frames())
}

func TestFailedCommitKeepsLastGoodFrame(t *testing.T) {
	b := NewBuffer(nil)
	_, err := b.Resize(2, 2)
	require.NoError(t, err)

	green := color.RGBA{G: 255, A: 255}
	f, err := b.Begin()
	require.NoError(t, err)
	fill(f.Target(), green)
	require.True(t, b.Commit(f, nil))

	f, err = b.Begin()
	require.NoError(t, err)
	fill(f.Target(), color.RGBA{B: 255, A: 255})
	assert.False(t, b.Commit(f, errors.New("render failed")))

	assert.Equal(t, green, b.Snapshot().RGBAAt(1, 1))
	assert.EqualValues(t, 1, b.Frames())
}

func TestCommitAfterResizeIsDropped(t *testing.T) {
	b := NewBuffer(nil)
	_, err := b.Resize(2, 2)
	require.NoError(t, err)

	f, err := b.Begin()
	require.NoError(t, err)
	_, err = b.Resize(8, 8)
	require.NoError(t, err)

	assert.False(t, b.Commit(f, nil))
	assert.Equal(t, image.Pt(8, 8), b.Size())
}

func TestSnapshotIsIndependent(t *testing.T) {
	b := NewBuffer(nil)
	_, err := b.Resize(1, 1)
	require.NoError(t, err)

	snap := b.Snapshot()
	fill(snap, color.RGBA{R: 9, A: 255})
	assert.Equal(t, color.RGBA{}, b.Snapshot().RGBAAt(0, 0))
}

func TestReadersNeverSeeTornFrames(t *testing.T) {
	b := NewBuffer(nil)
	_, err := b.Resize(16, 16)
	require.NoError(t, err)

	colors := []color.RGBA{{R: 255, A: 255}, {G: 255, A: 255}}

	var wg sync.WaitGroup
	done := make(chan struct{})
	var torn atomic.Bool
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				snap := b.Snapshot()
				first := snap.RGBAAt(0, 0)
				if snap.RGBAAt(15, 15) != first {
					torn.Store(true)
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		f, err := b.Begin()
		require.NoError(t, err)
		fill(f.Target(), colors[i%2])
		b.Commit(f, nil)
	}
	close(done)
	wg.Wait()

	assert.False(t, torn.Load())
}
