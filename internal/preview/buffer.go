// Double-buffered preview bitmaps: renders land in temp, the UI reads visible
package preview

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"

	"github.com/microsoft/filter-effects/internal/logging"
)

// ErrNoResolution is returned by Begin before Resize was called.
var ErrNoResolution = errors.New("preview resolution not set")

// Buffer owns the temp/visible bitmap pair of one filter instance. The temp
// bitmap is written only by the in-flight render; visible is replaced only
// by a full copy of a completed temp bitmap.
type Buffer struct {
	mu      sync.RWMutex
	temp    *image.RGBA
	visible *image.RGBA
	frames  uint64

	onInvalidate func()
	logger       logrus.FieldLogger
}

func NewBuffer(logger logrus.FieldLogger) *Buffer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Buffer{logger: logger}
}

// SetInvalidateFunc registers the redraw callback run after every commit.
func (b *Buffer) SetInvalidateFunc(fn func()) {
	b.mu.Lock()
	b.onInvalidate = fn
	b.mu.Unlock()
}

// Resize allocates a fresh pair when either dimension differs from the
// current one. It reports whether the pair was reallocated.
func (b *Buffer) Resize(width, height int) (bool, error) {
	if width <= 0 || height <= 0 {
		return false, fmt.Errorf("invalid preview resolution: %dx%d", width, height)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.visible != nil {
		size := b.visible.Bounds().Size()
		if size.X == width && size.Y == height {
			return false, nil
		}
	}

	rect := image.Rect(0, 0, width, height)
	b.temp = image.NewRGBA(rect)
	b.visible = image.NewRGBA(rect)
	b.logger.WithFields(logrus.Fields{
		"width":  width,
		"height": height,
	}).Debug("PREVIEW: Resolution changed")
	return true, nil
}

// Size returns the preview resolution, zero before Resize.
func (b *Buffer) Size() image.Point {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.visible == nil {
		return image.Point{}
	}
	return b.visible.Bounds().Size()
}

// Frame is the render target of one render cycle.
type Frame struct {
	target *image.RGBA
}

// Target is the bitmap the pipeline writes into.
func (f *Frame) Target() *image.RGBA {
	return f.target
}

// Begin hands out the temp bitmap as the write target of a render cycle.
func (b *Buffer) Begin() (*Frame, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.temp == nil {
		return nil, ErrNoResolution
	}
	return &Frame{target: b.temp}, nil
}

// Commit publishes a finished frame. On renderErr, or when the pair was
// reallocated while the frame was rendering, visible keeps its last good
// contents and Commit returns false.
func (b *Buffer) Commit(f *Frame, renderErr error) bool {
	if f == nil || renderErr != nil {
		return false
	}

	b.mu.Lock()
	if f.target != b.temp {
		b.mu.Unlock()
		b.logger.Debug("PREVIEW: Dropping frame rendered for a previous resolution")
		return false
	}
	draw.Draw(b.visible, b.visible.Bounds(), b.temp, image.Point{}, draw.Src)
	b.frames++
	invalidate := b.onInvalidate
	b.mu.Unlock()

	if invalidate != nil {
		invalidate()
	}
	return true
}

// Snapshot returns a copy of the visible bitmap, nil before Resize.
func (b *Buffer) Snapshot() *image.RGBA {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.visible == nil {
		return nil
	}
	out := image.NewRGBA(b.visible.Bounds())
	copy(out.Pix, b.visible.Pix)
	return out
}

// Frames returns how many frames have been committed.
func (b *Buffer) Frames() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.frames
}
