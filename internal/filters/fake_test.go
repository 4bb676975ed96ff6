package filters

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/microsoft/filter-effects/internal/effects"
)

type fakeSource struct {
	id     int
	size   int
	closed atomic.Bool
}

func (s *fakeSource) Len() int                { return s.size }
func (s *fakeSource) Bounds() image.Rectangle { return image.Rect(0, 0, 8, 8) }
func (s *fakeSource) Close() error {
	s.closed.Store(true)
	return nil
}

type renderCall struct {
	source *fakeSource
	stages []effects.Stage
	hdr    *effects.HDR
}

// fakePipeline records every render. With a gate set, each preview render
// blocks until the test sends its result.
type fakePipeline struct {
	mu      sync.Mutex
	sources []*fakeSource
	calls   []renderCall
	jpegs   []renderCall

	gate    chan error
	started chan struct{}
	fail    error
}

func newFakePipeline(gated bool) *fakePipeline {
	p := &fakePipeline{started: make(chan struct{}, 16)}
	if gated {
		p.gate = make(chan error)
	}
	return p
}

func (p *fakePipeline) NewSource(data []byte) (effects.Source, error) {
	if len(data) == 0 {
		return nil, effects.ErrEmptyBuffer
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s := &fakeSource{id: len(p.sources), size: len(data)}
	p.sources = append(p.sources, s)
	return s, nil
}

func (p *fakePipeline) record(call renderCall, dst *image.RGBA) error {
	p.mu.Lock()
	p.calls = append(p.calls, call)
	p.mu.Unlock()

	p.started <- struct{}{}
	var err error
	if p.gate != nil {
		err = <-p.gate
	} else {
		err = p.fail
	}
	if err != nil {
		return err
	}

	shade := uint8(len(p.Calls()) * 40)
	for i := 0; i < len(dst.Pix); i += 4 {
		dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2], dst.Pix[i+3] = shade, 0, 0, 255
	}
	return nil
}

func (p *fakePipeline) Render(ctx context.Context, src effects.Source, stages []effects.Stage, dst *image.RGBA) error {
	return p.record(renderCall{source: src.(*fakeSource), stages: stages}, dst)
}

func (p *fakePipeline) RenderHDR(ctx context.Context, src effects.Source, hdr effects.HDR, dst *image.RGBA) error {
	return p.record(renderCall{source: src.(*fakeSource), hdr: &hdr}, dst)
}

func (p *fakePipeline) RenderJPEG(ctx context.Context, src effects.Source, stages []effects.Stage, quality int) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return nil, p.fail
	}
	p.jpegs = append(p.jpegs, renderCall{source: src.(*fakeSource), stages: stages})
	return []byte{0xff, 0xd8, byte(quality)}, nil
}

func (p *fakePipeline) RenderHDRJPEG(ctx context.Context, src effects.Source, hdr effects.HDR, quality int) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jpegs = append(p.jpegs, renderCall{source: src.(*fakeSource), hdr: &hdr})
	return []byte{0xff, 0xd8, byte(quality)}, nil
}

func (p *fakePipeline) Calls() []renderCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]renderCall(nil), p.calls...)
}

func (p *fakePipeline) Sources() []*fakeSource {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*fakeSource(nil), p.sources...)
}

func (p *fakePipeline) waitStarted(t *testing.T) {
	t.Helper()
	select {
	case <-p.started:
	case <-time.After(2 * time.Second):
		t.Fatal("render did not start")
	}
}

func (p *fakePipeline) assertNoStart(t *testing.T) {
	t.Helper()
	select {
	case <-p.started:
		t.Fatal("unexpected render")
	case <-time.After(50 * time.Millisecond):
	}
}

var errPipeline = errors.New("pipeline failure")

func waitIdle(t *testing.T, f *Filter) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.Wait(ctx))
}

func newTestFilter(t *testing.T, desc Descriptor, p *fakePipeline) *Filter {
	t.Helper()
	f, err := New(desc, p, nil)
	require.NoError(t, err)
	require.NoError(t, f.SetPreviewResolution(4, 4))
	return f
}

func pixel(img *image.RGBA) color.RGBA {
	return img.RGBAAt(0, 0)
}

func samplePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 9), B: 60, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
