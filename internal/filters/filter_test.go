package filters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microsoft/filter-effects/internal/effects"
	"github.com/microsoft/filter-effects/internal/params"
	"github.com/microsoft/filter-effects/internal/render"
)

func TestNewValidatesDescriptor(t *testing.T) {
	_, err := New(Descriptor{Name: "broken", Kind: KindComposite}, newFakePipeline(false), nil)
	assert.Error(t, err)

	_, err = New(SixthGear(), nil, nil)
	assert.Error(t, err)
}

// Updates made while a render is in flight are resolved last-write-wins by
// the single follow-up render.
func TestLatestBrightnessRendersAfterInFlightRender(t *testing.T) {
	p := newFakePipeline(true)
	f := newTestFilter(t, SixthGear(), p)
	require.NoError(t, f.SetBuffer([]byte{1, 2, 3}))

	f.RequestApply()
	p.waitStarted(t)
	assert.Equal(t, render.Rendering, f.State())

	f.changes.Add(params.SetBrightness(0.2))
	f.changes.Add(params.SetBrightness(0.8))
	f.RequestApply()
	assert.Equal(t, render.RenderingWithPending, f.State())

	p.gate <- nil
	p.waitStarted(t)
	p.gate <- nil
	waitIdle(t, f)

	calls := p.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, 0.5, calls[0].stages[0].Brightness)
	assert.Equal(t, 0.8, calls[1].stages[0].Brightness)
	assert.Equal(t, 0.8, f.Parameters().Brightness)
	assert.Equal(t, render.Idle, f.State())
	p.assertNoStart(t)
}

func TestRenderWithoutBufferReturnsToIdle(t *testing.T) {
	p := newFakePipeline(false)
	f := newTestFilter(t, SixthGear(), p)

	f.RequestApply()
	waitIdle(t, f)

	assert.Equal(t, render.Idle, f.State())
	assert.Empty(t, p.Calls())
	assert.Zero(t, f.Frames())
}

func TestBackToBackRequestsRenderTwice(t *testing.T) {
	p := newFakePipeline(true)
	f := newTestFilter(t, Marvel(), p)
	require.NoError(t, f.SetBuffer([]byte{1}))

	f.RequestApply()
	f.RequestApply()
	f.RequestApply()

	p.waitStarted(t)
	p.gate <- nil
	p.waitStarted(t)
	p.gate <- nil
	waitIdle(t, f)

	p.assertNoStart(t)
	assert.Len(t, p.Calls(), 2)
	assert.EqualValues(t, 2, f.Frames())
}

func TestFailedRenderKeepsVisibleFrame(t *testing.T) {
	p := newFakePipeline(true)
	f := newTestFilter(t, EightiesPopSong(), p)
	require.NoError(t, f.SetBuffer([]byte{1}))

	f.RequestApply()
	p.waitStarted(t)
	p.gate <- nil
	waitIdle(t, f)
	good := pixel(f.Preview())
	require.Equal(t, uint8(255), good.A)

	f.RequestApply()
	p.waitStarted(t)
	f.RequestApply()
	p.gate <- errPipeline
	p.waitStarted(t)
	p.gate <- errPipeline
	waitIdle(t, f)

	assert.Equal(t, good, pixel(f.Preview()))
	assert.EqualValues(t, 1, f.Frames())
	assert.Equal(t, render.Idle, f.State())
}

func TestDescriptorKindsMapToPipelineCalls(t *testing.T) {
	tests := []struct {
		desc  Descriptor
		check func(t *testing.T, call renderCall)
	}{
		{Original(), func(t *testing.T, call renderCall) {
			assert.Empty(t, call.stages)
			assert.Nil(t, call.hdr)
		}},
		{SadHipster(), func(t *testing.T, call renderCall) {
			require.Len(t, call.stages, 2)
			assert.Equal(t, effects.StageAntique, call.stages[0].Kind)
			assert.Equal(t, effects.StageLomo, call.stages[1].Kind)
			assert.Equal(t, params.StyleYellow, call.stages[1].Style)
			assert.Equal(t, params.VignettingMedium, call.stages[1].Vignetting)
		}},
		{EightiesPopSong(), func(t *testing.T, call renderCall) {
			require.Len(t, call.stages, 1)
			assert.Equal(t, effects.Sketch(params.SketchGray), call.stages[0])
		}},
		{Surrounded(), func(t *testing.T, call renderCall) {
			assert.Nil(t, call.stages)
			require.NotNil(t, call.hdr)
			assert.Equal(t, effects.HDR{Strength: 0.5, NoiseSuppression: 0.3, Saturation: 0.5}, *call.hdr)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.desc.Name, func(t *testing.T) {
			p := newFakePipeline(false)
			f := newTestFilter(t, tt.desc, p)
			require.NoError(t, f.SetBuffer([]byte{1}))

			f.RequestApply()
			waitIdle(t, f)

			calls := p.Calls()
			require.Len(t, calls, 1)
			tt.check(t, calls[0])
		})
	}
}

func TestHDRUpdatesReachEffect(t *testing.T) {
	p := newFakePipeline(false)
	f := newTestFilter(t, Surrounded(), p)
	require.NoError(t, f.SetBuffer([]byte{1}))

	f.Update(params.SetHDRStrength(0.9), params.SetHDRNoiseSuppression(0.1))
	waitIdle(t, f)

	calls := p.Calls()
	require.NotEmpty(t, calls)
	last := calls[len(calls)-1]
	assert.Equal(t, 0.9, last.hdr.Strength)
	assert.Equal(t, 0.1, last.hdr.NoiseSuppression)
}

func TestUpdateNotifiesListener(t *testing.T) {
	p := newFakePipeline(false)
	f := newTestFilter(t, Marvel(), p)
	require.NoError(t, f.SetBuffer([]byte{1}))

	var notified *Filter
	f.OnManipulated(func(got *Filter) { notified = got })
	f.Update(params.SetDistinctEdges(true))
	waitIdle(t, f)

	assert.Same(t, f, notified)
	assert.True(t, f.Parameters().DistinctEdges)
	assert.Zero(t, f.Pending())
}

func TestSetBufferReleasesReplacedSource(t *testing.T) {
	p := newFakePipeline(false)
	f := newTestFilter(t, Original(), p)

	assert.ErrorIs(t, f.SetBuffer(nil), effects.ErrEmptyBuffer)
	assert.False(t, f.HasSource())

	require.NoError(t, f.SetBuffer([]byte{1}))
	require.NoError(t, f.SetBuffer([]byte{2}))

	sources := p.Sources()
	require.Len(t, sources, 2)
	assert.True(t, sources[0].closed.Load())
	assert.False(t, sources[1].closed.Load())
}

func TestSetBufferDuringRenderDefersRelease(t *testing.T) {
	p := newFakePipeline(true)
	f := newTestFilter(t, Original(), p)
	require.NoError(t, f.SetBuffer([]byte{1}))

	f.RequestApply()
	p.waitStarted(t)

	require.NoError(t, f.SetBuffer([]byte{2}))
	sources := p.Sources()
	assert.False(t, sources[0].closed.Load(), "source in use must not be released")

	f.RequestApply()
	p.gate <- nil
	p.waitStarted(t)
	assert.True(t, sources[0].closed.Load())
	p.gate <- nil
	waitIdle(t, f)

	calls := p.Calls()
	require.Len(t, calls, 2)
	assert.Same(t, sources[0], calls[0].source)
	assert.Same(t, sources[1], calls[1].source)
}

func TestCloseReleasesAndStopsRendering(t *testing.T) {
	p := newFakePipeline(true)
	f := newTestFilter(t, Original(), p)
	require.NoError(t, f.SetBuffer([]byte{1}))

	f.RequestApply()
	p.waitStarted(t)

	closed := make(chan error, 1)
	go func() { closed <- f.Close(context.Background()) }()

	select {
	case <-closed:
		t.Fatal("Close returned while a render was in flight")
	case <-time.After(30 * time.Millisecond):
	}

	p.gate <- nil
	require.NoError(t, <-closed)
	assert.True(t, p.Sources()[0].closed.Load())

	f.RequestApply()
	p.assertNoStart(t)
	assert.ErrorIs(t, f.SetBuffer([]byte{3}), ErrClosed)
	require.NoError(t, f.Close(context.Background()))

	_, err := f.RenderJPEG(context.Background(), []byte{1}, 90)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCloseHonorsContext(t *testing.T) {
	p := newFakePipeline(true)
	f := newTestFilter(t, Original(), p)
	require.NoError(t, f.SetBuffer([]byte{1}))

	f.RequestApply()
	p.waitStarted(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.Close(ctx), context.DeadlineExceeded)
	assert.False(t, p.Sources()[0].closed.Load())

	p.gate <- nil
	require.NoError(t, f.Close(context.Background()))
	assert.True(t, p.Sources()[0].closed.Load())
}

func TestRenderJPEGUsesPendingUpdates(t *testing.T) {
	p := newFakePipeline(false)
	f := newTestFilter(t, SixthGear(), p)

	f.Stage(params.SetSaturation(0.9))
	assert.Equal(t, render.Idle, f.State(), "staging does not request a render")
	out, err := f.RenderJPEG(context.Background(), []byte{1, 2}, 77)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 77}, out)

	require.Len(t, p.jpegs, 1)
	assert.Equal(t, 0.9, p.jpegs[0].stages[0].Saturation)
	assert.True(t, p.jpegs[0].source.closed.Load(), "export source is temporary")
	assert.Equal(t, 1, f.Pending(), "export must not drain the queue")
	assert.Empty(t, p.Calls(), "export must not touch the preview")

	_, err = f.RenderJPEG(context.Background(), nil, 77)
	assert.ErrorIs(t, err, effects.ErrEmptyBuffer)
}

func TestRenderJPEGHDR(t *testing.T) {
	p := newFakePipeline(false)
	f := newTestFilter(t, Surrounded(), p)

	_, err := f.RenderJPEG(context.Background(), []byte{1}, 90)
	require.NoError(t, err)
	require.Len(t, p.jpegs, 1)
	require.NotNil(t, p.jpegs[0].hdr)
	assert.Equal(t, 0.5, p.jpegs[0].hdr.Strength)
}

func TestRenderJPEGFailureIsReported(t *testing.T) {
	p := newFakePipeline(false)
	p.fail = errPipeline
	f := newTestFilter(t, SixthGear(), p)

	_, err := f.RenderJPEG(context.Background(), []byte{1}, 90)
	assert.ErrorIs(t, err, errPipeline)
}
