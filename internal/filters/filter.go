// internal/filters/filter.go
// Filter instance: parameters, pending changes, coalescer and preview pair
package filters

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/microsoft/filter-effects/internal/effects"
	"github.com/microsoft/filter-effects/internal/logging"
	"github.com/microsoft/filter-effects/internal/params"
	"github.com/microsoft/filter-effects/internal/preview"
	"github.com/microsoft/filter-effects/internal/render"
)

var (
	// ErrNoSource is reported when rendering before SetBuffer.
	ErrNoSource = render.ErrNoInput
	// ErrClosed is returned by operations on a closed filter.
	ErrClosed = errors.New("filter closed")
)

// Filter is one configured filter variant with its own state machine,
// parameters and preview buffers.
type Filter struct {
	desc     Descriptor
	pipeline effects.Pipeline
	logger   logrus.FieldLogger

	mu        sync.Mutex
	source    effects.Source
	rendering effects.Source   // source held by the in-flight cycle
	retired   []effects.Source // replaced while in use, closed after the cycle
	params    params.Set
	closed    bool

	onManipulated func(*Filter)

	changes   *render.ChangeQueue
	coalescer *render.Coalescer
	preview   *preview.Buffer
}

// New creates a filter instance. Options configure its coalescer.
func New(desc Descriptor, pipeline effects.Pipeline, logger logrus.FieldLogger, opts ...render.Option) (*Filter, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if pipeline == nil {
		return nil, fmt.Errorf("filter %s: nil pipeline", desc.Name)
	}
	if logger == nil {
		logger = logging.Discard()
	}

	f := &Filter{
		desc:     desc,
		pipeline: pipeline,
		logger:   logger.WithField("filter", desc.Name),
		params:   desc.Defaults,
		changes:  render.NewChangeQueue(),
	}
	f.preview = preview.NewBuffer(f.logger)
	f.coalescer = render.NewCoalescer(desc.Name, f.renderCycle, logger, opts...)
	return f, nil
}

func (f *Filter) Name() string             { return f.desc.Name }
func (f *Filter) ShortDescription() string { return f.desc.ShortDescription }
func (f *Filter) Kind() Kind               { return f.desc.Kind }
func (f *Filter) Descriptor() Descriptor   { return f.desc }

// ParameterInfo lists the parameters exposed to a property surface.
func (f *Filter) ParameterInfo() []params.ParameterInfo {
	return f.desc.ParameterInfo()
}

// Parameters returns the resolved parameter set. Queued updates are not
// included until the next render cycle drains them.
func (f *Filter) Parameters() params.Set {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.params
}

// Pending returns the number of updates waiting for a render cycle.
func (f *Filter) Pending() int {
	return f.changes.Len()
}

// State returns the coalescer state.
func (f *Filter) State() render.State {
	return f.coalescer.State()
}

// OnManipulated registers a listener called after every Update.
func (f *Filter) OnManipulated(fn func(*Filter)) {
	f.mu.Lock()
	f.onManipulated = fn
	f.mu.Unlock()
}

// SetInvalidateFunc registers the redraw callback run after each committed
// preview frame.
func (f *Filter) SetInvalidateFunc(fn func()) {
	f.preview.SetInvalidateFunc(fn)
}

// SetBuffer ingests an encoded image. The previous source is released, or
// after the in-flight cycle when that cycle still uses it.
func (f *Filter) SetBuffer(data []byte) error {
	if len(data) == 0 {
		f.logger.Warn("FILTER: The given buffer is empty")
		return effects.ErrEmptyBuffer
	}

	src, err := f.pipeline.NewSource(data)
	if err != nil {
		return fmt.Errorf("filter %s: ingest buffer: %w", f.desc.Name, err)
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		src.Close()
		return ErrClosed
	}
	old := f.source
	f.source = src
	var release effects.Source
	if old != nil {
		if old == f.rendering {
			f.retired = append(f.retired, old)
		} else {
			release = old
		}
	}
	f.mu.Unlock()

	if release != nil {
		release.Close()
	}
	f.logger.WithField("bytes", src.Len()).Debug("FILTER: Buffer set")
	return nil
}

// HasSource reports whether a buffer has been set.
func (f *Filter) HasSource() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.source != nil
}

// SetPreviewResolution sizes the preview bitmap pair.
func (f *Filter) SetPreviewResolution(width, height int) error {
	_, err := f.preview.Resize(width, height)
	return err
}

// PreviewResolution returns the current preview size.
func (f *Filter) PreviewResolution() image.Point {
	return f.preview.Size()
}

// Preview returns a copy of the last committed preview frame.
func (f *Filter) Preview() *image.RGBA {
	return f.preview.Snapshot()
}

// Frames returns how many preview frames have been committed.
func (f *Filter) Frames() uint64 {
	return f.preview.Frames()
}

// Update queues parameter changes and requests a render.
func (f *Filter) Update(updates ...params.Update) {
	f.changes.Add(updates...)
	f.RequestApply()

	f.mu.Lock()
	fn := f.onManipulated
	f.mu.Unlock()
	if fn != nil {
		fn(f)
	}
}

// Stage queues parameter changes without requesting a render. They are
// applied by the next render cycle or export.
func (f *Filter) Stage(updates ...params.Update) {
	f.changes.Add(updates...)
}

// RequestApply triggers a render of the current parameters. Requests made
// while a render is in flight coalesce into one follow-up render.
func (f *Filter) RequestApply() {
	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if closed {
		f.logger.Debug("FILTER: Ignoring apply request on closed filter")
		return
	}
	f.coalescer.RequestApply()
}

// Wait blocks until no render is in flight.
func (f *Filter) Wait(ctx context.Context) error {
	return f.coalescer.Wait(ctx)
}

// renderCycle drains the pending changes and renders one preview frame.
func (f *Filter) renderCycle(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		f.logger.Debug("FILTER: Skipping render of closed filter")
		return nil
	}
	src := f.source
	if src == nil {
		f.mu.Unlock()
		f.logger.Warn("FILTER: Render requested but no buffer set")
		return ErrNoSource
	}
	applied, err := f.changes.DrainAndApply(&f.params)
	p := f.params
	f.rendering = src
	f.mu.Unlock()

	defer f.finishCycle()

	if err != nil {
		f.logger.WithError(err).Warn("FILTER: Some parameter updates were rejected")
	}

	frame, err := f.preview.Begin()
	if err != nil {
		return err
	}

	start := time.Now()
	f.logger.WithField("applied_changes", applied).Debug("FILTER: Rendering")
	err = f.renderPreview(ctx, src, p, frame.Target())
	if f.preview.Commit(frame, err) {
		f.logger.WithField("duration_ms", time.Since(start).Milliseconds()).Debug("FILTER: Preview frame committed")
	}
	return err
}

func (f *Filter) finishCycle() {
	f.mu.Lock()
	f.rendering = nil
	retired := f.retired
	f.retired = nil
	f.mu.Unlock()

	for _, src := range retired {
		src.Close()
	}
}

// renderPreview is the single render driver for every descriptor kind.
func (f *Filter) renderPreview(ctx context.Context, src effects.Source, p params.Set, dst *image.RGBA) error {
	if f.desc.Kind == KindHDR {
		return f.pipeline.RenderHDR(ctx, src, hdrSettings(p), dst)
	}
	return f.pipeline.Render(ctx, src, f.desc.Stages(p), dst)
}

// RenderJPEG renders data at full resolution with the current parameters,
// including updates not yet drained. The preview and the state machine are
// untouched.
func (f *Filter) RenderJPEG(ctx context.Context, data []byte, quality int) ([]byte, error) {
	if len(data) == 0 {
		f.logger.Warn("FILTER: RenderJPEG called with an empty buffer")
		return nil, effects.ErrEmptyBuffer
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, ErrClosed
	}
	p := f.params
	f.mu.Unlock()
	for _, u := range f.changes.Pending() {
		_ = u.Apply(&p)
	}

	src, err := f.pipeline.NewSource(data)
	if err != nil {
		return nil, fmt.Errorf("filter %s: ingest buffer: %w", f.desc.Name, err)
	}
	defer src.Close()

	var out []byte
	if f.desc.Kind == KindHDR {
		out, err = f.pipeline.RenderHDRJPEG(ctx, src, hdrSettings(p), quality)
	} else {
		out, err = f.pipeline.RenderJPEG(ctx, src, f.desc.Stages(p), quality)
	}
	if err != nil {
		return nil, fmt.Errorf("filter %s: render jpeg: %w", f.desc.Name, err)
	}
	return out, nil
}

// Close stops accepting render requests, waits for the in-flight render to
// settle and releases the source. A Close that timed out can be retried.
func (f *Filter) Close(ctx context.Context) error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()

	if err := f.coalescer.Wait(ctx); err != nil {
		return fmt.Errorf("filter %s: wait for render: %w", f.desc.Name, err)
	}

	f.mu.Lock()
	src := f.source
	f.source = nil
	f.mu.Unlock()

	if src != nil {
		src.Close()
	}
	f.logger.Debug("FILTER: Disposed")
	return nil
}
