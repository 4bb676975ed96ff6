// Effect pipeline contract consumed by the filter instances
package effects

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/microsoft/filter-effects/internal/params"
)

var (
	// ErrEmptyBuffer is returned when ingesting a nil or empty buffer.
	ErrEmptyBuffer = errors.New("empty image buffer")
	// ErrForeignSource is returned when a source created by one backend is
	// handed to another.
	ErrForeignSource = errors.New("source was not created by this pipeline")
	// ErrSourceClosed is returned when rendering a released source.
	ErrSourceClosed = errors.New("source already closed")
)

// Source is a decoded input image owned by exactly one consumer.
type Source interface {
	// Len is the length of the encoded buffer the source was built from.
	Len() int
	// Bounds of the decoded image.
	Bounds() image.Rectangle
	// Close releases the decoded image.
	Close() error
}

// StageKind identifies one effect stage.
type StageKind int

const (
	StageAntique StageKind = iota
	StageLomo
	StageSketch
	StageCartoon
)

func (k StageKind) String() string {
	switch k {
	case StageAntique:
		return "antique"
	case StageLomo:
		return "lomo"
	case StageSketch:
		return "sketch"
	case StageCartoon:
		return "cartoon"
	}
	return fmt.Sprintf("StageKind(%d)", int(k))
}

// Stage describes one effect of an effect graph. Only the fields used by
// Kind are read.
type Stage struct {
	Kind StageKind

	Brightness float64
	Saturation float64
	Vignetting params.LomoVignetting
	Style      params.LomoStyle

	SketchMode    params.SketchMode
	DistinctEdges bool
}

func Antique() Stage {
	return Stage{Kind: StageAntique}
}

func Lomo(brightness, saturation float64, vignetting params.LomoVignetting, style params.LomoStyle) Stage {
	return Stage{
		Kind:       StageLomo,
		Brightness: brightness,
		Saturation: saturation,
		Vignetting: vignetting,
		Style:      style,
	}
}

func Sketch(mode params.SketchMode) Stage {
	return Stage{Kind: StageSketch, SketchMode: mode}
}

func Cartoon(distinctEdges bool) Stage {
	return Stage{Kind: StageCartoon, DistinctEdges: distinctEdges}
}

// HDR configures the single-frame HDR effect.
type HDR struct {
	Strength         float64
	NoiseSuppression float64
	Saturation       float64
}

// Pipeline is an image-processing engine. Stages run in order; an empty
// stage list passes the source through.
type Pipeline interface {
	// NewSource decodes an encoded image buffer.
	NewSource(data []byte) (Source, error)
	// Render writes the processed image, scaled to fit, into dst.
	Render(ctx context.Context, src Source, stages []Stage, dst *image.RGBA) error
	// RenderJPEG encodes the processed image at full resolution.
	RenderJPEG(ctx context.Context, src Source, stages []Stage, quality int) ([]byte, error)
	// RenderHDR writes the HDR-processed image, scaled to fit, into dst.
	RenderHDR(ctx context.Context, src Source, hdr HDR, dst *image.RGBA) error
	// RenderHDRJPEG encodes the HDR-processed image at full resolution.
	RenderHDRJPEG(ctx context.Context, src Source, hdr HDR, quality int) ([]byte, error)
}
