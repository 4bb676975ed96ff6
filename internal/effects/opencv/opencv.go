// OpenCV pipeline backend
package opencv

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/microsoft/filter-effects/internal/effects"
	"github.com/microsoft/filter-effects/internal/logging"
)

// Pipeline implements effects.Pipeline on gocv. Sketch, cartoon and HDR
// run natively; lomo and antique reuse the pure Go stages.
type Pipeline struct {
	logger logrus.FieldLogger
}

func New(logger logrus.FieldLogger) *Pipeline {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Pipeline{logger: logger}
}

type source struct {
	mu   sync.RWMutex
	size int
	mat  gocv.Mat
	open bool
}

func (s *source) Len() int {
	return s.size
}

func (s *source) Bounds() image.Rectangle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, s.mat.Cols(), s.mat.Rows())
}

func (s *source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		s.mat.Close()
		s.open = false
	}
	return nil
}

// clone returns a private copy the caller must close.
func (s *source) clone() (gocv.Mat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return gocv.NewMat(), effects.ErrSourceClosed
	}
	return s.mat.Clone(), nil
}

func (p *Pipeline) NewSource(data []byte) (effects.Source, error) {
	if len(data) == 0 {
		return nil, effects.ErrEmptyBuffer
	}
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("decode image: no image data")
	}

	p.logger.WithFields(logrus.Fields{
		"bytes":    len(data),
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"channels": mat.Channels(),
	}).Debug("OPENCV: Source decoded")
	return &source{size: len(data), mat: mat, open: true}, nil
}

func (p *Pipeline) input(src effects.Source) (gocv.Mat, error) {
	s, ok := src.(*source)
	if !ok {
		return gocv.NewMat(), effects.ErrForeignSource
	}
	return s.clone()
}

func (p *Pipeline) process(ctx context.Context, src effects.Source, stages []effects.Stage) (gocv.Mat, error) {
	current, err := p.input(src)
	if err != nil {
		return current, err
	}

	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			current.Close()
			return gocv.NewMat(), err
		}

		next, err := p.applyStage(current, st)
		current.Close()
		if err != nil {
			return gocv.NewMat(), fmt.Errorf("%s stage: %w", st.Kind, err)
		}
		current = next
	}
	return current, nil
}

func (p *Pipeline) applyStage(input gocv.Mat, st effects.Stage) (gocv.Mat, error) {
	switch st.Kind {
	case effects.StageSketch:
		return sketch(input, st), nil
	case effects.StageCartoon:
		return cartoon(input, st.DistinctEdges), nil
	default:
		return viaImage(input, func(img *image.NRGBA) *image.NRGBA {
			return effects.ApplyStage(img, st)
		})
	}
}

func (p *Pipeline) Render(ctx context.Context, src effects.Source, stages []effects.Stage, dst *image.RGBA) error {
	result, err := p.process(ctx, src, stages)
	if err != nil {
		return err
	}
	defer result.Close()
	return fitInto(dst, result)
}

func (p *Pipeline) RenderJPEG(ctx context.Context, src effects.Source, stages []effects.Stage, quality int) ([]byte, error) {
	result, err := p.process(ctx, src, stages)
	if err != nil {
		return nil, err
	}
	defer result.Close()
	return encodeJPEG(result, quality)
}

func (p *Pipeline) RenderHDR(ctx context.Context, src effects.Source, settings effects.HDR, dst *image.RGBA) error {
	input, err := p.input(src)
	if err != nil {
		return err
	}
	result, err := hdr(input, settings)
	input.Close()
	if err != nil {
		return err
	}
	defer result.Close()
	return fitInto(dst, result)
}

func (p *Pipeline) RenderHDRJPEG(ctx context.Context, src effects.Source, settings effects.HDR, quality int) ([]byte, error) {
	input, err := p.input(src)
	if err != nil {
		return nil, err
	}
	result, err := hdr(input, settings)
	input.Close()
	if err != nil {
		return nil, err
	}
	defer result.Close()
	return encodeJPEG(result, quality)
}

// fitInto resizes mat to the fitted rectangle of dst and copies it there.
func fitInto(dst *image.RGBA, mat gocv.Mat) error {
	r := effects.FitRect(dst.Bounds(), image.Rect(0, 0, mat.Cols(), mat.Rows()))
	if r.Empty() {
		return fmt.Errorf("cannot fit %dx%d into %v", mat.Cols(), mat.Rows(), dst.Bounds())
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(mat, &resized, r.Size(), 0, 0, gocv.InterpolationArea)

	img, err := resized.ToImage()
	if err != nil {
		return fmt.Errorf("convert frame: %w", err)
	}
	effects.Fit(dst, img)
	return nil
}

func encodeJPEG(mat gocv.Mat, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		quality = effects.DefaultJPEGQuality
	}
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{int(gocv.IMWriteJpegQuality), quality})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// viaImage runs a pure Go stage over a BGR mat.
func viaImage(input gocv.Mat, fn func(*image.NRGBA) *image.NRGBA) (gocv.Mat, error) {
	img, err := input.ToImage()
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("convert mat: %w", err)
	}
	out := fn(imaging.Clone(img))
	return gocv.ImageToMatRGB(out)
}
