// Pure Go pipeline backend
package effects

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/microsoft/filter-effects/internal/logging"
)

// DefaultJPEGQuality is used when a caller passes a quality outside 1..100.
const DefaultJPEGQuality = 90

// Soft implements Pipeline with disintegration/imaging. It needs no native
// libraries.
type Soft struct {
	logger logrus.FieldLogger
}

func NewSoft(logger logrus.FieldLogger) *Soft {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Soft{logger: logger}
}

type softSource struct {
	mu   sync.RWMutex
	size int
	img  *image.NRGBA
}

func (s *softSource) Len() int {
	return s.size
}

func (s *softSource) Bounds() image.Rectangle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.img == nil {
		return image.Rectangle{}
	}
	return s.img.Bounds()
}

func (s *softSource) Close() error {
	s.mu.Lock()
	s.img = nil
	s.mu.Unlock()
	return nil
}

func (s *softSource) image() (*image.NRGBA, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.img == nil {
		return nil, ErrSourceClosed
	}
	return s.img, nil
}

// NewSource decodes data honoring the EXIF orientation.
func (p *Soft) NewSource(data []byte) (Source, error) {
	if len(data) == 0 {
		return nil, ErrEmptyBuffer
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	src := &softSource{size: len(data), img: imaging.Clone(img)}
	p.logger.WithFields(logrus.Fields{
		"bytes":  len(data),
		"width":  src.img.Bounds().Dx(),
		"height": src.img.Bounds().Dy(),
	}).Debug("SOFT: Source decoded")
	return src, nil
}

func (p *Soft) input(src Source) (*image.NRGBA, error) {
	s, ok := src.(*softSource)
	if !ok {
		return nil, ErrForeignSource
	}
	return s.image()
}

func (p *Soft) process(ctx context.Context, src Source, stages []Stage) (*image.NRGBA, error) {
	img, err := p.input(src)
	if err != nil {
		return nil, err
	}
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img = ApplyStage(img, st)
	}
	return img, nil
}

func (p *Soft) Render(ctx context.Context, src Source, stages []Stage, dst *image.RGBA) error {
	img, err := p.process(ctx, src, stages)
	if err != nil {
		return err
	}
	Fit(dst, img)
	return nil
}

func (p *Soft) RenderJPEG(ctx context.Context, src Source, stages []Stage, quality int) ([]byte, error) {
	img, err := p.process(ctx, src, stages)
	if err != nil {
		return nil, err
	}
	return encodeJPEG(img, quality)
}

func (p *Soft) RenderHDR(ctx context.Context, src Source, hdr HDR, dst *image.RGBA) error {
	img, err := p.input(src)
	if err != nil {
		return err
	}
	Fit(dst, ApplyHDR(img, hdr))
	return nil
}

func (p *Soft) RenderHDRJPEG(ctx context.Context, src Source, hdr HDR, quality int) ([]byte, error) {
	img, err := p.input(src)
	if err != nil {
		return nil, err
	}
	return encodeJPEG(ApplyHDR(img, hdr), quality)
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
