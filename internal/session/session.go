// Capture session passed explicitly between the capture and preview screens
package session

import (
	"bytes"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/microsoft/filter-effects/internal/logging"
)

const previewJPEGQuality = 90

// Session holds the image being edited: the full-resolution buffer used for
// export and a downscaled buffer used for previews. Buffers handed out are
// shared and must be treated as read-only.
type Session struct {
	mu                sync.RWMutex
	full              []byte
	preview           []byte
	fullResolution    image.Point
	previewSize       image.Point
	previewResolution image.Point
	wasCaptured       bool

	logger logrus.FieldLogger
}

func New(previewResolution image.Point, logger logrus.FieldLogger) *Session {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Session{
		previewResolution: previewResolution,
		logger:            logger,
	}
}

// Load replaces the session image. captured tells whether the image came
// from the camera rather than the file system.
func (s *Session) Load(data []byte, captured bool) error {
	if len(data) == 0 {
		return fmt.Errorf("load session: empty buffer")
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	s.mu.RLock()
	target := s.previewResolution
	s.mu.RUnlock()

	small := imaging.Fit(img, target.X, target.Y, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, small, imaging.JPEG, imaging.JPEGQuality(previewJPEGQuality)); err != nil {
		return fmt.Errorf("encode preview buffer: %w", err)
	}

	s.mu.Lock()
	s.full = data
	s.preview = buf.Bytes()
	s.fullResolution = img.Bounds().Size()
	s.previewSize = small.Bounds().Size()
	s.wasCaptured = captured
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"full":     fmt.Sprintf("%dx%d", img.Bounds().Dx(), img.Bounds().Dy()),
		"preview":  fmt.Sprintf("%dx%d", small.Bounds().Dx(), small.Bounds().Dy()),
		"captured": captured,
	}).Info("SESSION: Image loaded")
	return nil
}

func (s *Session) HasImage() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.full) > 0
}

func (s *Session) FullResolutionBuffer() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.full
}

func (s *Session) PreviewBuffer() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preview
}

func (s *Session) FullResolution() image.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fullResolution
}

// PreviewSize is the size of the downscaled buffer, fitted inside
// PreviewResolution.
func (s *Session) PreviewSize() image.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.previewSize
}

// PreviewResolution is the bounding box previews are rendered into.
func (s *Session) PreviewResolution() image.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.previewResolution
}

func (s *Session) WasCaptured() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wasCaptured
}

// Reset drops the loaded image.
func (s *Session) Reset() {
	s.mu.Lock()
	s.full = nil
	s.preview = nil
	s.fullResolution = image.Point{}
	s.previewSize = image.Point{}
	s.wasCaptured = false
	s.mu.Unlock()
}
