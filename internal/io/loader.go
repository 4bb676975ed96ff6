// Image loading and export
package io

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/microsoft/filter-effects/internal/logging"
)

// ErrUnsupportedFormat is returned for files whose extension is not a
// supported image format.
var ErrUnsupportedFormat = errors.New("unsupported image format")

var supportedFormats = []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp"}

// Loader reads image files from disk.
type Loader struct {
	logger logrus.FieldLogger
}

func NewLoader(logger logrus.FieldLogger) *Loader {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Loader{logger: logger}
}

// Load returns the encoded bytes of the image at path after checking they
// decode as a supported format.
func (l *Loader) Load(path string) ([]byte, error) {
	l.logger.WithField("path", path).Debug("LOADER: Loading image")

	if !IsSupported(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid or corrupted image file %s: %w", path, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid image dimensions in %s", path)
	}

	l.logger.WithFields(logrus.Fields{
		"path":   path,
		"format": format,
		"width":  cfg.Width,
		"height": cfg.Height,
	}).Info("LOADER: Image loaded successfully")
	return data, nil
}

// IsSupported reports whether path carries a supported image extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}

// SupportedExtensions lists the accepted file extensions.
func SupportedExtensions() []string {
	return append([]string(nil), supportedFormats...)
}
