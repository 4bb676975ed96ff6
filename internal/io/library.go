package io

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/microsoft/filter-effects/internal/logging"
)

const (
	filePrefix = "FilterEffects_"
	timeLayout = "20060102_150405"
)

// Library stores exported JPEG images in a directory.
type Library struct {
	dir    string
	now    func() time.Time
	mu     sync.Mutex
	logger logrus.FieldLogger
}

func NewLibrary(dir string, logger logrus.FieldLogger) *Library {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Library{
		dir:    ExpandHome(dir),
		now:    time.Now,
		logger: logger,
	}
}

func (l *Library) Dir() string {
	return l.dir
}

// Save writes jpeg under a timestamped name and returns the path. Saves in
// the same second get a numeric suffix.
func (l *Library) Save(jpeg []byte) (string, error) {
	if len(jpeg) == 0 {
		return "", errors.New("save image: empty buffer")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", fmt.Errorf("create library directory: %w", err)
	}

	base := filePrefix + l.now().Format(timeLayout)
	for n := 0; ; n++ {
		name := base + ".jpg"
		if n > 0 {
			name = fmt.Sprintf("%s_%d.jpg", base, n)
		}
		path := filepath.Join(l.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create %s: %w", path, err)
		}

		if _, err := f.Write(jpeg); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close %s: %w", path, err)
		}

		l.logger.WithFields(logrus.Fields{
			"path":  path,
			"bytes": len(jpeg),
		}).Info("LIBRARY: Image saved successfully")
		return path, nil
	}
}

// ExpandHome resolves a leading ~ to the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
