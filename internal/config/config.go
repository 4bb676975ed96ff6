package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "filter-effects.yaml"

const (
	BackendSoft   = "soft"
	BackendOpenCV = "opencv"
)

// Config represents the optional filter-effects.yaml configuration.
type Config struct {
	LogLevel string        `yaml:"log_level,omitempty"`
	Backend  string        `yaml:"backend,omitempty"`
	Preview  PreviewConfig `yaml:"preview"`
	Export   ExportConfig  `yaml:"export"`
	Render   RenderConfig  `yaml:"render"`
}

// PreviewConfig bounds the preview bitmap.
type PreviewConfig struct {
	Width  int `yaml:"width,omitempty"`
	Height int `yaml:"height,omitempty"`
}

type ExportConfig struct {
	JPEGQuality int    `yaml:"jpeg_quality,omitempty"`
	Directory   string `yaml:"directory,omitempty"`
}

type RenderConfig struct {
	// Parallelism limits concurrent full-resolution exports.
	Parallelism int `yaml:"parallelism,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Backend:  BackendSoft,
		Preview:  PreviewConfig{Width: 800, Height: 600},
		Export: ExportConfig{
			JPEGQuality: 90,
			Directory:   filepath.Join("~", "Pictures", "FilterEffects"),
		},
		Render: RenderConfig{Parallelism: runtime.NumCPU()},
	}
}

// LoadOptional reads the file at path if present. An empty path means
// FileName in the working directory.
func LoadOptional(path string) (*Config, error) {
	if path == "" {
		path = FileName
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.merge(file)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return cfg, nil
}

// merge copies the set fields of o over c.
func (c *Config) merge(o Config) {
	if v := strings.TrimSpace(o.LogLevel); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(o.Backend); v != "" {
		c.Backend = strings.ToLower(v)
	}
	if o.Preview.Width != 0 {
		c.Preview.Width = o.Preview.Width
	}
	if o.Preview.Height != 0 {
		c.Preview.Height = o.Preview.Height
	}
	if o.Export.JPEGQuality != 0 {
		c.Export.JPEGQuality = o.Export.JPEGQuality
	}
	if v := strings.TrimSpace(o.Export.Directory); v != "" {
		c.Export.Directory = v
	}
	if o.Render.Parallelism != 0 {
		c.Render.Parallelism = o.Render.Parallelism
	}
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendSoft, BackendOpenCV:
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}
	if c.Preview.Width <= 0 || c.Preview.Height <= 0 {
		errs = append(errs, fmt.Errorf("preview size must be positive, got %dx%d", c.Preview.Width, c.Preview.Height))
	}
	if c.Export.JPEGQuality < 1 || c.Export.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("jpeg_quality must be within 1..100, got %d", c.Export.JPEGQuality))
	}
	if c.Render.Parallelism < 1 {
		errs = append(errs, fmt.Errorf("parallelism must be at least 1, got %d", c.Render.Parallelism))
	}
	return errors.Join(errs...)
}
