package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/microsoft/filter-effects/internal/effects"
	"github.com/microsoft/filter-effects/internal/filters"
	fxio "github.com/microsoft/filter-effects/internal/io"
	"github.com/microsoft/filter-effects/internal/logging"
	"github.com/microsoft/filter-effects/internal/params"
)

type renderOptions struct {
	Input       string
	Filters     []string
	Settings    []string
	OutDir      string
	LibraryDir  string
	Quality     int
	Parallelism int
}

// selectFilters resolves filter names, keeping catalog order for an empty
// selection.
func selectFilters(names []string) ([]filters.Descriptor, error) {
	if len(names) == 0 {
		return filters.Catalog(), nil
	}

	var (
		descs []filters.Descriptor
		seen  = make(map[string]bool)
	)
	for _, name := range names {
		d, ok := filters.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown filter %q", name)
		}
		if seen[d.Name] {
			continue
		}
		seen[d.Name] = true
		descs = append(descs, d)
	}
	return descs, nil
}

func parseSettings(exprs []string) ([]params.Update, error) {
	updates := make([]params.Update, 0, len(exprs))
	for _, expr := range exprs {
		u, err := params.Parse(expr)
		if err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	return updates, nil
}

// applicable keeps the updates addressing parameters the filter exposes.
func applicable(d filters.Descriptor, updates []params.Update) []params.Update {
	var out []params.Update
	for _, u := range updates {
		for _, name := range d.Parameters {
			if u.Param == name {
				out = append(out, u)
				break
			}
		}
	}
	return out
}

// outputName derives "<input>_<filter>.jpg".
func outputName(input, filter string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	var b strings.Builder
	for _, r := range strings.ToLower(filter) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('_')
		}
	}
	return fmt.Sprintf("%s_%s.jpg", base, b.String())
}

// runRender renders the input through every selected filter and returns the
// written paths, in filter order.
func runRender(ctx context.Context, pipeline effects.Pipeline, opts renderOptions, logger logrus.FieldLogger) ([]string, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	descs, err := selectFilters(opts.Filters)
	if err != nil {
		return nil, err
	}
	updates, err := parseSettings(opts.Settings)
	if err != nil {
		return nil, err
	}

	data, err := fxio.NewLoader(logger).Load(opts.Input)
	if err != nil {
		return nil, err
	}

	var library *fxio.Library
	if opts.OutDir == "" {
		library = fxio.NewLibrary(opts.LibraryDir, logger)
	} else if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	paths := make([]string, len(descs))
	var (
		mu   sync.Mutex
		errs []error
	)

	var eg errgroup.Group
	if opts.Parallelism > 0 {
		eg.SetLimit(opts.Parallelism)
	}
	for i, d := range descs {
		eg.Go(func() error {
			path, err := renderOne(ctx, pipeline, d, data, applicable(d, updates), opts, library, logger)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}
			paths[i] = path
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	written := paths[:0]
	for _, p := range paths {
		if p != "" {
			written = append(written, p)
		}
	}
	return written, errors.Join(errs...)
}

func renderOne(ctx context.Context, pipeline effects.Pipeline, d filters.Descriptor, data []byte, updates []params.Update, opts renderOptions, library *fxio.Library, logger logrus.FieldLogger) (string, error) {
	log := logger.WithField("filter", d.Name)

	f, err := filters.New(d, pipeline, logger)
	if err != nil {
		return "", err
	}
	defer f.Close(context.Background())

	f.Stage(updates...)

	jpeg, err := f.RenderJPEG(ctx, data, opts.Quality)
	if err != nil {
		return "", err
	}

	if library != nil {
		path, err := library.Save(jpeg)
		if err != nil {
			return "", err
		}
		log.WithField("path", path).Info("RENDER: Saved to library")
		return path, nil
	}

	path := filepath.Join(opts.OutDir, outputName(opts.Input, d.Name))
	if err := os.WriteFile(path, jpeg, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	log.WithField("path", path).Info("RENDER: Image written")
	return path, nil
}
