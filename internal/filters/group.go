package filters

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/microsoft/filter-effects/internal/effects"
	"github.com/microsoft/filter-effects/internal/render"
)

// Group is the set of filter instances composed for one preview screen.
type Group struct {
	filters []*Filter
}

func NewGroup(descs []Descriptor, pipeline effects.Pipeline, logger logrus.FieldLogger, opts ...render.Option) (*Group, error) {
	g := &Group{}
	for _, d := range descs {
		f, err := New(d, pipeline, logger, opts...)
		if err != nil {
			g.Close(context.Background())
			return nil, err
		}
		g.filters = append(g.filters, f)
	}
	return g, nil
}

// Filters returns the instances in display order.
func (g *Group) Filters() []*Filter {
	return append([]*Filter(nil), g.filters...)
}

func (g *Group) Len() int {
	return len(g.filters)
}

// Lookup finds an instance by name, ignoring case.
func (g *Group) Lookup(name string) (*Filter, bool) {
	for _, f := range g.filters {
		if strings.EqualFold(f.Name(), name) {
			return f, true
		}
	}
	return nil, false
}

// SetBuffer hands the same encoded image to every filter. Each filter
// ingests its own source.
func (g *Group) SetBuffer(data []byte) error {
	var errs []error
	for _, f := range g.filters {
		if err := f.SetBuffer(data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (g *Group) SetPreviewResolution(width, height int) error {
	for _, f := range g.filters {
		if err := f.SetPreviewResolution(width, height); err != nil {
			return err
		}
	}
	return nil
}

// RequestApply triggers a render on every filter.
func (g *Group) RequestApply() {
	for _, f := range g.filters {
		f.RequestApply()
	}
}

// Wait blocks until every filter is idle.
func (g *Group) Wait(ctx context.Context) error {
	for _, f := range g.filters {
		if err := f.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close tears every filter down concurrently.
func (g *Group) Close(ctx context.Context) error {
	var eg errgroup.Group
	for _, f := range g.filters {
		f := f
		eg.Go(func() error {
			return f.Close(ctx)
		})
	}
	return eg.Wait()
}
