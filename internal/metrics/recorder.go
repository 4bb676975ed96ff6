// Render metrics collected from coalescer events
package metrics

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/microsoft/filter-effects/internal/logging"
	"github.com/microsoft/filter-effects/internal/render"
)

// Stats aggregates the events of one filter.
type Stats struct {
	Requests     int64         `json:"requests"`
	Coalesced    int64         `json:"coalesced"`
	Cycles       int64         `json:"cycles"`
	Failures     int64         `json:"failures"`
	MissingInput int64         `json:"missing_input"`
	LastDuration time.Duration `json:"last_duration"`
	MeanDuration time.Duration `json:"mean_duration"`

	total time.Duration
}

func (s *Stats) add(o Stats) {
	s.Requests += o.Requests
	s.Coalesced += o.Coalesced
	s.Cycles += o.Cycles
	s.Failures += o.Failures
	s.MissingInput += o.MissingInput
	s.total += o.total
	if s.Cycles > 0 {
		s.MeanDuration = s.total / time.Duration(s.Cycles)
	}
}

// Recorder implements render.Observer. One recorder may be shared by every
// filter of a group.
type Recorder struct {
	mu     sync.Mutex
	stats  map[string]*Stats
	logger logrus.FieldLogger
}

var _ render.Observer = (*Recorder)(nil)

func NewRecorder(logger logrus.FieldLogger) *Recorder {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Recorder{
		stats:  make(map[string]*Stats),
		logger: logger,
	}
}

func (r *Recorder) entry(name string) *Stats {
	s, ok := r.stats[name]
	if !ok {
		s = &Stats{}
		r.stats[name] = s
	}
	return s
}

// RequestReceived counts a request. Requests that find a render already in
// flight are counted as coalesced.
func (r *Recorder) RequestReceived(name string, found render.State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.entry(name)
	s.Requests++
	if found != render.Idle {
		s.Coalesced++
	}
}

func (r *Recorder) CycleFinished(name string, d time.Duration, err error) {
	r.mu.Lock()
	s := r.entry(name)
	s.Cycles++
	s.total += d
	s.LastDuration = d
	s.MeanDuration = s.total / time.Duration(s.Cycles)
	switch {
	case err == nil:
	case errors.Is(err, render.ErrNoInput):
		s.MissingInput++
	default:
		s.Failures++
	}
	cycles := s.Cycles
	r.mu.Unlock()

	r.logger.WithFields(logrus.Fields{
		"filter":   name,
		"cycle":    cycles,
		"duration": d,
	}).Debug("METRICS: Cycle recorded")
}

// Snapshot returns a copy of the per-filter statistics.
func (r *Recorder) Snapshot() map[string]Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]Stats, len(r.stats))
	for name, s := range r.stats {
		out[name] = *s
	}
	return out
}

// Total sums the statistics of every filter. LastDuration is left zero.
func (r *Recorder) Total() Stats {
	var total Stats
	for _, s := range r.Snapshot() {
		total.add(s)
	}
	return total
}

// Names lists the filters seen so far, sorted.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.stats))
	for name := range r.stats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset clears all statistics.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.stats = make(map[string]*Stats)
	r.mu.Unlock()
}
