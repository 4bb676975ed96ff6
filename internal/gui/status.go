package gui

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/microsoft/filter-effects/internal/filters"
	"github.com/microsoft/filter-effects/internal/metrics"
)

// StatusBar shows the last user-facing message and render statistics of the
// selected filter.
type StatusBar struct {
	recorder *metrics.Recorder
	message  *widget.Label
	stats    *widget.Label
	box      *fyne.Container
}

func NewStatusBar(recorder *metrics.Recorder) *StatusBar {
	sb := &StatusBar{
		recorder: recorder,
		message:  widget.NewLabel("Open an image to get started"),
		stats:    widget.NewLabel(""),
	}
	sb.box = container.NewBorder(nil, nil, sb.message, sb.stats)
	return sb
}

// SetMessage must be called on the UI goroutine.
func (sb *StatusBar) SetMessage(msg string) {
	sb.message.SetText(msg)
}

func (sb *StatusBar) ShowFilter(f *filters.Filter) {
	sb.stats.SetText(FormatStats(f, sb.recorder))
}

// FormatStats summarizes the render statistics of f.
func FormatStats(f *filters.Filter, recorder *metrics.Recorder) string {
	text := fmt.Sprintf("%s | frames %d", f.Name(), f.Frames())
	if recorder == nil {
		return text
	}
	s := recorder.Snapshot()[f.Name()]
	return fmt.Sprintf("%s | renders %d | coalesced %d | failed %d | last %s",
		text, s.Cycles, s.Coalesced, s.Failures, s.LastDuration.Round(time.Millisecond))
}

func (sb *StatusBar) Container() fyne.CanvasObject {
	return sb.box
}
