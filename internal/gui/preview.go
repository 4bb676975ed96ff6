package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"github.com/sirupsen/logrus"

	"github.com/microsoft/filter-effects/internal/filters"
)

// FilterView shows one filter's preview next to its property panel.
type FilterView struct {
	filter      *filters.Filter
	logger      logrus.FieldLogger
	image       *canvas.Image
	placeholder fyne.CanvasObject
	stack       *fyne.Container
	properties  *PropertiesPanel
	content     fyne.CanvasObject

	onFrame func(*filters.Filter)
}

func NewFilterView(f *filters.Filter, logger logrus.FieldLogger) *FilterView {
	v := &FilterView{
		filter: f,
		logger: logger.WithField("filter", f.Name()),
	}

	v.image = canvas.NewImageFromImage(nil)
	v.image.FillMode = canvas.ImageFillContain
	v.image.ScaleMode = canvas.ImageScaleSmooth
	v.image.SetMinSize(fyne.NewSize(320, 240))
	v.image.Hide()

	v.placeholder = emptyState()
	v.stack = container.NewStack(v.placeholder, v.image)
	v.properties = NewPropertiesPanel(f, v.logger)

	split := container.NewHSplit(v.stack, container.NewVScroll(v.properties.Container()))
	split.SetOffset(0.72)
	v.content = split

	// Commits arrive on the render goroutine.
	f.SetInvalidateFunc(func() {
		fyne.Do(v.refresh)
	})
	return v
}

// OnFrame registers a callback run on the UI goroutine after each redraw.
func (v *FilterView) OnFrame(fn func(*filters.Filter)) {
	v.onFrame = fn
}

func (v *FilterView) refresh() {
	frame := v.filter.Preview()
	if frame == nil {
		return
	}
	v.image.Image = frame
	if !v.image.Visible() {
		v.placeholder.Hide()
		v.image.Show()
	}
	v.image.Refresh()
	if v.onFrame != nil {
		v.onFrame(v.filter)
	}
}

func (v *FilterView) Filter() *filters.Filter {
	return v.filter
}

func (v *FilterView) Properties() *PropertiesPanel {
	return v.properties
}

func (v *FilterView) Container() fyne.CanvasObject {
	return v.content
}
