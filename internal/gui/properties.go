// Property panel generated from a filter's parameter descriptions
package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"github.com/microsoft/filter-effects/internal/filters"
	"github.com/microsoft/filter-effects/internal/params"
)

// PropertiesPanel holds one control per filter parameter. Every change is
// queued on the filter, which coalesces the resulting renders.
type PropertiesPanel struct {
	filter *filters.Filter
	logger logrus.FieldLogger

	vbox     *fyne.Container
	controls map[params.Name]fyne.CanvasObject
	resets   []func()
}

func NewPropertiesPanel(f *filters.Filter, logger logrus.FieldLogger) *PropertiesPanel {
	pp := &PropertiesPanel{
		filter:   f,
		logger:   logger,
		controls: make(map[params.Name]fyne.CanvasObject),
	}
	pp.initializeUI()
	return pp
}

func (pp *PropertiesPanel) initializeUI() {
	desc := pp.filter.Descriptor()
	pp.vbox = container.NewVBox(
		widget.NewLabelWithStyle(desc.Name, fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabel(desc.ShortDescription),
		widget.NewSeparator(),
	)

	infos := pp.filter.ParameterInfo()
	if len(infos) == 0 {
		pp.vbox.Add(widget.NewLabel("No adjustable parameters"))
		return
	}

	current := pp.filter.Parameters()
	for _, info := range infos {
		pp.createParameterWidget(info, current, desc.Defaults)
	}

	resetBtn := widget.NewButton("Reset to defaults", pp.Reset)
	resetBtn.Importance = widget.LowImportance
	pp.vbox.Add(widget.NewSeparator())
	pp.vbox.Add(resetBtn)
}

func (pp *PropertiesPanel) createParameterWidget(info params.ParameterInfo, current, defaults params.Set) {
	value, err := current.Get(info.Name)
	if err != nil {
		pp.logger.WithError(err).Error("GUI: Unknown parameter")
		return
	}
	def, _ := defaults.Get(info.Name)

	var control fyne.CanvasObject
	switch info.Kind {
	case params.KindFloat:
		slider := widget.NewSlider(info.Min, info.Max)
		slider.Step = info.Step
		slider.SetValue(value.(float64))
		valueLabel := widget.NewLabel(fmt.Sprintf("%.2f", value.(float64)))
		slider.OnChanged = func(v float64) {
			valueLabel.SetText(fmt.Sprintf("%.2f", v))
			pp.update(params.Update{Param: info.Name, Float: v})
		}
		pp.resets = append(pp.resets, func() { slider.SetValue(def.(float64)) })
		control = slider
		pp.vbox.Add(container.NewBorder(nil, nil, widget.NewLabel(info.Label), valueLabel))
		pp.vbox.Add(slider)

	case params.KindBool:
		check := widget.NewCheck(info.Label, nil)
		check.SetChecked(value.(bool))
		check.OnChanged = func(b bool) {
			pp.update(params.Update{Param: info.Name, Bool: b})
		}
		pp.resets = append(pp.resets, func() { check.SetChecked(def.(bool)) })
		control = check
		pp.vbox.Add(check)

	case params.KindEnum:
		radio := widget.NewRadioGroup(info.Options, nil)
		radio.Horizontal = len(info.Options) <= 3
		radio.Required = true
		radio.SetSelected(value.(string))
		radio.OnChanged = func(option string) {
			u, err := params.FromOption(info.Name, option)
			if err != nil {
				pp.logger.WithError(err).Warn("GUI: Ignoring option")
				return
			}
			pp.update(u)
		}
		pp.resets = append(pp.resets, func() { radio.SetSelected(def.(string)) })
		control = radio
		pp.vbox.Add(widget.NewLabel(info.Label))
		pp.vbox.Add(radio)

	default:
		pp.vbox.Add(widget.NewLabel("Unsupported parameter type"))
		return
	}

	pp.controls[info.Name] = control
}

func (pp *PropertiesPanel) update(u params.Update) {
	pp.logger.WithField("update", u.String()).Debug("GUI: Parameter changed")
	pp.filter.Update(u)
}

// Reset moves every control back to the filter's default value.
func (pp *PropertiesPanel) Reset() {
	for _, reset := range pp.resets {
		reset()
	}
}

// Control returns the widget bound to a parameter.
func (pp *PropertiesPanel) Control(name params.Name) (fyne.CanvasObject, bool) {
	c, ok := pp.controls[name]
	return c, ok
}

func (pp *PropertiesPanel) Container() fyne.CanvasObject {
	return pp.vbox
}
