// Filter parameter set shared by every filter variant
package params

import (
	"fmt"
)

// LomoVignetting is the strength of the lomo vignette.
type LomoVignetting int

const (
	VignettingLow LomoVignetting = iota
	VignettingMedium
	VignettingHigh
)

var vignettingNames = []string{"Low", "Medium", "High"}

func (v LomoVignetting) String() string {
	if v < 0 || int(v) >= len(vignettingNames) {
		return fmt.Sprintf("LomoVignetting(%d)", int(v))
	}
	return vignettingNames[v]
}

// LomoStyle is the color cast applied by the lomo stage.
type LomoStyle int

const (
	StyleNeutral LomoStyle = iota
	StyleRed
	StyleGreen
	StyleBlue
	StyleYellow
)

var styleNames = []string{"Neutral", "Red", "Green", "Blue", "Yellow"}

func (s LomoStyle) String() string {
	if s < 0 || int(s) >= len(styleNames) {
		return fmt.Sprintf("LomoStyle(%d)", int(s))
	}
	return styleNames[s]
}

// SketchMode selects gray or colored pencil output.
type SketchMode int

const (
	SketchGray SketchMode = iota
	SketchColor
)

var sketchNames = []string{"Gray", "Color"}

func (m SketchMode) String() string {
	if m < 0 || int(m) >= len(sketchNames) {
		return fmt.Sprintf("SketchMode(%d)", int(m))
	}
	return sketchNames[m]
}

// Set is the fully resolved set of filter parameters. Each variant reads
// only the fields it maps to pipeline stages.
type Set struct {
	Brightness float64
	Saturation float64
	Vignetting LomoVignetting
	Style      LomoStyle

	SketchMode    SketchMode
	DistinctEdges bool

	HDRStrength         float64
	HDRNoiseSuppression float64
	HDRSaturation       float64
}

// Get returns the current value of a parameter as float64, bool or the
// option string for enumerations.
func (s Set) Get(name Name) (interface{}, error) {
	switch name {
	case Brightness:
		return s.Brightness, nil
	case Saturation:
		return s.Saturation, nil
	case Vignetting:
		return s.Vignetting.String(), nil
	case Style:
		return s.Style.String(), nil
	case Sketch:
		return s.SketchMode.String(), nil
	case DistinctEdges:
		return s.DistinctEdges, nil
	case HDRStrength:
		return s.HDRStrength, nil
	case HDRNoiseSuppression:
		return s.HDRNoiseSuppression, nil
	case HDRSaturation:
		return s.HDRSaturation, nil
	}
	return nil, fmt.Errorf("unknown parameter: %s", name)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func optionIndex(options []string, value string) (int, bool) {
	for i, o := range options {
		if o == value {
			return i, true
		}
	}
	return 0, false
}
