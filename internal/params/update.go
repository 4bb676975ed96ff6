package params

import (
	"fmt"
	"strconv"
	"strings"
)

// Name identifies one adjustable parameter.
type Name string

const (
	Brightness          Name = "brightness"
	Saturation          Name = "saturation"
	Vignetting          Name = "vignetting"
	Style               Name = "style"
	Sketch              Name = "sketch_mode"
	DistinctEdges       Name = "distinct_edges"
	HDRStrength         Name = "hdr_strength"
	HDRNoiseSuppression Name = "hdr_noise_suppression"
	HDRSaturation       Name = "hdr_saturation"
)

// Update is a deferred mutation of exactly one parameter. Only the field
// matching the parameter's kind is meaningful.
type Update struct {
	Param Name
	Float float64
	Enum  int
	Bool  bool
}

func (u Update) String() string {
	switch u.Param {
	case Vignetting:
		return fmt.Sprintf("%s=%s", u.Param, LomoVignetting(u.Enum))
	case Style:
		return fmt.Sprintf("%s=%s", u.Param, LomoStyle(u.Enum))
	case Sketch:
		return fmt.Sprintf("%s=%s", u.Param, SketchMode(u.Enum))
	case DistinctEdges:
		return fmt.Sprintf("%s=%t", u.Param, u.Bool)
	}
	return fmt.Sprintf("%s=%.3f", u.Param, u.Float)
}

func SetBrightness(v float64) Update { return Update{Param: Brightness, Float: v} }
func SetSaturation(v float64) Update { return Update{Param: Saturation, Float: v} }

func SetVignetting(v LomoVignetting) Update { return Update{Param: Vignetting, Enum: int(v)} }
func SetStyle(s LomoStyle) Update           { return Update{Param: Style, Enum: int(s)} }
func SetSketchMode(m SketchMode) Update     { return Update{Param: Sketch, Enum: int(m)} }
func SetDistinctEdges(b bool) Update        { return Update{Param: DistinctEdges, Bool: b} }

func SetHDRStrength(v float64) Update         { return Update{Param: HDRStrength, Float: v} }
func SetHDRNoiseSuppression(v float64) Update { return Update{Param: HDRNoiseSuppression, Float: v} }
func SetHDRSaturation(v float64) Update       { return Update{Param: HDRSaturation, Float: v} }

// Apply writes the update into s. Float values are clamped to [0, 1].
func (u Update) Apply(s *Set) error {
	switch u.Param {
	case Brightness:
		s.Brightness = clamp01(u.Float)
	case Saturation:
		s.Saturation = clamp01(u.Float)
	case Vignetting:
		if u.Enum < 0 || u.Enum >= len(vignettingNames) {
			return fmt.Errorf("invalid vignetting: %d", u.Enum)
		}
		s.Vignetting = LomoVignetting(u.Enum)
	case Style:
		if u.Enum < 0 || u.Enum >= len(styleNames) {
			return fmt.Errorf("invalid lomo style: %d", u.Enum)
		}
		s.Style = LomoStyle(u.Enum)
	case Sketch:
		if u.Enum < 0 || u.Enum >= len(sketchNames) {
			return fmt.Errorf("invalid sketch mode: %d", u.Enum)
		}
		s.SketchMode = SketchMode(u.Enum)
	case DistinctEdges:
		s.DistinctEdges = u.Bool
	case HDRStrength:
		s.HDRStrength = clamp01(u.Float)
	case HDRNoiseSuppression:
		s.HDRNoiseSuppression = clamp01(u.Float)
	case HDRSaturation:
		s.HDRSaturation = clamp01(u.Float)
	default:
		return fmt.Errorf("unknown parameter: %s", u.Param)
	}
	return nil
}

// FromOption builds an update for an enumerated or boolean parameter from
// its display option.
func FromOption(name Name, option string) (Update, error) {
	var options []string
	switch name {
	case Vignetting:
		options = vignettingNames
	case Style:
		options = styleNames
	case Sketch:
		options = sketchNames
	default:
		return Update{}, fmt.Errorf("parameter %s has no options", name)
	}

	idx, ok := optionIndex(options, option)
	if !ok {
		return Update{}, fmt.Errorf("invalid option %q for %s", option, name)
	}
	return Update{Param: name, Enum: idx}, nil
}

// Parse reads "name=value" as used on the command line.
func Parse(expr string) (Update, error) {
	key, value, ok := strings.Cut(expr, "=")
	if !ok {
		return Update{}, fmt.Errorf("expected name=value, got %q", expr)
	}
	name := Name(strings.TrimSpace(key))
	value = strings.TrimSpace(value)

	switch name {
	case Brightness, Saturation, HDRStrength, HDRNoiseSuppression, HDRSaturation:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return Update{}, fmt.Errorf("parse %s: %w", name, err)
		}
		return Update{Param: name, Float: v}, nil
	case DistinctEdges:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return Update{}, fmt.Errorf("parse %s: %w", name, err)
		}
		return SetDistinctEdges(b), nil
	case Vignetting, Style, Sketch:
		return FromOption(name, value)
	}
	return Update{}, fmt.Errorf("unknown parameter: %s", name)
}
