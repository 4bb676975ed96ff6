package filters

import (
	"strings"

	"github.com/microsoft/filter-effects/internal/effects"
	"github.com/microsoft/filter-effects/internal/params"
)

var lomoParameters = []params.Name{params.Brightness, params.Saturation, params.Vignetting}

func lomoStages(p params.Set) []effects.Stage {
	return []effects.Stage{effects.Lomo(p.Brightness, p.Saturation, p.Vignetting, p.Style)}
}

// Original shows the image without effects.
func Original() Descriptor {
	return Descriptor{
		Name:             "Original",
		ShortDescription: "Original",
		Kind:             KindSimple,
		Stages:           func(params.Set) []effects.Stage { return nil },
	}
}

func SixthGear() Descriptor {
	return Descriptor{
		Name:             "Sixth Gear",
		ShortDescription: "Lomo",
		Kind:             KindSimple,
		Defaults: params.Set{
			Brightness: 0.5,
			Saturation: 0.5,
			Vignetting: params.VignettingHigh,
			Style:      params.StyleNeutral,
		},
		Parameters: lomoParameters,
		Stages:     lomoStages,
	}
}

func SadHipster() Descriptor {
	return Descriptor{
		Name:             "Sad Hipster",
		ShortDescription: "Lomo + Antique",
		Kind:             KindComposite,
		Defaults: params.Set{
			Brightness: 0.5,
			Saturation: 0.3,
			Vignetting: params.VignettingMedium,
			Style:      params.StyleYellow,
		},
		Parameters: lomoParameters,
		Stages: func(p params.Set) []effects.Stage {
			return append([]effects.Stage{effects.Antique()}, lomoStages(p)...)
		},
	}
}

func EightiesPopSong() Descriptor {
	return Descriptor{
		Name:             "80's Pop Song",
		ShortDescription: "Sketch",
		Kind:             KindSimple,
		Defaults:         params.Set{SketchMode: params.SketchGray},
		Parameters:       []params.Name{params.Sketch},
		Stages: func(p params.Set) []effects.Stage {
			return []effects.Stage{effects.Sketch(p.SketchMode)}
		},
	}
}

func Marvel() Descriptor {
	return Descriptor{
		Name:             "Marvel",
		ShortDescription: "Cartoon",
		Kind:             KindSimple,
		Defaults:         params.Set{DistinctEdges: false},
		Parameters:       []params.Name{params.DistinctEdges},
		Stages: func(p params.Set) []effects.Stage {
			return []effects.Stage{effects.Cartoon(p.DistinctEdges)}
		},
	}
}

func Surrounded() Descriptor {
	return Descriptor{
		Name:             "Surrounded",
		ShortDescription: "HDR",
		Kind:             KindHDR,
		Defaults: params.Set{
			HDRStrength:         0.5,
			HDRNoiseSuppression: 0.3,
			HDRSaturation:       0.5,
		},
		Parameters: []params.Name{params.HDRStrength, params.HDRNoiseSuppression, params.HDRSaturation},
	}
}

// Catalog returns the built-in filters in display order.
func Catalog() []Descriptor {
	return []Descriptor{
		Original(),
		SixthGear(),
		SadHipster(),
		EightiesPopSong(),
		Marvel(),
		Surrounded(),
	}
}

// Lookup finds a built-in filter by name or short description, ignoring
// case.
func Lookup(name string) (Descriptor, bool) {
	for _, d := range Catalog() {
		if strings.EqualFold(d.Name, name) || strings.EqualFold(d.ShortDescription, name) {
			return d, true
		}
	}
	return Descriptor{}, false
}
