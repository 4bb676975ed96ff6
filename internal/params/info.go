package params

// Kind tells a property surface which control to build.
type Kind string

const (
	KindFloat Kind = "float"
	KindBool  Kind = "bool"
	KindEnum  Kind = "enum"
)

// ParameterInfo describes a parameter for UI generation
type ParameterInfo struct {
	Name    Name     `json:"name"`
	Label   string   `json:"label"`
	Kind    Kind     `json:"kind"`
	Min     float64  `json:"min,omitempty"`
	Max     float64  `json:"max,omitempty"`
	Step    float64  `json:"step,omitempty"`
	Options []string `json:"options,omitempty"`
}

var catalog = map[Name]ParameterInfo{
	Brightness:          {Name: Brightness, Label: "Brightness", Kind: KindFloat, Min: 0, Max: 1, Step: 0.01},
	Saturation:          {Name: Saturation, Label: "Saturation", Kind: KindFloat, Min: 0, Max: 1, Step: 0.01},
	Vignetting:          {Name: Vignetting, Label: "Lomo vignetting", Kind: KindEnum, Options: vignettingNames},
	Style:               {Name: Style, Label: "Lomo style", Kind: KindEnum, Options: styleNames},
	Sketch:              {Name: Sketch, Label: "Sketch mode", Kind: KindEnum, Options: sketchNames},
	DistinctEdges:       {Name: DistinctEdges, Label: "Distinct edges", Kind: KindBool},
	HDRStrength:         {Name: HDRStrength, Label: "Strength", Kind: KindFloat, Min: 0, Max: 1, Step: 0.01},
	HDRNoiseSuppression: {Name: HDRNoiseSuppression, Label: "Noise suppression", Kind: KindFloat, Min: 0, Max: 1, Step: 0.01},
	HDRSaturation:       {Name: HDRSaturation, Label: "Saturation", Kind: KindFloat, Min: 0, Max: 1, Step: 0.01},
}

// Info returns the description of the named parameters in order. Unknown
// names are skipped.
func Info(names ...Name) []ParameterInfo {
	infos := make([]ParameterInfo, 0, len(names))
	for _, n := range names {
		if info, ok := catalog[n]; ok {
			if info.Options != nil {
				info.Options = append([]string(nil), info.Options...)
			}
			infos = append(infos, info)
		}
	}
	return infos
}
