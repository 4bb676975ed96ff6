// Filter descriptors: a closed set of variants dispatched by one render driver
package filters

import (
	"fmt"

	"github.com/microsoft/filter-effects/internal/effects"
	"github.com/microsoft/filter-effects/internal/params"
)

// Kind is the variant tag of a Descriptor.
type Kind int

const (
	// KindSimple filters map parameters to at most one stage.
	KindSimple Kind = iota
	// KindComposite filters chain several stages.
	KindComposite
	// KindHDR filters bypass the stage graph and drive the HDR effect.
	KindHDR
)

func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindComposite:
		return "composite"
	case KindHDR:
		return "hdr"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Descriptor defines one selectable filter.
type Descriptor struct {
	Name             string
	ShortDescription string
	Kind             Kind
	Defaults         params.Set
	// Parameters are the adjustable parameters, in display order.
	Parameters []params.Name
	// Stages maps a resolved parameter set to the effect graph. Unused by
	// KindHDR.
	Stages func(params.Set) []effects.Stage
}

// Validate checks the descriptor is consistent with its kind.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("filter descriptor without name")
	}
	switch d.Kind {
	case KindSimple, KindComposite:
		if d.Stages == nil {
			return fmt.Errorf("filter %s: %s filter needs a stage mapping", d.Name, d.Kind)
		}
	case KindHDR:
	default:
		return fmt.Errorf("filter %s: unknown kind %d", d.Name, int(d.Kind))
	}
	return nil
}

// ParameterInfo describes the adjustable parameters for a property surface.
func (d Descriptor) ParameterInfo() []params.ParameterInfo {
	return params.Info(d.Parameters...)
}

func hdrSettings(p params.Set) effects.HDR {
	return effects.HDR{
		Strength:         p.HDRStrength,
		NoiseSuppression: p.HDRNoiseSuppression,
		Saturation:       p.HDRSaturation,
	}
}
