// Render state machine states
package render

import "fmt"

// State is the coalescing state of one filter instance.
type State int

const (
	// Idle means no render is in flight.
	Idle State = iota
	// Rendering means exactly one render is in flight and nothing is pending.
	Rendering
	// RenderingWithPending means a render is in flight and one follow-up
	// render has been requested.
	RenderingWithPending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Rendering:
		return "rendering"
	case RenderingWithPending:
		return "rendering_with_pending"
	}
	return fmt.Sprintf("State(%d)", int(s))
}
