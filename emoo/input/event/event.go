package event

// Type is the phase of an input action.
type Type int

const (
	Press   Type = iota // went down this frame
	Release             // went up this frame
	Hold                // still down; only reported for console buttons
)

func (t Type) String() string {
	switch t {
	case Press:
		return "press"
	case Release:
		return "release"
	case Hold:
		return "hold"
	}
	return "unknown"
}
