package journey

import "fmt"

type Phase int

const (
	PhaseStopped Phase = iota
	PhaseMoving
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseStopped:
		return "STOPPED"
	case PhaseMoving:
		return "MOVING"
	case PhaseDone:
		return "DONE"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(b []byte) error {
	switch string(b) {
	case "STOPPED":
		*p = PhaseStopped
	case "MOVING":
		*p = PhaseMoving
	case "DONE":
		*p = PhaseDone
	default:
		return fmt.Errorf("unknown phase %q", string(b))
	}
	return nil
}

// Phases lists every phase, in state machine order.
var Phases = []Phase{PhaseStopped, PhaseMoving, PhaseDone}
