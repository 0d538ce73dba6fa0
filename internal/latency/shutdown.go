package latency

import "fmt"

// Phase is the shutdown state of a measurement run.
//
//	Running  -> both loops active
//	Draining -> sender finished, receiver waiting out the grace window
//	Stopped  -> receiver finished
type Phase uint8

const (
	PhaseRunning Phase = iota
	PhaseDraining
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhaseDraining:
		return "draining"
	case PhaseStopped:
		return "stopped"
	default:
		return fmt.Sprintf("Phase(%d)", uint8(p))
	}
}
