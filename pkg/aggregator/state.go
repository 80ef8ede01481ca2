package aggregator

// State is the phase of the aggregator within a tick.
type State int32

// States of the aggregator. One tick cycles through all of them in
// declaration order.
const (
	StateIdle State = iota
	StateCollecting
	StateMerging
	StatePublished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateCollecting:
		return "Collecting"
	case StateMerging:
		return "Merging"
	case StatePublished:
		return "Published"
	}
	return "Unknown"
}
