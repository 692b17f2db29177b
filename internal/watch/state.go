package watch

// State is the lifecycle position of one binding.
type State int

const (
	StateIdle State = iota
	StateRerunning
	StateNotifying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRerunning:
		return "rerunning"
	case StateNotifying:
		return "notifying"
	default:
		return "unknown"
	}
}
