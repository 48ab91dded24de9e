package provisioner

// State is a step of the provisioning handshake.
type State int

const (
	StateStart State = iota
	StateFetchingGoalState
	StateParsingGoalState
	StateBuildingReadiness
	StateReportingReadiness
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateFetchingGoalState:
		return "fetching goal state"
	case StateParsingGoalState:
		return "parsing goal state"
	case StateBuildingReadiness:
		return "building readiness"
	case StateReportingReadiness:
		return "reporting readiness"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// AbortError is the terminal error of a run. State is the step that failed.
type AbortError struct {
	State State
	Err   error
}

func (e *AbortError) Error() string {
	return e.State.String() + ": " + e.Err.Error()
}

func (e *AbortError) Unwrap() error {
	return e.Err
}
