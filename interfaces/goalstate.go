package interfaces

import "fmt"

// GoalState is the provisioning identity for a single run. It is produced once by
// the goal-state parser and only read afterwards.
type GoalState struct {
	// Incarnation is the opaque epoch token the readiness report must echo back.
	Incarnation string

	// ContainerID identifies the container the instance runs in.
	ContainerID string

	// InstanceID identifies the first role instance listed in the goal state.
	InstanceID string
}

func (gs GoalState) String() string {
	return fmt.Sprintf("GoalState{Incarnation: %q, ContainerID: %q, InstanceID: %q}", gs.Incarnation, gs.ContainerID, gs.InstanceID)
}

// ReadinessDocument is the serialized health report posted to the wireserver.
type ReadinessDocument []byte

// Operation names a wireserver call. It is attached to transport and protocol
// errors and to retry log records.
type Operation string

const (
	OpFetchGoalState Operation = "fetch goal state"
	OpReportReady    Operation = "report ready"
)

// ReadyState is the only health state this agent reports.
const ReadyState = "Ready"
