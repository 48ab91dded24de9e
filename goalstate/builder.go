package goalstate

import (
	"errors"

	"github.com/ruteri/wireserver-ready-agent/interfaces"
	"github.com/ruteri/wireserver-ready-agent/markup"
)

// Element names of the readiness document.
const (
	TagHealth               = "Health"
	TagGoalStateIncarnation = "GoalStateIncarnation"
	TagRole                 = "Role"
	TagState                = "State"
	TagGoalState            = "GoalState"
)

// BuildReadinessDocument renders the health report that marks the goal state's
// role instance as Ready:
//
//	<Health>
//	  <GoalStateIncarnation/>
//	  <Container>
//	    <ContainerId/>
//	    <RoleInstanceList>
//	      <Role>
//	        <InstanceId/>
//	        <Health><State>Ready</State></Health>
//	      </Role>
//	    </RoleInstanceList>
//	  </Container>
//	</Health>
//
// The output depends only on gs.
func BuildReadinessDocument(gs *interfaces.GoalState) (interfaces.ReadinessDocument, error) {
	if gs == nil {
		return nil, &interfaces.EncodeError{Err: errors.New("no goal state")}
	}

	// Writer errors are sticky and surface from Finish below.
	w := markup.NewWriter()
	w.StartElement(TagHealth)
	w.Element(TagGoalStateIncarnation, gs.Incarnation)

	w.StartElement(TagContainer)
	w.Element(TagContainerID, gs.ContainerID)

	w.StartElement(TagRoleInstanceList)
	w.StartElement(TagRole)
	w.Element(TagInstanceID, gs.InstanceID)

	w.StartElement(TagHealth)
	w.Element(TagState, interfaces.ReadyState)
	w.EndElement() // Health
	w.EndElement() // Role
	w.EndElement() // RoleInstanceList
	w.EndElement() // Container
	w.EndElement() // Health

	out, err := w.Finish()
	if err != nil {
		return nil, &interfaces.EncodeError{Err: err}
	}
	return out, nil
}

// Report is the content of a readiness document as read back by the wireserver.
type Report struct {
	GoalState interfaces.GoalState
	State     string
}

// ParseReadinessDocument reads a readiness document built by
// BuildReadinessDocument.
func ParseReadinessDocument(raw []byte) (*Report, error) {
	root, err := markup.Parse(raw)
	if err != nil {
		return nil, err
	}
	if root.Name != TagHealth {
		return nil, &interfaces.MissingElementError{Tag: TagHealth}
	}

	path := TagHealth
	incarnation, err := childText(root, path, TagGoalStateIncarnation)
	if err != nil {
		return nil, err
	}

	container, err := child(root, path, TagContainer)
	if err != nil {
		return nil, err
	}
	path += "/" + TagContainer

	containerID, err := childText(container, path, TagContainerID)
	if err != nil {
		return nil, err
	}

	list, err := child(container, path, TagRoleInstanceList)
	if err != nil {
		return nil, err
	}
	path += "/" + TagRoleInstanceList

	role, err := child(list, path, TagRole)
	if err != nil {
		return nil, err
	}
	path += "/" + TagRole

	instanceID, err := childText(role, path, TagInstanceID)
	if err != nil {
		return nil, err
	}

	health, err := child(role, path, TagHealth)
	if err != nil {
		return nil, err
	}
	path += "/" + TagHealth

	state, err := childText(health, path, TagState)
	if err != nil {
		return nil, err
	}

	return &Report{
		GoalState: interfaces.GoalState{
			Incarnation: incarnation,
			ContainerID: containerID,
			InstanceID:  instanceID,
		},
		State: state,
	}, nil
}

// BuildGoalStateDocument renders a goal-state document for gs, listing
// extraInstances as further role instances after gs.InstanceID.
func BuildGoalStateDocument(gs *interfaces.GoalState, extraInstances ...string) ([]byte, error) {
	// Writer errors are sticky and surface from Finish below.
	w := markup.NewWriter()
	w.StartElement(TagGoalState)
	w.Element("Version", "2012-11-30")
	w.Element(TagIncarnation, gs.Incarnation)
	w.StartElement("Machine")
	w.Element("ExpectedState", "Started")
	w.EndElement()

	w.StartElement(TagContainer)
	w.Element(TagContainerID, gs.ContainerID)
	w.StartElement(TagRoleInstanceList)
	for _, id := range append([]string{gs.InstanceID}, extraInstances...) {
		w.StartElement(TagRoleInstance)
		w.Element(TagInstanceID, id)
		w.Element(TagState, "Started")
		w.EndElement()
	}
	w.EndElement() // RoleInstanceList
	w.EndElement() // Container
	w.EndElement() // GoalState

	out, err := w.Finish()
	if err != nil {
		return nil, &interfaces.EncodeError{Err: err}
	}
	return out, nil
}
