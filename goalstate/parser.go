// Package goalstate converts between wireserver XML documents and
// interfaces.GoalState: it parses goal-state documents and builds readiness
// (health) reports.
package goalstate

import (
	"errors"
	"unicode/utf8"

	"github.com/ruteri/wireserver-ready-agent/interfaces"
	"github.com/ruteri/wireserver-ready-agent/markup"
)

// Element names of the goal-state document.
const (
	TagIncarnation      = "Incarnation"
	TagContainer        = "Container"
	TagContainerID      = "ContainerId"
	TagRoleInstanceList = "RoleInstanceList"
	TagRoleInstance     = "RoleInstance"
	TagInstanceID       = "InstanceId"
)

// Parse extracts the goal state from a raw wireserver response. The traversal
// order is fixed and the first missing element is reported. Only the first
// RoleInstance is read.
func Parse(raw []byte) (*interfaces.GoalState, error) {
	if !utf8.Valid(raw) {
		return nil, &interfaces.DecodeError{Err: errors.New("response body is not valid UTF-8")}
	}

	root, err := markup.Parse(raw)
	if err != nil {
		return nil, err
	}

	path := root.Name

	incarnation, err := childText(root, path, TagIncarnation)
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

	roleInstanceList, err := child(container, path, TagRoleInstanceList)
	if err != nil {
		return nil, err
	}
	path += "/" + TagRoleInstanceList

	roleInstance, err := child(roleInstanceList, path, TagRoleInstance)
	if err != nil {
		return nil, err
	}
	path += "/" + TagRoleInstance

	instanceID, err := childText(roleInstance, path, TagInstanceID)
	if err != nil {
		return nil, err
	}

	return &interfaces.GoalState{
		Incarnation: incarnation,
		ContainerID: containerID,
		InstanceID:  instanceID,
	}, nil
}

func child(el *markup.Element, path, tag string) (*markup.Element, error) {
	c := el.Child(tag)
	if c == nil {
		return nil, &interfaces.MissingElementError{Tag: tag, Path: path}
	}
	return c, nil
}

func childText(el *markup.Element, path, tag string) (string, error) {
	c, err := child(el, path, tag)
	if err != nil {
		return "", err
	}
	return c.Text(), nil
}
