// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package layout

import (
	"errors"
	"fmt"
)

// State is a phase of the simulation lifecycle
type State int

const (
	StateUninitialized State = iota
	StateSettling
	StateCooling
	StateResting
	StateReheated
	StateDisposed
)

// String implements fmt.Stringer
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateSettling:
		return "settling"
	case StateCooling:
		return "cooling"
	case StateResting:
		return "resting"
	case StateReheated:
		return "reheated"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrUnknownNode is returned for ids not present in the layout
var ErrUnknownNode = errors.New("unknown node")

// ErrNotDragging is returned when moving a node that is not being dragged
var ErrNotDragging = errors.New("node is not being dragged")

// SimulationStateError reports an operation that the current state forbids,
// which is always a programming error
type SimulationStateError struct {
	Op    string
	State State
}

// Error implements the error interface
func (e *SimulationStateError) Error() string {
	return fmt.Sprintf("layout: cannot %s: simulation is %s", e.Op, e.State)
}
