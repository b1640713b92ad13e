// Package control drives a single video's live channel on user command and
// reconciles the shared video cache against command outcomes. The state
// machine is explicit and independent of any rendering layer.
package control

import (
	"errors"
	"fmt"
	"sync"
)

// State enumerates the command lifecycle for one controller instance.
type State int

const (
	// StateIdle accepts a new command trigger.
	StateIdle State = iota
	// StatePending means a command is in flight; the only exits are success
	// or failure. There is no cancellation.
	StatePending
	// StateError is terminal for the instance; the UI has been redirected to
	// the error surface and no recovery path leads back to Idle.
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Input enumerates the events that drive the machine.
type Input int

const (
	InputTrigger Input = iota
	InputSucceeded
	InputFailed
)

func (in Input) String() string {
	switch in {
	case InputTrigger:
		return "trigger"
	case InputSucceeded:
		return "succeeded"
	case InputFailed:
		return "failed"
	default:
		return fmt.Sprintf("input(%d)", int(in))
	}
}

// ErrCommandInFlight rejects a trigger while a command is already pending.
// Concurrent in-flight commands per controller are neither allowed nor queued.
var ErrCommandInFlight = errors.New("control: command already in flight")

// ErrControllerFailed rejects a trigger after the controller reached its
// terminal error state.
var ErrControllerFailed = errors.New("control: controller is in error state")

// Next returns the state reached from s on the given input.
func Next(s State, in Input) (State, error) {
	switch s {
	case StateIdle:
		if in == InputTrigger {
			return StatePending, nil
		}
	case StatePending:
		switch in {
		case InputSucceeded:
			return StateIdle, nil
		case InputFailed:
			return StateError, nil
		case InputTrigger:
			return StatePending, ErrCommandInFlight
		}
	case StateError:
		if in == InputTrigger {
			return StateError, ErrControllerFailed
		}
	}
	return s, fmt.Errorf("control: no transition from %s on %s", s, in)
}

// Machine is a goroutine-safe wrapper around the transition function.
type Machine struct {
	mu    sync.Mutex
	state State
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Trigger attempts the Idle -> Pending transition.
func (m *Machine) Trigger() error {
	return m.apply(InputTrigger)
}

// Succeed attempts the Pending -> Idle transition.
func (m *Machine) Succeed() error {
	return m.apply(InputSucceeded)
}

// Fail attempts the Pending -> Error transition.
func (m *Machine) Fail() error {
	return m.apply(InputFailed)
}

func (m *Machine) apply(in Input) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, err := Next(m.state, in)
	if err != nil {
		return err
	}
	m.state = next
	return nil
}
