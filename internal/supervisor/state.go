package supervisor

import (
	"context"
	"fmt"
	"sync"

	"masterybox/internal/league"
)

// InvalidTransitionError is returned when an invalid state transition is attempted.
type InvalidTransitionError struct {
	From league.ConnectionState
	To   league.ConnectionState
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// validTransitions defines the allowed state transitions.
// Key: from state, Value: set of valid target states.
var validTransitions = map[league.ConnectionState]map[league.ConnectionState]bool{
	league.Disconnected: {
		league.WaitingForServer: true,
	},
	league.WaitingForServer: {
		league.Connected:    true,
		league.Disconnected: true,
	},
	league.Connected: {
		league.Disconnected:     true,
		league.WaitingForServer: true, // stream closed while the process lives
	},
}

// StateMachine tracks the connection lifecycle.
type StateMachine struct {
	mu       sync.RWMutex
	state    league.ConnectionState
	changed  chan struct{}
	callback func(from, to league.ConnectionState)
}

func NewStateMachine() *StateMachine {
	return &StateMachine{state: league.Disconnected, changed: make(chan struct{})}
}

func (sm *StateMachine) Current() league.ConnectionState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.state
}

// TransitionTo moves to the target state or returns an
// *InvalidTransitionError.
func (sm *StateMachine) TransitionTo(to league.ConnectionState) error {
	sm.mu.Lock()
	from := sm.state
	if from == to || !validTransitions[from][to] {
		sm.mu.Unlock()
		return &InvalidTransitionError{From: from, To: to}
	}
	sm.state = to
	close(sm.changed)
	sm.changed = make(chan struct{})
	callback := sm.callback
	sm.mu.Unlock()

	if callback != nil {
		callback(from, to)
	}
	return nil
}

// OnTransition sets a callback to be called after each successful transition.
func (sm *StateMachine) OnTransition(callback func(from, to league.ConnectionState)) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.callback = callback
}

// WaitForState blocks until the target state is reached or ctx ends.
func (sm *StateMachine) WaitForState(ctx context.Context, target league.ConnectionState) error {
	for {
		sm.mu.RLock()
		state, changed := sm.state, sm.changed
		sm.mu.RUnlock()

		if state == target {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}
