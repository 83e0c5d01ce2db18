package session

import (
	"context"

	"github.com/naevatec/ov2-ha-recorder-sub001/internal/pipeline/fsm"
)

// transitions enumerates every edge in the §4.1 status table. The event
// identifying an edge is simply its target status, since no two edges
// leaving the same state share a destination.
var transitions = []fsm.Transition[Status, Status]{
	{From: StatusStarting, Event: StatusRecording, To: StatusRecording},
	{From: StatusStarting, Event: StatusPaused, To: StatusPaused},
	{From: StatusStarting, Event: StatusStopping, To: StatusStopping},
	{From: StatusStarting, Event: StatusFailed, To: StatusFailed},
	{From: StatusStarting, Event: StatusInactive, To: StatusInactive},

	{From: StatusRecording, Event: StatusPaused, To: StatusPaused},
	{From: StatusRecording, Event: StatusStopping, To: StatusStopping},
	{From: StatusRecording, Event: StatusFailed, To: StatusFailed},
	{From: StatusRecording, Event: StatusInactive, To: StatusInactive},

	{From: StatusPaused, Event: StatusRecording, To: StatusRecording},
	{From: StatusPaused, Event: StatusStopping, To: StatusStopping},
	{From: StatusPaused, Event: StatusFailed, To: StatusFailed},
	{From: StatusPaused, Event: StatusInactive, To: StatusInactive},

	{From: StatusStopping, Event: StatusStopped, To: StatusStopped},
	{From: StatusStopping, Event: StatusCompleted, To: StatusCompleted},
	{From: StatusStopping, Event: StatusFailed, To: StatusFailed},
	{From: StatusStopping, Event: StatusInactive, To: StatusInactive},

	{From: StatusStopped, Event: StatusCompleted, To: StatusCompleted},
	{From: StatusStopped, Event: StatusInactive, To: StatusInactive},

	{From: StatusCompleted, Event: StatusInactive, To: StatusInactive},
	{From: StatusFailed, Event: StatusInactive, To: StatusInactive},
}

// ValidateTransition reports whether moving from "from" to "to" is legal
// per the §4.1 status table. It rebuilds a throwaway Machine rooted at
// "from" rather than holding long-lived per-session FSM state, since the
// session's status lives in the store and is the single source of truth.
func ValidateTransition(from, to Status) error {
	if from == to {
		return ErrInvalidTransition
	}
	m, err := fsm.New(from, transitions)
	if err != nil {
		return err
	}
	if _, err := m.Fire(context.Background(), to); err != nil {
		return ErrInvalidTransition
	}
	return nil
}
