// Package editor holds server-side draft sessions for the workflow graph
// editor: the clean/dirty/saving state machine, undo and redo, the save
// contract and the shortcut and leave guards that read the same state.
package editor

import (
	"errors"
	"fmt"
)

type State int

const (
	StateClean State = iota
	StateDirty
	StateSaving
)

func (s State) String() string {
	switch s {
	case StateClean:
		return "clean"
	case StateDirty:
		return "dirty"
	case StateSaving:
		return "saving"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, candidate := range []State{StateClean, StateDirty, StateSaving} {
		if candidate.String() == string(text) {
			*s = candidate

			return nil
		}
	}

	return fmt.Errorf("unknown editor state %q", text)
}

type Event int

const (
	// EventMutate is any edit of the draft, including undo/redo away from the baseline.
	EventMutate Event = iota
	// EventRevert is undo/redo landing exactly on the baseline revision.
	EventRevert
	EventSave
	EventSaveSucceeded
	EventSaveFailed
)

func (e Event) String() string {
	switch e {
	case EventMutate:
		return "mutate"
	case EventRevert:
		return "revert"
	case EventSave:
		return "save"
	case EventSaveSucceeded:
		return "save_succeeded"
	case EventSaveFailed:
		return "save_failed"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

var ErrInvalidTransition = errors.New("invalid editor state transition")

var transitions = map[State]map[Event]State{
	StateClean: {
		EventMutate: StateDirty,
		EventRevert: StateClean,
	},
	StateDirty: {
		EventMutate: StateDirty,
		EventRevert: StateClean,
		EventSave:   StateSaving,
	},
	StateSaving: {
		EventSaveSucceeded: StateClean,
		EventSaveFailed:    StateDirty,
	},
}

// Transition is the single source of truth for editor state changes.
func Transition(from State, event Event) (State, error) {
	if to, ok := transitions[from][event]; ok {
		return to, nil
	}

	return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, event, from)
}
