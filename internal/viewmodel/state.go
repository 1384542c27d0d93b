package viewmodel

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/storefront/internal/catalog"
)

// Phase is the variant tag of a State.
type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseError   Phase = "error"
	PhaseReady   Phase = "ready"
)

// State is the screen state: exactly one of Loading, Error(message) or
// Ready(value). The zero value is Loading.
//
// A Loading state may carry the previously displayed value as a
// background, shown dimmed while the refresh runs. Error never carries a
// value.
type State[T any] struct {
	phase      Phase
	message    string
	value      T
	background *T
}

// ListState is the state of the catalog list screen.
type ListState = State[[]catalog.Entry]

// DetailState is the state of a single-entry screen.
type DetailState = State[catalog.Entry]

// Loading returns a Loading state without background.
func Loading[T any]() State[T] {
	return State[T]{phase: PhaseLoading}
}

// LoadingOver returns a Loading state showing bg behind the indicator.
func LoadingOver[T any](bg T) State[T] {
	return State[T]{phase: PhaseLoading, background: &bg}
}

// Failed returns an Error state.
func Failed[T any](message string) State[T] {
	return State[T]{phase: PhaseError, message: message}
}

// Ready returns a Ready state holding v.
func Ready[T any](v T) State[T] {
	return State[T]{phase: PhaseReady, value: v}
}

// Phase returns the variant tag.
func (s State[T]) Phase() Phase {
	if s.phase == "" {
		return PhaseLoading
	}
	return s.phase
}

func (s State[T]) IsLoading() bool { return s.Phase() == PhaseLoading }
func (s State[T]) IsError() bool   { return s.phase == PhaseError }
func (s State[T]) IsReady() bool   { return s.phase == PhaseReady }

// Message returns the error message of an Error state, "" otherwise.
func (s State[T]) Message() string {
	return s.message
}

// Value returns the value of a Ready state.
func (s State[T]) Value() (T, bool) {
	if s.phase != PhaseReady {
		var zero T
		return zero, false
	}
	return s.value, true
}

// Background returns the value shown behind a Loading state.
func (s State[T]) Background() (T, bool) {
	if s.Phase() != PhaseLoading || s.background == nil {
		var zero T
		return zero, false
	}
	return *s.background, true
}

func (s State[T]) String() string {
	switch s.Phase() {
	case PhaseError:
		return fmt.Sprintf("Error(%s)", s.message)
	case PhaseReady:
		return fmt.Sprintf("Ready(%v)", s.value)
	default:
		return "Loading"
	}
}

type stateJSON[T any] struct {
	Phase      Phase  `json:"phase"`
	Message    string `json:"message,omitempty"`
	Value      *T     `json:"value,omitempty"`
	Background *T     `json:"background,omitempty"`
}

// MarshalJSON renders the state with its phase tag.
func (s State[T]) MarshalJSON() ([]byte, error) {
	out := stateJSON[T]{Phase: s.Phase(), Message: s.message, Background: s.background}
	if s.phase == PhaseReady {
		v := s.value
		out.Value = &v
	}
	return json.Marshal(out)
}

// IsEmptyList reports whether s is Ready with no entries, the "no
// products yet" case, as opposed to Loading or Error.
func IsEmptyList(s ListState) bool {
	entries, ok := s.Value()
	return ok && len(entries) == 0
}
