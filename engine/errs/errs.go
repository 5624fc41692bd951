// Package errs defines the engine's error taxonomy.
//
// Affordability failures are not errors: they are reported on the returned
// ActionResult. Everything here signals either a caller contract violation
// (bad ids, gated actions, calls after the game ended) or an unreadable save.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidReference is wrapped by every ReferenceError.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrActionUnavailable means the caller executed an action that is
	// currently gated by phase, flags or one-shot use.
	ErrActionUnavailable = errors.New("action not available")

	// ErrGameOver rejects gameplay calls once the game has ended.
	ErrGameOver = errors.New("game is over")

	ErrNoActiveConsequence = errors.New("no active consequence")
	ErrNoActiveCrisis      = errors.New("no active crisis")

	// ErrCorruptSave is wrapped by every CorruptSaveError.
	ErrCorruptSave = errors.New("corrupt save")
)

// Reference kinds.
const (
	KindAction      = "action"
	KindNPC         = "npc"
	KindConsequence = "consequence"
	KindChoice      = "choice"
	KindCrisis      = "crisis"
	KindDialogue    = "dialogue"
	KindDifficulty  = "difficulty"
	KindObjective   = "objective"
	KindActor       = "actor"
)

// ReferenceError reports an unknown id.
type ReferenceError struct {
	Kind string
	ID   string
}

// NewReference returns a ReferenceError for the given kind and id.
func NewReference(kind, id string) *ReferenceError {
	return &ReferenceError{Kind: kind, ID: id}
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.ID)
}

func (e *ReferenceError) Unwrap() error {
	return ErrInvalidReference
}

// CorruptSaveError reports a save blob that could not be reconstructed.
type CorruptSaveError struct {
	Reason string
	Err    error
}

// Corrupt returns a CorruptSaveError wrapping err (which may be nil).
func Corrupt(reason string, err error) *CorruptSaveError {
	return &CorruptSaveError{Reason: reason, Err: err}
}

func (e *CorruptSaveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt save: %s: %v", e.Reason, e.Err)
	}
	return "corrupt save: " + e.Reason
}

// Is matches ErrCorruptSave.
func (e *CorruptSaveError) Is(target error) bool {
	return target == ErrCorruptSave
}

func (e *CorruptSaveError) Unwrap() error {
	return e.Err
}
