// Package savestore persists the opaque save blobs produced by the engine.
// Stores never look inside a blob.
package savestore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get and Delete for unknown slots.
var ErrNotFound = errors.New("save slot not found")

// Entry describes one stored save.
type Entry struct {
	Slot      string
	Size      int
	UpdatedAt time.Time
}

// Store is a slot-addressed blob store.
type Store interface {
	Put(ctx context.Context, slot, blob string) error
	Get(ctx context.Context, slot string) (string, error)
	// List returns entries sorted by slot name.
	List(ctx context.Context) ([]Entry, error)
	Delete(ctx context.Context, slot string) error
	Close() error
}

var slotPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,63}$`)

// ValidateSlot rejects slot names that are unsafe as file names or keys.
func ValidateSlot(slot string) error {
	if !slotPattern.MatchString(slot) {
		return fmt.Errorf("invalid save slot %q", slot)
	}
	return nil
}

// NewSlot returns a fresh random slot name.
func NewSlot() string {
	return "save-" + uuid.NewString()[:8]
}
