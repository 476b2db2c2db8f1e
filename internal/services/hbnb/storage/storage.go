// Package storage defines the persistence contract shared by the hbnb
// storage engines.
package storage

import (
	"context"
	"errors"

	"github.com/louisbranch/hbnb/internal/services/hbnb/models"
)

var (
	// ErrNotFound indicates a requested entity is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConstraint indicates a commit rejected by a schema constraint.
	ErrConstraint = errors.New("constraint violation")
	// ErrUnsupportedClass indicates a class the engine cannot persist.
	ErrUnsupportedClass = errors.New("class not supported by storage engine")
	// ErrUnavailable indicates the durable medium cannot be reached.
	ErrUnavailable = errors.New("storage unavailable")
)

// Engine persists the working set of entities.
//
// New and Delete change the working set only; Save commits it. Changes made
// since the last Save are visible to All and Get on every engine. Reload
// discards them and rebuilds the working set from the durable medium.
type Engine interface {
	// All returns the working set keyed by composite key, restricted to
	// class when class is not empty.
	All(ctx context.Context, class string) (map[string]models.Entity, error)
	// Get returns one entity or ErrNotFound.
	Get(ctx context.Context, class, id string) (models.Entity, error)
	// New adds or replaces an entity in the working set.
	New(e models.Entity)
	// Save commits the working set.
	Save(ctx context.Context) error
	// Delete removes an entity from the working set. Absent entities are
	// ignored.
	Delete(e models.Entity)
	// Reload rebuilds the working set from the durable medium.
	Reload(ctx context.Context) error
	// Close ends the current session.
	Close() error
}

// StrictSchema is implemented by engines that only persist declared
// attributes.
type StrictSchema interface {
	StrictSchema() bool
}

// IsStrict reports whether engine rejects undeclared attributes.
func IsStrict(engine Engine) bool {
	strict, ok := engine.(StrictSchema)
	return ok && strict.StrictSchema()
}

// Filter returns the entries of set whose class equals class. An empty
// class returns a copy of set.
func Filter(set map[string]models.Entity, class string) map[string]models.Entity {
	out := make(map[string]models.Entity, len(set))
	for key, e := range set {
		if class == "" || e.Class() == class {
			out[key] = e
		}
	}
	return out
}
