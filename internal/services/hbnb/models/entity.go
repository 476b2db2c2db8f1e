// Package models defines the entity types kept in the hbnb store and the
// dictionary form they are persisted in.
package models

import (
	"errors"
	"time"
)

const (
	// ClassKey is the type tag carried by every serialized entity.
	ClassKey = "__class__"
	// TimeLayout renders timestamps in serialized form.
	TimeLayout = "2006-01-02T15:04:05.000000"
)

var (
	// ErrUnknownClass indicates a class name with no registered entity type.
	ErrUnknownClass = errors.New("unknown class")
	// ErrUnknownAttribute indicates an attribute outside a closed schema.
	ErrUnknownAttribute = errors.New("unknown attribute")
	// ErrReadOnlyAttribute indicates an attempt to assign identity or timestamps.
	ErrReadOnlyAttribute = errors.New("read-only attribute")
	// ErrInvalidValue indicates a value that cannot be cast to the attribute kind.
	ErrInvalidValue = errors.New("invalid value")
	// ErrMissingID indicates a serialized entity without an id.
	ErrMissingID = errors.New("missing id")
)

// Entity is implemented by every stored type.
type Entity interface {
	// Class returns the type tag, e.g. "State".
	Class() string
	// Meta exposes identity, timestamps, and open attributes.
	Meta() *Base
	// Fields lists the declared attributes bound to the receiver.
	Fields() []Field
}

// Base holds the state shared by every entity.
type Base struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	// Extra keeps attributes outside the declared schema. Only the file
	// engine accepts them.
	Extra map[string]any
}

// Meta returns the receiver so embedding types satisfy Entity.
func (b *Base) Meta() *Base {
	return b
}

// Now returns the current UTC time at the precision of TimeLayout.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Key returns the composite registry key of e.
func Key(e Entity) string {
	return KeyOf(e.Class(), e.Meta().ID)
}

// KeyOf builds a composite registry key.
func KeyOf(class, id string) string {
	return class + "." + id
}

// Same reports whether a and b are the same logical object.
func Same(a, b Entity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return Key(a) == Key(b)
}

// Touch moves UpdatedAt to now, never before CreatedAt.
func Touch(e Entity, now time.Time) {
	meta := e.Meta()
	now = now.UTC().Truncate(time.Microsecond)
	if now.Before(meta.CreatedAt) {
		now = meta.CreatedAt
	}
	meta.UpdatedAt = now
}

func isReserved(name string) bool {
	switch name {
	case ClassKey, "id", "created_at", "updated_at":
		return true
	}
	return false
}
