// Package id generates entity identifiers.
package id

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID returns a random UUID v4 in its canonical textual form.
func NewID() (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return value.String(), nil
}
