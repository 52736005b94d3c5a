package common

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Guid identifies entity types, controls and cover actions.
type Guid string

// NewGuid mints a random Guid.
func NewGuid() Guid {
	return Guid(uuid.NewString())
}

// ParseGuid validates s and returns its canonical lower-case form.
func ParseGuid(s string) (Guid, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("parse guid %q: %w", s, err)
	}
	return Guid(id.String()), nil
}

// IsZero reports whether the Guid is unset.
func (g Guid) IsZero() bool { return g == "" }

func (g Guid) String() string { return string(g) }
