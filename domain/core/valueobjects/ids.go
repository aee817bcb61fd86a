package valueobjects

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrEmptyID is returned when an identifier is blank
var ErrEmptyID = errors.New("identifier cannot be empty")

// UUIDGenerator hands out random version 4 identifiers in canonical form
type UUIDGenerator struct{}

// NewID returns a new random identifier
func (UUIDGenerator) NewID() string {
	return uuid.New().String()
}

// ParseID validates an identifier and returns its canonical lowercase form.
// Identifiers are compared as strings, so every stored ID must be canonical.
func ParseID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrEmptyID
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", errors.New("identifier must be a valid UUID")
	}
	return parsed.String(), nil
}

// IsValidID reports whether id is a well-formed identifier
func IsValidID(id string) bool {
	_, err := ParseID(id)
	return err == nil
}
