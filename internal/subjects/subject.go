// Package subjects manages the controlled vocabulary used to label documents.
// Every workflow run reads a fresh snapshot, so additions and removals apply
// to the next document processed.
package subjects

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Subject is one vocabulary term.
type Subject struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

const maxNameRunes = 200

// CreateCommand carries the fields for a new vocabulary term.
type CreateCommand struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Normalize trims the command and checks the name.
func (c *CreateCommand) Normalize() error {
	c.Name = strings.Join(strings.Fields(c.Name), " ")
	c.Description = strings.TrimSpace(c.Description)

	switch {
	case c.Name == "":
		return fmt.Errorf("%w: name required", ErrInvalidName)
	case utf8.RuneCountInString(c.Name) > maxNameRunes:
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameRunes)
	}
	return nil
}
