// Package prompts manages analysis instructions: built-in defaults per stage
// plus named overrides stored in the database, of which at most one per
// stage is active.
package prompts

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	maxNameRunes         = 120
	maxInstructionsRunes = 20000
)

// Prompt is a named instruction override for one analysis stage.
type Prompt struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Stage        Stage     `json:"stage"`
	Instructions string    `json:"instructions"`
	Description  *string   `json:"description"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Command is the body of create and update requests. Updates replace every
// field; activation is changed only through Activate and Deactivate.
type Command struct {
	Name         string  `json:"name"`
	Stage        Stage   `json:"stage"`
	Instructions string  `json:"instructions"`
	Description  *string `json:"description,omitempty"`
}

// Normalize trims the command's text fields and checks them.
// A blank description is stored as null.
func (c *Command) Normalize() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Instructions = strings.TrimSpace(c.Instructions)
	if c.Description != nil {
		if d := strings.TrimSpace(*c.Description); d != "" {
			c.Description = &d
		} else {
			c.Description = nil
		}
	}

	switch {
	case c.Name == "":
		return fmt.Errorf("%w: name required", ErrInvalid)
	case utf8.RuneCountInString(c.Name) > maxNameRunes:
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalid, maxNameRunes)
	case c.Stage == "":
		return fmt.Errorf("%w: stage required", ErrInvalid)
	case c.Instructions == "":
		return fmt.Errorf("%w: instructions required", ErrInvalid)
	case utf8.RuneCountInString(c.Instructions) > maxInstructionsRunes:
		return fmt.Errorf("%w: instructions exceed %d characters", ErrInvalid, maxInstructionsRunes)
	}
	return nil
}
