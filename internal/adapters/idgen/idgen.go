package idgen

import "github.com/google/uuid"

// Generator creates correlation IDs for bus commands.
type Generator struct{}

// NewID returns a random UUID string.
func (Generator) NewID() string {
	return uuid.NewString()
}
