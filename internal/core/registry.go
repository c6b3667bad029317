package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/mikey-austin/socos/internal/ports"
)

// Handler runs one command. dev is nil for commands that need no device.
type Handler func(ctx context.Context, dev ports.Player, args []string) (Result, error)

// CommandSpec describes one command of the console.
type CommandSpec struct {
	Name            string
	RequiresContext bool
	CoordinatorOnly bool
	Handler         Handler
	// Summary is the one-line description shown by help.
	Summary string
	// Help is the full text shown by "help <name>".
	Help string
}

// Registry is an ordered, immutable set of commands.
type Registry struct {
	specs  []CommandSpec
	byName map[string]int
}

// NewRegistry builds a registry. Names are case-insensitive and must be
// unique.
func NewRegistry(specs []CommandSpec) (*Registry, error) {
	r := &Registry{
		specs:  make([]CommandSpec, 0, len(specs)),
		byName: make(map[string]int, len(specs)),
	}
	for _, spec := range specs {
		name := strings.ToLower(spec.Name)
		if name == "" {
			return nil, fmt.Errorf("command name required")
		}
		if spec.Handler == nil {
			return nil, fmt.Errorf("command %s: handler required", name)
		}
		if _, ok := r.byName[name]; ok {
			return nil, fmt.Errorf("duplicate command %s", name)
		}
		spec.Name = name
		r.byName[name] = len(r.specs)
		r.specs = append(r.specs, spec)
	}
	return r, nil
}

// Lookup finds a command by name.
func (r *Registry) Lookup(name string) (CommandSpec, bool) {
	i, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return CommandSpec{}, false
	}
	return r.specs[i], true
}

// Names returns command names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.specs))
	for _, spec := range r.specs {
		out = append(out, spec.Name)
	}
	return out
}

// Listing returns the help overview.
func (r *Registry) Listing() []string {
	out := make([]string, 0, len(r.specs)+1)
	out = append(out, "Available commands:")
	for _, spec := range r.specs {
		out = append(out, fmt.Sprintf(" * %-12s %s", spec.Name, spec.Summary))
	}
	return out
}
