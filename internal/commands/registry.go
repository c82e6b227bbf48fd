package commands

import (
	"fmt"
	"strings"
)

// Registry maps command names and aliases to commands.
type Registry struct {
	ordered []Command
	byName  map[string]Command
}

// NewRegistry registers cmds in order. Duplicate names or aliases fail.
func NewRegistry(cmds ...Command) (*Registry, error) {
	r := &Registry{byName: make(map[string]Command)}
	for _, cmd := range cmds {
		if err := r.Register(cmd); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds cmd under its name and aliases.
func (r *Registry) Register(cmd Command) error {
	names := append([]string{cmd.Name()}, cmd.Aliases()...)
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			return fmt.Errorf("command %q: empty name", cmd.Name())
		}
		if existing, ok := r.byName[key]; ok {
			return fmt.Errorf("command %q: name %q already used by %q", cmd.Name(), key, existing.Name())
		}
	}
	for _, name := range names {
		r.byName[strings.ToLower(strings.TrimSpace(name))] = cmd
	}
	r.ordered = append(r.ordered, cmd)
	return nil
}

// Lookup finds a command by name or alias.
func (r *Registry) Lookup(name string) (Command, bool) {
	cmd, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return cmd, ok
}

// Commands returns the registered commands in registration order.
func (r *Registry) Commands() []Command {
	return append([]Command(nil), r.ordered...)
}

// Builtin returns every built-in command.
func Builtin() []Command {
	return []Command{
		createCommand{},
		listCommand{},
		mineCommand{},
		showCommand{},
		voteCommand{},
		cancelCommand{},
		stateCommand{},
		processCommand{},
		sendCommand{},
		helpCommand{},
	}
}

// DefaultRegistry registers Builtin.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(Builtin()...)
	if err != nil {
		panic(err)
	}
	return r
}
