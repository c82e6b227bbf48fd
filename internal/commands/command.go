package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"pedidobot/internal/delivery"
	"pedidobot/internal/library"
	"pedidobot/internal/notifications"
	"pedidobot/internal/pedidos"
	"pedidobot/internal/processing"
)

// Message is one inbound chat message.
type Message struct {
	ID         string
	ChannelID  string
	SenderID   string
	Text       string
	Attachment *pedidos.Attachment
}

// Invocation is a parsed command line.
type Invocation struct {
	Message Message
	// Prefix is the command prefix in effect.
	Prefix string
	// Name is the command word as typed, lowercased and without prefix.
	Name string
	// Raw is everything after the command word, trimmed.
	Raw string
	// Fields is Raw split on whitespace.
	Fields []string
}

// Args is the command-specific result of Parse.
type Args = any

// Caller identifies who invoked a command and from where.
type Caller struct {
	SenderID   string
	ChannelID  string
	Privileged bool
}

// Actor returns the caller as a transition actor.
func (c Caller) Actor() pedidos.Actor {
	return pedidos.Actor{ID: c.SenderID, Privileged: c.Privileged}
}

// Reply is what a command wants sent back. An empty Text sends nothing.
type Reply struct {
	Text string
}

// Command is one entry in the registry.
type Command interface {
	Name() string
	Aliases() []string
	// Usage is a one-line argument synopsis without the prefix or name.
	Usage() string
	Summary() string
	Parse(inv Invocation) (Args, error)
	Execute(ctx context.Context, env Env, args Args) (Reply, error)
}

// Env carries the collaborators available to commands. The dispatcher fills
// Caller per message.
type Env struct {
	Requests  pedidos.Repository
	Catalog   library.Catalog
	Providers library.ProviderDirectory
	Processor *processing.Processor
	Files     *delivery.FileSender
	Emitter   notifications.Emitter
	Logger    *slog.Logger

	Prefix          string
	DefaultProvider string
	// ListLimit caps the open-request listing; zero means 15.
	ListLimit int

	Caller   Caller
	Registry *Registry
	Now      func() time.Time
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Env) listLimit() int {
	if e.ListLimit > 0 {
		return e.ListLimit
	}
	return defaultListLimit
}

// cmd renders a command name with the configured prefix.
func (e Env) cmd(name string, args ...string) string {
	parts := append([]string{e.prefix() + name}, args...)
	return strings.Join(parts, " ")
}

const defaultListLimit = 15

// DefaultPrefix starts every command unless configured otherwise.
const DefaultPrefix = "."

// Roles decides who is privileged.
type Roles interface {
	IsPrivileged(senderID string) bool
}

// RolesFunc adapts a function to Roles.
type RolesFunc func(senderID string) bool

// IsPrivileged implements Roles.
func (f RolesFunc) IsPrivileged(senderID string) bool {
	if f == nil {
		return false
	}
	return f(senderID)
}

// StaticRoles treats the listed sender ids as privileged.
func StaticRoles(ids ...string) Roles {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = struct{}{}
		}
	}
	return RolesFunc(func(senderID string) bool {
		_, ok := set[strings.TrimSpace(senderID)]
		return ok
	})
}
