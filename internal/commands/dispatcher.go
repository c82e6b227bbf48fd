package commands

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"pedidobot/internal/guard"
	"pedidobot/internal/logging"
	"pedidobot/internal/services"
)

// Outcome summarises one dispatched message.
type Outcome struct {
	// Handled is false when the text was not a command.
	Handled bool
	// Duplicate is true when the guard suppressed a replay.
	Duplicate bool
	Command   string
	Reply     string
	// Err is the command error that produced Reply, if any.
	Err error
}

// Dispatcher routes inbound messages to commands.
type Dispatcher struct {
	registry *Registry
	guard    *guard.Guard
	replier  Replier
	roles    Roles
	env      Env
	logger   *slog.Logger
}

// Replier is the subset of delivery.Replier the dispatcher needs.
type Replier interface {
	SendText(ctx context.Context, channelID, text string) error
}

// NewDispatcher builds a dispatcher. env is copied per message with the
// caller filled in; a nil guard disables duplicate suppression.
func NewDispatcher(registry *Registry, g *guard.Guard, replier Replier, roles Roles, env Env) *Dispatcher {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if roles == nil {
		roles = StaticRoles()
	}
	env.Registry = registry
	if env.Prefix == "" {
		env.Prefix = DefaultPrefix
	}
	logger := logging.NewComponentLogger(env.Logger, "commands")
	env.Logger = logger
	return &Dispatcher{
		registry: registry,
		guard:    g,
		replier:  replier,
		roles:    roles,
		env:      env,
		logger:   logger,
	}
}

// Prefix returns the active command prefix.
func (d *Dispatcher) Prefix() string { return d.env.Prefix }

// ParseCommandLine splits text into a command name and its arguments when it
// starts with prefix.
func ParseCommandLine(prefix, text string) (name, raw string, ok bool) {
	text = strings.TrimSpace(text)
	if prefix == "" || !strings.HasPrefix(text, prefix) {
		return "", "", false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(text, prefix))
	if rest == "" {
		return "", "", false
	}
	name, raw, _ = strings.Cut(rest, " ")
	if i := strings.IndexAny(name, "\n\t"); i >= 0 {
		raw = name[i:] + " " + raw
		name = name[:i]
	}
	return strings.ToLower(name), strings.TrimSpace(raw), true
}

// Dispatch handles msg end to end. It never returns an error: every failure
// becomes a reply and a log line.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) Outcome {
	name, raw, ok := ParseCommandLine(d.env.Prefix, msg.Text)
	if !ok {
		return Outcome{}
	}
	ctx = services.WithChannel(ctx, msg.ChannelID)
	ctx = services.WithCommand(ctx, name)
	logger := logging.WithContext(ctx, d.logger).With(logging.String("sender_id", msg.SenderID))

	cmd, found := d.registry.Lookup(name)
	canonical := name
	if found {
		canonical = cmd.Name()
	}
	if d.guard != nil && d.guard.ShouldSkip(guard.Key{
		Command:   canonical,
		ChannelID: msg.ChannelID,
		SenderID:  msg.SenderID,
		MessageID: msg.ID,
	}) {
		logger.Info("duplicate command ignored",
			logging.Args(append(logging.DecisionAttrs("duplicate_guard", "skipped", "message already handled"),
				logging.String("message_id", msg.ID))...)...)
		return Outcome{Handled: true, Duplicate: true, Command: canonical}
	}
	if !found {
		out := Outcome{Handled: true, Command: name, Reply: fmt.Sprintf("No conozco el comando %s%s. Usa %s para ver la lista.", d.env.Prefix, name, d.env.cmd("ayuda"))}
		d.send(ctx, logger, msg.ChannelID, out.Reply)
		return out
	}

	env := d.env
	env.Caller = Caller{
		SenderID:   msg.SenderID,
		ChannelID:  msg.ChannelID,
		Privileged: d.roles.IsPrivileged(msg.SenderID),
	}
	env.Logger = logger
	inv := Invocation{Message: msg, Prefix: d.env.Prefix, Name: name, Raw: raw, Fields: strings.Fields(raw)}

	reply, err := d.run(ctx, cmd, env, inv)
	out := Outcome{Handled: true, Command: cmd.Name(), Reply: reply.Text, Err: err}
	if err != nil {
		out.Reply = userMessage(env, err)
		d.logFailure(logger, cmd.Name(), err)
	} else {
		logger.Debug("command completed")
	}
	d.send(ctx, logger, msg.ChannelID, out.Reply)
	return out
}

func (d *Dispatcher) run(ctx context.Context, cmd Command, env Env, inv Invocation) (reply Reply, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("command %s panicked: %v", cmd.Name(), r)
			logging.ErrorWithContext(env.Logger, "command panic recovered", "command_panic",
				logging.String("panic", fmt.Sprint(r)),
				logging.String("stack", string(debug.Stack())),
				logging.Hint("report this message and the stack trace"),
			)
		}
	}()
	args, err := cmd.Parse(inv)
	if err != nil {
		return Reply{}, err
	}
	return cmd.Execute(ctx, env, args)
}

func (d *Dispatcher) logFailure(logger *slog.Logger, name string, err error) {
	kind := services.Kind(err)
	switch kind {
	case services.KindValidation, services.KindNotFound, services.KindAuthorization:
		logger.Info("command rejected", logging.Args(logging.ErrorAttrs(err)...)...)
	default:
		attrs := append(logging.ErrorAttrs(err),
			logging.Hint("inspect the error and retry "+name),
		)
		logging.ErrorWithContext(logger, "command failed", "command_failed", attrs...)
	}
}

func (d *Dispatcher) send(ctx context.Context, logger *slog.Logger, channelID, text string) {
	if d.replier == nil || strings.TrimSpace(text) == "" {
		return
	}
	if err := d.replier.SendText(ctx, channelID, text); err != nil {
		attrs := append(logging.ErrorAttrs(err),
			logging.Hint("check the bridge_url and that the bridge is running"),
			logging.Impact("the user did not receive a reply"),
		)
		logging.WarnWithContext(logger, "reply delivery failed", "reply_failed", attrs...)
	}
}
