package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"pedidobot/internal/logging"
	"pedidobot/internal/notifications"
	"pedidobot/internal/pedidos"
)

type createArgs struct {
	draft pedidos.Draft
}

type createCommand struct{}

func (createCommand) Name() string      { return "pedido" }
func (createCommand) Aliases() []string { return []string{"pedir"} }
func (createCommand) Usage() string     { return "<titulo> [| descripcion] [| alta/media/baja]" }
func (createCommand) Summary() string   { return "Crea un pedido" }

func (c createCommand) Parse(inv Invocation) (Args, error) {
	parts := strings.Split(inv.Raw, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	draft := pedidos.Draft{
		Title:           parts[0],
		RequesterID:     inv.Message.SenderID,
		OriginChannelID: inv.Message.ChannelID,
		Attachment:      inv.Message.Attachment,
	}
	if len(parts) > 3 {
		return nil, &UsageError{Usage: usageLine(inv, c), Reason: "Demasiados separadores |"}
	}
	if len(parts) > 1 {
		draft.Description = parts[1]
	}
	if len(parts) > 2 {
		priority, ok := pedidos.ParsePriority(parts[2])
		if !ok {
			return nil, pedidos.ErrInvalidPriority
		}
		draft.Priority = priority
	}
	if draft.Title == "" && draft.Attachment == nil {
		return nil, &UsageError{Usage: usageLine(inv, c), Reason: "Falta el título"}
	}
	return createArgs{draft: draft}, nil
}

func (createCommand) Execute(ctx context.Context, env Env, args Args) (Reply, error) {
	a := args.(createArgs)
	req, err := env.Requests.Create(ctx, a.draft)
	if err != nil {
		return Reply{}, err
	}
	if env.Emitter != nil {
		_ = env.Emitter.Emit(ctx, notifications.EventPedidoCreated, notifications.FromRequest(req))
	}

	lines := []string{fmt.Sprintf("✅ Pedido #%d registrado: %s (prioridad %s).", req.ID, req.DisplayTitle(), req.Priority)}
	if env.Processor != nil {
		outcome, ran, err := env.Processor.ProcessAfterCreate(ctx, req)
		switch {
		case err != nil:
			attrs := append(logging.ErrorAttrs(err),
				logging.Pedido(req.ID),
				logging.Hint("run "+env.cmd("procesarpedido", strconv.FormatInt(req.ID, 10))+" once the store is healthy"),
				logging.Impact("request created without automatic matching"),
			)
			logging.WarnWithContext(env.Logger, "auto processing failed", "auto_process_failed", attrs...)
		case ran && outcome.Matched():
			lines = append(lines, formatMatches(env, req.ID, outcome.Matches))
		case ran:
			lines = append(lines, formatNoMatches(env, req.ID))
		}
	}
	lines = append(lines, "Otros pueden apoyarlo con "+env.cmd("votar", strconv.FormatInt(req.ID, 10)))
	return Reply{Text: strings.Join(lines, "\n")}, nil
}

type listCommand struct{}

func (listCommand) Name() string                   { return "pedidos" }
func (listCommand) Aliases() []string              { return nil }
func (listCommand) Usage() string                  { return "" }
func (listCommand) Summary() string                { return "Lista los pedidos abiertos por prioridad" }
func (listCommand) Parse(Invocation) (Args, error) { return nil, nil }

func (listCommand) Execute(ctx context.Context, env Env, _ Args) (Reply, error) {
	reqs, err := env.Requests.List(ctx, pedidos.ListFilter{ExcludeCancelled: true, Limit: env.listLimit()})
	if err != nil {
		return Reply{}, err
	}
	if len(reqs) == 0 {
		return Reply{Text: "No hay pedidos abiertos. Crea uno con " + env.cmd("pedido", "<titulo>")}, nil
	}
	return Reply{Text: formatList("📋 Pedidos abiertos:", reqs)}, nil
}

type mineCommand struct{}

func (mineCommand) Name() string                   { return "mispedidos" }
func (mineCommand) Aliases() []string              { return nil }
func (mineCommand) Usage() string                  { return "" }
func (mineCommand) Summary() string                { return "Lista tus pedidos" }
func (mineCommand) Parse(Invocation) (Args, error) { return nil, nil }

func (mineCommand) Execute(ctx context.Context, env Env, _ Args) (Reply, error) {
	reqs, err := env.Requests.List(ctx, pedidos.ListFilter{RequesterID: env.Caller.SenderID, Limit: env.listLimit()})
	if err != nil {
		return Reply{}, err
	}
	if len(reqs) == 0 {
		return Reply{Text: "Todavía no tienes pedidos. Crea uno con " + env.cmd("pedido", "<titulo>")}, nil
	}
	return Reply{Text: formatList("🙋 Tus pedidos:", reqs)}, nil
}

type idArgs struct {
	id int64
}

func parseIDArg(inv Invocation, usage string) (idArgs, error) {
	if len(inv.Fields) != 1 {
		return idArgs{}, &UsageError{Usage: usage, Reason: "Indica el número de pedido"}
	}
	id, ok := parseID(inv.Fields[0])
	if !ok {
		return idArgs{}, &UsageError{Usage: usage, Reason: "Número de pedido inválido"}
	}
	return idArgs{id: id}, nil
}

type showCommand struct{}

func (showCommand) Name() string      { return "verpedido" }
func (showCommand) Aliases() []string { return nil }
func (showCommand) Usage() string     { return "<id>" }
func (showCommand) Summary() string   { return "Muestra el detalle de un pedido" }

func (c showCommand) Parse(inv Invocation) (Args, error) {
	return parseIDArg(inv, usageLine(inv, c))
}

func (showCommand) Execute(ctx context.Context, env Env, args Args) (Reply, error) {
	req, err := env.Requests.Get(ctx, args.(idArgs).id)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: formatDetail(req)}, nil
}

type voteCommand struct{}

func (voteCommand) Name() string      { return "votar" }
func (voteCommand) Aliases() []string { return nil }
func (voteCommand) Usage() string     { return "<id>" }
func (voteCommand) Summary() string   { return "Vota por un pedido" }

func (c voteCommand) Parse(inv Invocation) (Args, error) {
	return parseIDArg(inv, usageLine(inv, c))
}

func (voteCommand) Execute(ctx context.Context, env Env, args Args) (Reply, error) {
	updated, err := env.Requests.Update(ctx, args.(idArgs).id, func(req *pedidos.Request) error {
		return req.Vote(env.Caller.SenderID, env.now())
	})
	if err != nil {
		return Reply{}, err
	}
	emitUpdated(ctx, env, updated)
	return Reply{Text: fmt.Sprintf("👍 Voto registrado para #%d (%d en total).", updated.ID, updated.Votes)}, nil
}

type cancelCommand struct{}

func (cancelCommand) Name() string      { return "cancelarpedido" }
func (cancelCommand) Aliases() []string { return nil }
func (cancelCommand) Usage() string     { return "<id>" }
func (cancelCommand) Summary() string   { return "Cancela un pedido (creador o admin)" }

func (c cancelCommand) Parse(inv Invocation) (Args, error) {
	return parseIDArg(inv, usageLine(inv, c))
}

func (cancelCommand) Execute(ctx context.Context, env Env, args Args) (Reply, error) {
	updated, err := env.Requests.Update(ctx, args.(idArgs).id, func(req *pedidos.Request) error {
		return req.Cancel(env.Caller.Actor(), env.now())
	})
	if err != nil {
		return Reply{}, err
	}
	emitUpdated(ctx, env, updated)
	return Reply{Text: fmt.Sprintf("🚫 Pedido #%d cancelado.", updated.ID)}, nil
}

type stateArgs struct {
	id    int64
	state pedidos.State
}

type stateCommand struct{}

func (stateCommand) Name() string      { return "estadopedido" }
func (stateCommand) Aliases() []string { return nil }
func (stateCommand) Usage() string     { return "<id> <pendiente|en_proceso|completado|cancelado>" }
func (stateCommand) Summary() string   { return "Cambia el estado de un pedido (admin)" }

func (c stateCommand) Parse(inv Invocation) (Args, error) {
	usage := usageLine(inv, c)
	if len(inv.Fields) < 2 {
		return nil, &UsageError{Usage: usage, Reason: "Indica el número y el estado"}
	}
	id, ok := parseID(inv.Fields[0])
	if !ok {
		return nil, &UsageError{Usage: usage, Reason: "Número de pedido inválido"}
	}
	state, ok := pedidos.ParseState(strings.Join(inv.Fields[1:], " "))
	if !ok {
		return nil, pedidos.ErrInvalidState
	}
	return stateArgs{id: id, state: state}, nil
}

func (stateCommand) Execute(ctx context.Context, env Env, args Args) (Reply, error) {
	a := args.(stateArgs)
	if !env.Caller.Privileged {
		return Reply{}, pedidos.ErrNotPrivileged
	}
	updated, err := env.Requests.Update(ctx, a.id, func(req *pedidos.Request) error {
		return req.SetState(env.Caller.Actor(), a.state, env.now())
	})
	if err != nil {
		return Reply{}, err
	}
	emitUpdated(ctx, env, updated)
	return Reply{Text: fmt.Sprintf("%s Pedido #%d ahora está %s.", stateIcons[updated.State], updated.ID, updated.State.Label())}, nil
}

func emitUpdated(ctx context.Context, env Env, req *pedidos.Request) {
	if env.Emitter == nil {
		return
	}
	_ = env.Emitter.Emit(ctx, notifications.EventPedidoUpdated, notifications.FromRequest(req))
}

// usageLine renders cmd's usage with the name the caller typed.
func usageLine(inv Invocation, cmd Command) string {
	name := inv.Name
	if name == "" {
		name = cmd.Name()
	}
	prefix := inv.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	line := prefix + name
	if usage := cmd.Usage(); usage != "" {
		line += " " + usage
	}
	return line
}
