package commands

import (
	"context"
	"strings"

	"pedidobot/internal/library"
	"pedidobot/internal/logging"
	"pedidobot/internal/services"
)

type processArgs struct {
	id       int64
	provider string
}

type processCommand struct{}

func (processCommand) Name() string      { return "procesarpedido" }
func (processCommand) Aliases() []string { return []string{"buscarpedido"} }
func (processCommand) Usage() string     { return "<id> [canal_proveedor]" }
func (processCommand) Summary() string   { return "Busca el pedido en la biblioteca" }

func (c processCommand) Parse(inv Invocation) (Args, error) {
	usage := usageLine(inv, c)
	if len(inv.Fields) < 1 || len(inv.Fields) > 2 {
		return nil, &UsageError{Usage: usage, Reason: "Indica el número de pedido"}
	}
	id, ok := parseID(inv.Fields[0])
	if !ok {
		return nil, &UsageError{Usage: usage, Reason: "Número de pedido inválido"}
	}
	args := processArgs{id: id}
	if len(inv.Fields) == 2 {
		args.provider = inv.Fields[1]
	}
	return args, nil
}

func (processCommand) Execute(ctx context.Context, env Env, args Args) (Reply, error) {
	a := args.(processArgs)
	if env.Processor == nil {
		return Reply{}, services.Wrap(services.ErrConfiguration, "commands", "procesarpedido", "processor not configured", nil)
	}
	req, err := env.Requests.Get(ctx, a.id)
	if err != nil {
		return Reply{}, err
	}
	provider, err := resolveProvider(ctx, env, a.provider, req.OriginChannelID)
	if err != nil {
		return Reply{}, err
	}
	outcome, err := env.Processor.Process(ctx, req, provider)
	if err != nil {
		return Reply{}, err
	}
	if !outcome.Matched() {
		return Reply{Text: formatNoMatches(env, req.ID)}, nil
	}
	return Reply{Text: formatMatches(env, req.ID, outcome.Matches)}, nil
}

// resolveProvider picks the library to search: the explicit argument, the
// invoking channel, the request's origin channel, then the configured default.
func resolveProvider(ctx context.Context, env Env, explicit, origin string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		p, err := lookupProvider(ctx, env, explicit)
		if err != nil {
			return "", err
		}
		if p == nil {
			return "", withReply("El canal "+explicit+" no está configurado como proveedor.", library.ErrNotProvider)
		}
		return p.ChannelID, nil
	}
	for _, candidate := range []string{env.Caller.ChannelID, origin} {
		if strings.TrimSpace(candidate) == "" {
			continue
		}
		p, err := lookupProvider(ctx, env, candidate)
		if err != nil {
			return "", err
		}
		if p != nil {
			return p.ChannelID, nil
		}
	}
	if def := strings.TrimSpace(env.DefaultProvider); def != "" {
		return def, nil
	}
	return "", withReply("No hay un canal proveedor para buscar. Indícalo así: "+
		env.cmd("procesarpedido", "<id>", "<canal_proveedor>"), library.ErrNotProvider)
}

func lookupProvider(ctx context.Context, env Env, channelID string) (*library.Provider, error) {
	if env.Providers == nil {
		return nil, nil
	}
	return env.Providers.Provider(ctx, channelID)
}

type sendArgs struct {
	itemID int64
}

type sendCommand struct{}

func (sendCommand) Name() string      { return "enviar" }
func (sendCommand) Aliases() []string { return []string{"descargar"} }
func (sendCommand) Usage() string     { return "<id_archivo>" }
func (sendCommand) Summary() string   { return "Envía un archivo de la biblioteca" }

func (c sendCommand) Parse(inv Invocation) (Args, error) {
	usage := usageLine(inv, c)
	if len(inv.Fields) != 1 {
		return nil, &UsageError{Usage: usage, Reason: "Indica el número de archivo"}
	}
	id, ok := parseID(inv.Fields[0])
	if !ok {
		return nil, &UsageError{Usage: usage, Reason: "Número de archivo inválido"}
	}
	return sendArgs{itemID: id}, nil
}

func (sendCommand) Execute(ctx context.Context, env Env, args Args) (Reply, error) {
	a := args.(sendArgs)
	if env.Files == nil {
		return Reply{}, services.Wrap(services.ErrConfiguration, "commands", "enviar", "file sender not configured", nil)
	}
	item, err := env.Catalog.GetItem(ctx, a.itemID)
	if err != nil {
		return Reply{}, err
	}
	if !env.Caller.Privileged && item.ProviderChannelID != env.Caller.ChannelID {
		return Reply{}, withReply("⛔ Ese archivo pertenece a otro proveedor; pídelo desde su canal.",
			services.Wrap(services.ErrAuthorization, "commands", "enviar", "item owned by "+item.ProviderChannelID, nil))
	}
	sent, err := env.Files.Send(ctx, env.Caller.ChannelID, *item)
	if err != nil {
		return Reply{}, err
	}
	logging.WithContext(ctx, env.Logger).Info("library file sent",
		logging.Int64("library_item_id", item.ID),
		logging.Int64("size_bytes", sent.Size),
		logging.String("file", sent.Doc.FileName),
	)
	return Reply{}, nil
}

type helpCommand struct{}

func (helpCommand) Name() string                   { return "ayuda" }
func (helpCommand) Aliases() []string              { return []string{"help"} }
func (helpCommand) Usage() string                  { return "" }
func (helpCommand) Summary() string                { return "Muestra esta ayuda" }
func (helpCommand) Parse(Invocation) (Args, error) { return nil, nil }

func (helpCommand) Execute(_ context.Context, env Env, _ Args) (Reply, error) {
	lines := []string{"📚 Comandos disponibles:"}
	var cmds []Command
	if env.Registry != nil {
		cmds = env.Registry.Commands()
	} else {
		cmds = Builtin()
	}
	for _, cmd := range cmds {
		line := env.cmd(cmd.Name())
		if usage := cmd.Usage(); usage != "" {
			line += " " + usage
		}
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			line += " (" + env.cmd(strings.Join(aliases, ", "+env.prefix())) + ")"
		}
		lines = append(lines, line+": "+cmd.Summary())
	}
	return Reply{Text: strings.Join(lines, "\n")}, nil
}

func (e Env) prefix() string {
	if e.Prefix == "" {
		return DefaultPrefix
	}
	return e.Prefix
}
