package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"pedidobot/internal/config"
	"pedidobot/internal/daemon"
	"pedidobot/internal/notifications"
	"pedidobot/internal/pedidos"
	"pedidobot/internal/processing"
	"pedidobot/internal/store"
)

// cliActor is the privileged identity used for operator transitions.
const cliActor = "cli"

func newPedidosCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pedidos",
		Aliases: []string{"pedido"},
		Short:   "Inspect and manage content requests",
	}
	cmd.AddCommand(newPedidosListCommand(ctx))
	cmd.AddCommand(newPedidosShowCommand(ctx))
	cmd.AddCommand(newPedidosProcessCommand(ctx))
	cmd.AddCommand(newPedidosStateCommand(ctx))
	return cmd
}

func newPedidosListCommand(ctx *commandContext) *cobra.Command {
	var states []string
	var requester string
	var limit int
	var all bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pedidos by priority and votes",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := pedidos.ListFilter{
				RequesterID:      strings.TrimSpace(requester),
				Limit:            limit,
				ExcludeCancelled: !all && len(states) == 0,
			}
			for _, raw := range states {
				state, ok := pedidos.ParseState(raw)
				if !ok {
					return fmt.Errorf("invalid state %q", raw)
				}
				filter.States = append(filter.States, state)
			}
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				items, err := st.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if asJSON {
					if items == nil {
						items = []*pedidos.Request{}
					}
					return writeJSON(cmd, items)
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No pedidos")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderPedidoTable(items, time.Now()))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&states, "state", "s", nil, "Filter by state (repeatable)")
	cmd.Flags().StringVar(&requester, "requester", "", "Filter by requester id")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum rows (0 for all)")
	cmd.Flags().BoolVar(&all, "all", false, "Include cancelled pedidos")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func renderPedidoTable(items []*pedidos.Request, now time.Time) string {
	rows := make([][]string, 0, len(items))
	for _, req := range items {
		rows = append(rows, []string{
			strconv.FormatInt(req.ID, 10),
			req.DisplayTitle(),
			string(req.Priority),
			req.State.Label(),
			strconv.Itoa(req.Votes),
			req.RequesterID,
			humanize.RelTime(req.CreatedAt, now, "ago", "from now"),
		})
	}
	return renderTable(
		[]string{"ID", "Title", "Priority", "State", "Votes", "Requester", "Created"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	)
}

func newPedidosShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a pedido with its latest processing result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePedidoID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				req, err := st.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, req)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderPedidoDetail(req))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func renderPedidoDetail(req *pedidos.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pedido #%d: %s\n", req.ID, req.DisplayTitle())
	fmt.Fprintf(&b, "  State:     %s\n", req.State.Label())
	fmt.Fprintf(&b, "  Priority:  %s\n", req.Priority)
	fmt.Fprintf(&b, "  Votes:     %d\n", req.Votes)
	fmt.Fprintf(&b, "  Requester: %s (%s)\n", req.RequesterID, req.OriginChannelID)
	if req.Description != "" {
		fmt.Fprintf(&b, "  Details:   %s\n", req.Description)
	}
	if req.Attachment != nil {
		fmt.Fprintf(&b, "  File:      %s\n", req.Attachment.OriginalName)
	}
	fmt.Fprintf(&b, "  Created:   %s\n", req.CreatedAt.Local().Format(time.DateTime))
	if p := req.Processing; p != nil {
		fmt.Fprintf(&b, "  Processed: %s via %s\n", p.ProcessedAt.Local().Format(time.DateTime), p.ProviderChannelID)
		fmt.Fprintf(&b, "  Query:     %s\n", p.Query)
		fmt.Fprintf(&b, "  Note:      %s\n", p.Note)
		for i, m := range p.Matches {
			fmt.Fprintf(&b, "    %d. item %d (score %.0f)\n", i+1, m.LibraryItemID, m.Score)
		}
	}
	return b.String()
}

func newPedidosProcessCommand(ctx *commandContext) *cobra.Command {
	var provider string
	cmd := &cobra.Command{
		Use:   "process <id>",
		Short: "Match a pedido against a provider library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePedidoID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				req, err := st.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				channel := strings.TrimSpace(provider)
				if channel == "" {
					channel = cfg.Matching.DefaultProvider
				}
				if channel == "" {
					return fmt.Errorf("no provider given; pass --provider or set matching.default_provider")
				}

				emitter, closeEmitter := cliEmitter(cfg)
				defer closeEmitter()
				proc := processing.New(processing.Deps{
					Requests:   st,
					Catalog:    st,
					Providers:  st,
					Classifier: daemon.BuildClassifier(cfg),
					Emitter:    emitter,
					Logger:     cliLogger(cmd, cfg),
				}, processing.Options{
					Rank:              daemon.RankOptions(cfg),
					ClassifierTimeout: cfg.ClassifierTimeout(),
				})
				out, err := proc.Process(cmd.Context(), req, channel)
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Query: %s\n", out.Query)
				if !out.Matched() {
					fmt.Fprintln(w, "No matches")
					return nil
				}
				rows := make([][]string, 0, len(out.Matches))
				for _, m := range out.Matches {
					rows = append(rows, []string{
						strconv.FormatInt(m.Item.ID, 10),
						m.Item.Title,
						m.Item.Chapter,
						fmt.Sprintf("%.0f", m.Score),
					})
				}
				fmt.Fprintln(w, renderTable([]string{"Item", "Title", "Chapter", "Score"}, rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight}))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&provider, "provider", "p", "", "Provider channel id")
	return cmd
}

func newPedidosStateCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state <id> <state>",
		Short: "Move a pedido to another state",
		Long:  "Move a pedido to another state. Valid states: " + stateNames() + ".",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePedidoID(args[0])
			if err != nil {
				return err
			}
			raw := strings.Join(args[1:], " ")
			state, ok := pedidos.ParseState(raw)
			if !ok {
				return fmt.Errorf("invalid state %q (valid: %s)", raw, stateNames())
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				actor := pedidos.Actor{ID: cliActor, Privileged: true}
				req, err := st.Update(cmd.Context(), id, func(r *pedidos.Request) error {
					return r.SetState(actor, state, time.Now())
				})
				if err != nil {
					return err
				}
				emitter, closeEmitter := cliEmitter(cfg)
				defer closeEmitter()
				_ = notifications.BestEffort(emitter, cliLogger(cmd, cfg)).
					Emit(cmd.Context(), notifications.EventPedidoUpdated, notifications.FromRequest(req))
				fmt.Fprintf(cmd.OutOrStdout(), "Pedido #%d is now %s\n", req.ID, req.State.Label())
				return nil
			})
		},
	}
	return cmd
}

func cliEmitter(cfg *config.Config) (notifications.Emitter, func()) {
	emitter, err := notifications.NewFromConfig(cfg)
	if err != nil {
		return notifications.Noop{}, func() {}
	}
	return emitter, func() {
		if closer, ok := emitter.(io.Closer); ok {
			_ = closer.Close()
		}
	}
}

func stateNames() string {
	names := make([]string, 0, len(pedidos.AllStates()))
	for _, s := range pedidos.AllStates() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

func parsePedidoID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(raw), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid pedido id %q", raw)
	}
	return id, nil
}
