package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pedidobot/internal/config"
	"pedidobot/internal/library"
	"pedidobot/internal/store"
)

func newProviderCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "Configure provider channels",
	}
	cmd.AddCommand(newProviderSetCommand(ctx))
	cmd.AddCommand(newProviderListCommand(ctx))
	return cmd
}

func newProviderSetCommand(ctx *commandContext) *cobra.Command {
	var name string
	var auto bool

	cmd := &cobra.Command{
		Use:   "set <channel-id>",
		Short: "Register a provider channel or update its settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			channel := strings.TrimSpace(args[0])
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				current, err := st.Provider(cmd.Context(), channel)
				if err != nil {
					return err
				}
				next := library.Provider{ChannelID: channel, Name: name, AutoProcessPedidos: auto}
				if current != nil {
					if !cmd.Flags().Changed("name") {
						next.Name = current.Name
					}
					if !cmd.Flags().Changed("auto") {
						next.AutoProcessPedidos = current.AutoProcessPedidos
					}
				}
				saved, err := st.UpsertProvider(cmd.Context(), next)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Provider %s saved (auto-process: %s)\n", saved.ChannelID, yesNo(saved.AutoProcessPedidos))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().BoolVar(&auto, "auto", false, "Process new pedidos automatically against this provider")
	return cmd
}

func newProviderListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List provider channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				providers, err := st.Providers(cmd.Context())
				if err != nil {
					return err
				}
				if len(providers) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No providers configured")
					return nil
				}
				rows := make([][]string, 0, len(providers))
				for _, p := range providers {
					rows = append(rows, []string{
						p.ChannelID,
						p.Name,
						yesNo(p.AutoProcessPedidos),
						p.UpdatedAt.Local().Format(time.DateTime),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Channel", "Name", "Auto", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}
