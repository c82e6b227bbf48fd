package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"pedidobot/internal/classify"
	"pedidobot/internal/config"
	"pedidobot/internal/fileutil"
	"pedidobot/internal/library"
	"pedidobot/internal/store"
)

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage provider library items",
	}
	cmd.AddCommand(newLibraryAddCommand(ctx))
	cmd.AddCommand(newLibraryListCommand(ctx))
	return cmd
}

func newLibraryAddCommand(ctx *commandContext) *cobra.Command {
	var title, chapter, category, url string
	var tags []string
	var inPlace bool

	cmd := &cobra.Command{
		Use:   "add <provider-channel> <file>",
		Short: "Copy a file into the library and record it for a provider",
		Long: "Copy a file into the library and record it for a provider.\n\n" +
			"Title, chapter, and category default to the heuristic guess from the file name.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := strings.TrimSpace(args[0])
			source, err := config.ExpandPath(args[1])
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				path, size := source, int64(0)
				if inPlace {
					info, err := os.Stat(source)
					if err != nil {
						return err
					}
					if !info.Mode().IsRegular() {
						return fmt.Errorf("%s is not a regular file", source)
					}
					size = info.Size()
				} else {
					path, size, err = fileutil.Ingest(source, cfg.Paths.LibraryDir, provider)
					if err != nil {
						return fmt.Errorf("ingest %s: %w", source, err)
					}
				}

				guess, _ := classify.Heuristic{}.Classify(cmd.Context(), classify.Input{Filename: filepath.Base(source)})
				item := library.Item{
					ProviderChannelID: provider,
					Title:             firstNonEmpty(title, guess.Title),
					Chapter:           firstNonEmpty(chapter, guess.Chapter),
					Category:          firstNonEmpty(category, guess.Category),
					Tags:              mergeTags(tags, guess.Tags),
					Format:            strings.TrimPrefix(strings.ToLower(filepath.Ext(source)), "."),
					OriginalName:      filepath.Base(source),
					FilePath:          path,
					URL:               strings.TrimSpace(url),
					SizeBytes:         size,
				}
				added, err := st.AddItem(cmd.Context(), item)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added item %d: %s (%s) -> %s\n",
					added.ID, added.Title, humanize.Bytes(uint64(added.SizeBytes)), added.FilePath)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Item title")
	cmd.Flags().StringVar(&chapter, "chapter", "", "Chapter or volume")
	cmd.Flags().StringVar(&category, "category", "", "Category")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag (repeatable)")
	cmd.Flags().StringVar(&url, "url", "", "External link for the item")
	cmd.Flags().BoolVar(&inPlace, "in-place", false, "Record the file where it is instead of copying it")
	return cmd
}

func newLibraryListCommand(ctx *commandContext) *cobra.Command {
	var provider string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List library items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				var items []library.Item
				var err error
				if p := strings.TrimSpace(provider); p != "" {
					items, err = st.ListByProvider(cmd.Context(), p)
				} else {
					items, err = st.ListItems(cmd.Context())
				}
				if err != nil {
					return err
				}
				if asJSON {
					if items == nil {
						items = []library.Item{}
					}
					return writeJSON(cmd, items)
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Library is empty")
					return nil
				}
				rows := make([][]string, 0, len(items))
				for _, it := range items {
					rows = append(rows, []string{
						strconv.FormatInt(it.ID, 10),
						it.ProviderChannelID,
						it.Title,
						it.Chapter,
						it.Category,
						humanize.Bytes(uint64(it.SizeBytes)),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Provider", "Title", "Chapter", "Category", "Size"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&provider, "provider", "p", "", "Only items for this provider channel")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func mergeTags(explicit, guessed []string) []string {
	if len(explicit) > 0 {
		return explicit
	}
	return guessed
}
