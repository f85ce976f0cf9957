package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"NewsDigest/internal/category"
)

func newCategoriesCommand(rt Runtime, g *globals) *cobra.Command {
	var window time.Duration

	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"cats"},
		Short:   "Show stored article counts per category",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDigests(cmd, rt, g, func(d Digests) error {
				counts, err := d.ListCategoryCounts(cmd.Context(), window)
				if err != nil {
					return err
				}
				if len(counts) == 0 {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), "No categorized articles in the window.")
					return err
				}

				table := newTable(cmd.OutOrStdout(), []string{"Category", "Articles"})
				for _, c := range counts {
					table.AddRow([]string{c.Category, strconv.Itoa(c.Count)})
				}
				return table.Render()
			})
		},
	}

	cmd.Flags().DurationVar(&window, "window", 0, "trailing window (default: configured category window)")
	return cmd
}

func newCategoryCommand(rt Runtime, g *globals) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "category <name>",
		Short: "List the latest articles of one category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.ToLower(strings.TrimSpace(args[0]))
			if !category.Known(name) {
				return fmt.Errorf("unknown category %q, available: %s", name, strings.Join(category.Names(), ", "))
			}
			return withDigests(cmd, rt, g, func(d Digests) error {
				links, err := d.ListByCategory(cmd.Context(), name, limit)
				if err != nil {
					return err
				}
				if len(links) == 0 {
					_, err := fmt.Fprintf(cmd.OutOrStdout(), "No articles in category %s.\n", name)
					return err
				}

				table := newTable(cmd.OutOrStdout(), []string{"Title", "URL"})
				for _, l := range links {
					table.AddRow([]string{l.Title, l.URL})
				}
				return table.Render()
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "number of articles (default: configured category limit)")
	return cmd
}
