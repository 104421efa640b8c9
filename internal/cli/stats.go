package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khanglvm/recordbook/internal/taxonomy"
)

// NewStatsCmd creates the 'stats' command.
func NewStatsCmd(open Opener) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show collection counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, app *App) error {
				stats, err := app.Store.Stats(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if jsonOutput {
					return printJSON(out, stats)
				}
				fmt.Fprintf(out, "Students:              %d\n", stats.Students)
				fmt.Fprintf(out, "Students with records: %d\n", stats.StudentsWithRecord)
				fmt.Fprintf(out, "Records:               %d\n", stats.Records)
				for _, name := range app.Tax.CategoryNames() {
					if n := stats.RecordsByCategory[name]; n > 0 {
						fmt.Fprintf(out, "  %-6s %d\n", name, n)
					}
				}
				fmt.Fprintf(out, "Generated drafts:      %d\n", stats.Generated)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	return cmd
}

// NewTaxonomyCmd creates the 'taxonomy' command printing the observation tree.
func NewTaxonomyCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "taxonomy [category]",
		Short: "Show categories, observation points and example phrases",
		Example: `  recordbook taxonomy
  recordbook taxonomy 세특`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tax, err := taxonomy.Default()
			if err != nil {
				return err
			}

			names := tax.CategoryNames()
			if len(args) == 1 {
				if !tax.HasCategory(args[0]) {
					return fmt.Errorf("%w: %s", taxonomy.ErrUnknownCategory, args[0])
				}
				names = []string{args[0]}
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				if len(args) == 1 {
					c, _ := tax.Category(args[0])
					return printJSON(out, c)
				}
				return printJSON(out, tax)
			}

			for _, cat := range names {
				fmt.Fprintf(out, "%s (%s)\n", cat, tax.Label(cat))
				for _, sub := range tax.SubCategories(cat) {
					fmt.Fprintf(out, "  %s\n", sub)
					for _, point := range tax.Points(cat, sub) {
						fmt.Fprintf(out, "    %s\n", point)
						for i, ex := range tax.Examples(cat, sub, point) {
							fmt.Fprintf(out, "      [%d] %s\n", i, ex)
						}
					}
				}
			}

			styles := make([]string, 0, len(tax.Styles))
			for _, s := range tax.Styles {
				styles = append(styles, s.Name)
			}
			lengths := make([]string, 0, len(tax.Lengths))
			for _, n := range tax.Lengths {
				lengths = append(lengths, fmt.Sprint(n))
			}
			fmt.Fprintf(out, "\nStyles:  %s\n", strings.Join(styles, ", "))
			fmt.Fprintf(out, "Lengths: %s\n", strings.Join(lengths, ", "))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	return cmd
}
