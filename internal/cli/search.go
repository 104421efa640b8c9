package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khanglvm/recordbook/internal/search"
)

// NewSearchCmd creates the 'search' command.
func NewSearchCmd(open Opener) *cobra.Command {
	var filter search.Filter
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over memos and generated drafts",
		Long: `Search observation memos, observation point names and generated drafts.
Terms match exactly, by prefix, or within one typo.`,
		Example: `  recordbook search 발표
  recordbook search 경청 --kind record --category 세특
  recordbook search 태도 --student 1 --limit 5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withApp(cmd, open, func(ctx context.Context, app *App) error {
				idx, err := search.NewIndexer()
				if err != nil {
					return err
				}
				defer idx.Close()

				if err := idx.Build(ctx, app.Store); err != nil {
					return err
				}
				hits, err := idx.SearchFiltered(query, filter, limit)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if jsonOutput {
					return printJSON(out, hits)
				}
				if len(hits) == 0 {
					fmt.Fprintf(out, "No matches for %q\n", query)
					return nil
				}
				for i, h := range hits {
					fmt.Fprintf(out, "%d. [%s] student %s · %s (score %.2f)\n   %s\n", i+1, h.Kind, h.StudentID, h.Category, h.Score, h.Text)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&filter.Kind, "kind", "k", "", "Only 'record' or 'generated' hits")
	cmd.Flags().StringVarP(&filter.Category, "category", "c", "", "Only hits of this category")
	cmd.Flags().StringVarP(&filter.StudentID, "student", "s", "", "Only hits for this student id")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of hits")
	return cmd
}
