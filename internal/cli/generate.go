package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/khanglvm/recordbook/internal/generate"
)

// NewGenerateCmd creates the 'generate' command.
func NewGenerateCmd(open Opener) *cobra.Command {
	var req generate.Request
	var pace time.Duration
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Compose evaluation drafts from saved observations",
		Long: `Compose one evaluation draft per student from their saved observation
records of the chosen category, and append each draft to the generated log.

Without --student every roster student is a target, in roster order.
Students with no observations in the category get a generic sentence.`,
		Example: `  recordbook generate
  recordbook generate --student 1 --student 3 --category 행특 --style 간결체
  recordbook generate --length 500 --style 구체적 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, app *App) error {
				gen := app.Generator()
				if cmd.Flags().Changed("pace") {
					gen = generate.New(app.Store, app.Tax, generate.WithPace(pace), generate.WithLogger(app.Log))
				}

				items, err := gen.Generate(ctx, req)
				out := cmd.OutOrStdout()
				if jsonOutput {
					if perr := printJSON(out, items); perr != nil {
						return perr
					}
					return err
				}

				names := map[string]string{}
				if students, lerr := app.Store.ListStudents(ctx); lerr == nil {
					for _, s := range students {
						names[s.ID] = s.Name
					}
				}
				for _, item := range items {
					fmt.Fprintf(out, "%s (%s, %s)\n  %s\n\n", colorGreen(names[item.StudentID]), item.Category, item.Style, item.Content)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "✓ Generated %d draft(s)\n", len(items))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&req.StudentIDs, "student", "s", nil, "Target student id (repeatable; default: all)")
	cmd.Flags().StringVarP(&req.Category, "category", "c", generate.DefaultCategory, "Category to draw observations from")
	cmd.Flags().IntVarP(&req.CharCount, "length", "l", generate.DefaultCharCount, "Requested length in characters")
	cmd.Flags().StringVar(&req.Style, "style", generate.DefaultStyle, "Writing style (서술체, 간결체, 구체적)")
	cmd.Flags().DurationVar(&pace, "pace", 0, "Delay per student (overrides settings.paceMillis)")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	return cmd
}

// NewGeneratedCmd creates the 'generated' command listing the generation log.
func NewGeneratedCmd(open Opener) *cobra.Command {
	var studentID string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "generated",
		Short: "List generated drafts, newest first",
		Example: `  recordbook generated
  recordbook generated --student 2 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, app *App) error {
				items, err := app.Store.ListGenerated(ctx)
				if err != nil {
					return err
				}
				if studentID != "" {
					filtered := items[:0]
					for _, item := range items {
						if item.StudentID == studentID {
							filtered = append(filtered, item)
						}
					}
					items = filtered
				}

				out := cmd.OutOrStdout()
				if jsonOutput {
					return printJSON(out, items)
				}
				if len(items) == 0 {
					fmt.Fprintln(out, "No generated drafts.")
					return nil
				}
				for _, item := range items {
					fmt.Fprintf(out, "[%s] student %s · %s · %s · %d자\n  %s\n\n",
						item.CreatedAt.Local().Format("2006-01-02 15:04"), item.StudentID, item.Category, item.Style, item.CharCount, item.Content)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&studentID, "student", "s", "", "Only drafts for this student id")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	return cmd
}
