package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khanglvm/recordbook/internal/store"
	"github.com/khanglvm/recordbook/internal/taxonomy"
)

// NewRecordsCmd groups the observation record commands.
func NewRecordsCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "records",
		Aliases: []string{"record"},
		Short:   "List and save observation records",
	}
	cmd.AddCommand(newRecordsListCmd(open))
	cmd.AddCommand(newRecordsSaveCmd(open))
	return cmd
}

func newRecordsListCmd(open Opener) *cobra.Command {
	var category string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List observation records in insertion order",
		Example: `  recordbook records list
  recordbook records list --category 세특 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, app *App) error {
				records, err := app.Store.ListRecords(ctx, category)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if jsonOutput {
					return printJSON(out, records)
				}
				if len(records) == 0 {
					fmt.Fprintln(out, "No records found.")
					return nil
				}

				fmt.Fprintf(out, "Records (%d):\n\n", len(records))
				for _, r := range records {
					fmt.Fprintf(out, "  %s / %s / %s  student %s\n", r.Category, r.SubCategory, r.Point, r.StudentID)
					examples := app.Tax.Examples(r.Category, r.SubCategory, r.Point)
					for _, i := range r.CheckedExamples {
						if i >= 0 && i < len(examples) {
							fmt.Fprintf(out, "    ✓ %s\n", examples[i])
						}
					}
					if r.Memo != "" {
						fmt.Fprintf(out, "    memo: %s\n", r.Memo)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Only records of this category")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	return cmd
}

func newRecordsSaveCmd(open Opener) *cobra.Command {
	var in store.RecordInput
	var checked []int

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save an observation (replaces the existing one for the same point)",
		Long: `Save an observation for a student under category / subcategory / point.
A record already saved for the same student and point is overwritten in place,
keeping its id and creation time.

At least one --check index or a --memo is required. Indices refer to the
point's example phrases as listed by 'recordbook taxonomy'.`,
		Example: `  recordbook records save --student 1 --category 세특 --sub 듣기말하기 --point 경청태도 --check 0 --check 2 --memo "질문을 잘함"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.CheckedExamples = taxonomy.NewSelection(checked...).Indices()
			in.Memo = strings.TrimSpace(in.Memo)
			if in.StudentID == "" {
				return fmt.Errorf("--student is required")
			}
			if len(in.CheckedExamples) == 0 && in.Memo == "" {
				return fmt.Errorf("nothing to save: tick an example with --check or write a --memo")
			}

			return withApp(cmd, open, func(ctx context.Context, app *App) error {
				if err := app.Tax.Validate(in.Category, in.SubCategory, in.Point); err != nil {
					return err
				}
				if err := app.Tax.ValidIndices(in.Category, in.SubCategory, in.Point, in.CheckedExamples); err != nil {
					return err
				}
				if err := app.Store.UpsertRecord(ctx, in); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved %s / %s / %s for student %s\n", in.Category, in.SubCategory, in.Point, in.StudentID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&in.StudentID, "student", "s", "", "Student id")
	cmd.Flags().StringVarP(&in.Category, "category", "c", "세특", "Category")
	cmd.Flags().StringVar(&in.SubCategory, "sub", "", "Subcategory")
	cmd.Flags().StringVarP(&in.Point, "point", "p", "", "Observation point")
	cmd.Flags().IntSliceVar(&checked, "check", nil, "Ticked example index (repeatable)")
	cmd.Flags().StringVarP(&in.Memo, "memo", "m", "", "Free-text memo")
	return cmd
}
