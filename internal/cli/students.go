package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khanglvm/recordbook/internal/store"
)

// NewStudentsCmd groups the roster commands.
func NewStudentsCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "students",
		Aliases: []string{"student"},
		Short:   "Manage the class roster",
	}
	cmd.AddCommand(newStudentsListCmd(open))
	cmd.AddCommand(newStudentsAddCmd(open))
	cmd.AddCommand(newStudentsAddBulkCmd(open))
	cmd.AddCommand(newStudentsImportCmd(open))
	return cmd
}

func newStudentsListCmd(open Opener) *cobra.Command {
	var query string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List students sorted by number",
		Example: `  recordbook students list
  recordbook students list --query 민준
  recordbook students ls --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, app *App) error {
				students, err := app.Store.ListStudents(ctx)
				if err != nil {
					return err
				}
				if query != "" {
					students = store.MatchStudents(students, query)
				}

				out := cmd.OutOrStdout()
				if jsonOutput {
					return printJSON(out, students)
				}
				if len(students) == 0 {
					fmt.Fprintln(out, "No students found.")
					return nil
				}
				fmt.Fprintf(out, "Students (%d):\n\n", len(students))
				for _, s := range students {
					fmt.Fprintf(out, "  %3d  %-6s %s  (id: %s)\n", s.Number, s.ClassID, s.Name, s.ID)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Filter by name or number substring")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	return cmd
}

func newStudentsAddCmd(open Opener) *cobra.Command {
	var in store.StudentInput

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add one student",
		Example: `  recordbook students add --class 1-1 --number 6 --name 오세린`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = strings.TrimSpace(in.Name)
			if in.Name == "" {
				return fmt.Errorf("--name is required")
			}
			return withApp(cmd, open, func(ctx context.Context, app *App) error {
				added, err := app.Store.AddStudent(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %s (id: %s)\n", colorGreen(added.Name), added.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&in.ClassID, "class", "c", "", "Class identifier (e.g. 1-1)")
	cmd.Flags().IntVarP(&in.Number, "number", "n", 0, "Student number within the class")
	cmd.Flags().StringVar(&in.Name, "name", "", "Student name")
	return cmd
}

func newStudentsAddBulkCmd(open Opener) *cobra.Command {
	var jsonInput string
	var file string

	cmd := &cobra.Command{
		Use:   "add-bulk",
		Short: "Add several students in one write",
		Long: `Add a JSON array of students ({"classId","number","name"}) in a single write.
Every added student gets a distinct id.`,
		Example: `  recordbook students add-bulk --json '[{"classId":"1-2","number":1,"name":"가"}]'
  recordbook students add-bulk --file roster.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data := []byte(jsonInput)
			if file != "" {
				var err error
				if data, err = os.ReadFile(file); err != nil {
					return fmt.Errorf("failed to read %s: %w", file, err)
				}
			}
			if len(data) == 0 {
				return fmt.Errorf("provide --json or --file")
			}

			var inputs []store.StudentInput
			if err := json.Unmarshal(data, &inputs); err != nil {
				return fmt.Errorf("invalid student JSON: %w", err)
			}
			for i, in := range inputs {
				if strings.TrimSpace(in.Name) == "" {
					return fmt.Errorf("student %d: empty name", i)
				}
			}

			return withApp(cmd, open, func(ctx context.Context, app *App) error {
				students, err := app.Store.AddStudentsBulk(ctx, inputs)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %d student(s); roster now has %d\n", len(inputs), len(students))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&jsonInput, "json", "j", "", "Students as a JSON array")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the JSON array from a file")
	return cmd
}

func newStudentsImportCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Simulate a roster upload",
		Long: `Add five placeholder students (새학생1..5, class 1-1) numbered after the
current roster, as a roster upload would.`,
		Example: `  recordbook students import`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, app *App) error {
				students, added, err := app.Store.AddPlaceholders(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d student(s); roster now has %d\n", added, len(students))
				return nil
			})
		},
	}
	return cmd
}
