package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewResetCmd creates the 'reset' command.
func NewResetCmd(open Opener) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all students, records and drafts",
		Long: `Remove the three storage slots. The next command re-seeds the default
roster and starts with empty record collections.`,
		Example: `  recordbook reset --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !yes {
				fmt.Fprint(out, "Delete all stored data? [y/N]: ")
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				answer = strings.ToLower(strings.TrimSpace(answer))
				if answer != "y" && answer != "yes" {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}

			return withApp(cmd, open, func(ctx context.Context, app *App) error {
				if err := app.Store.Reset(ctx); err != nil {
					return err
				}
				fmt.Fprintln(out, "✓ Store reset")
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
