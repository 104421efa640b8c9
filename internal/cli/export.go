package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/khanglvm/recordbook/internal/export"
)

// Export formats.
const (
	formatXLSX  = "xlsx"
	formatJSON  = "json"
	formatJSONL = "jsonl"
)

// NewExportCmd creates the 'export' command.
func NewExportCmd(open Opener) *cobra.Command {
	var format string
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export students, records and drafts to a file",
		Long: `Write the whole store to a spreadsheet (one sheet per collection), a single
JSON document, or JSON lines (one {"kind","item"} object per line).

A lock file next to the output prevents two exports writing the same file.
The output is replaced only once the export has been fully written.`,
		Example: `  recordbook export
  recordbook export --format json --output records.json
  recordbook export -F jsonl -o - | jq .`,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case formatXLSX, formatJSON, formatJSONL:
			default:
				return fmt.Errorf("unknown format %q (want xlsx, json or jsonl)", format)
			}

			return withApp(cmd, open, func(ctx context.Context, app *App) error {
				if output == "-" {
					return writeExport(ctx, app, format, cmd.OutOrStdout())
				}

				path := output
				if path == "" {
					home, err := os.UserHomeDir()
					if err != nil {
						return fmt.Errorf("failed to get home directory: %w", err)
					}
					path = filepath.Join(home, "recordbook-export."+format)
				}

				err := export.WriteFile(path, func(w io.Writer) error {
					return writeExport(ctx, app, format, w)
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported to %s\n", path)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "F", formatXLSX, "Output format: xlsx, json or jsonl")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, or - for stdout (default: ~/recordbook-export.<format>)")
	return cmd
}

func writeExport(ctx context.Context, app *App, format string, w io.Writer) error {
	switch format {
	case formatXLSX:
		return export.WriteXLSX(ctx, app.Store, w)
	default:
		_, err := export.WriteJSON(ctx, app.Store, w, format == formatJSONL)
		return err
	}
}
