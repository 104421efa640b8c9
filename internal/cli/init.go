package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khanglvm/recordbook/internal/config"
)

// NewInitCmd creates the 'init' command: write a default config and seed the store.
func NewInitCmd(configPath *string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the config file and seed the record store",
		Long: `Write a default configuration to ~/.recordbook.json (or --config) unless one
exists, then install the seed roster and empty record collections into every
storage slot that is still absent. Existing data is never overwritten.`,
		Example: `  recordbook init
  recordbook init --config ./recordbook.json --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			path := *configPath
			if path == "" {
				var err error
				if path, err = config.GetDefaultConfigPath(); err != nil {
					return err
				}
			}

			_, err := config.LoadFrom(path)
			var notFound *config.ConfigNotFoundError
			switch {
			case errors.As(err, &notFound) || force:
				if err := config.Save(config.NewConfig(), path); err != nil {
					return fmt.Errorf("failed to save config: %w", err)
				}
				fmt.Fprintf(out, "✓ Wrote config to %s\n", path)
			case err != nil:
				return err
			default:
				fmt.Fprintf(out, "Config already exists at %s\n", path)
			}

			app, err := OpenApp(cmd.Context(), path)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Store.Bootstrap(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Storage ready (%s)\n", app.Config.Storage.Backend)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config with defaults")
	return cmd
}
