/*
Package cli implements the recordbook commands.

Every command loads the configuration (--config, or ~/.recordbook.json, with
environment overrides), opens the configured storage backend and runs one
store operation. User-facing output goes to the command's stdout; diagnostics
go through the logger on stderr.
*/
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/khanglvm/recordbook/internal/config"
	"github.com/khanglvm/recordbook/internal/generate"
	"github.com/khanglvm/recordbook/internal/logger"
	"github.com/khanglvm/recordbook/internal/storage"
	"github.com/khanglvm/recordbook/internal/store"
	"github.com/khanglvm/recordbook/internal/taxonomy"
	"github.com/khanglvm/recordbook/internal/version"
)

// NewRootCmd builds the recordbook command tree.
func NewRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "recordbook",
		Short: "Local student observation records and evaluation drafts",
		Long: `recordbook keeps a class roster, categorized observation records and a log of
generated evaluation sentences in a local store (SQLite by default).

Records are classified by category (세특, 행특, 자율, 진로), subcategory and
observation point; each record may tick example phrases and carry a memo.
Evaluation drafts are composed from those records per student.`,
		Version:       version.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.recordbook.json)")

	opener := func(ctx context.Context) (*App, error) {
		return OpenApp(ctx, configPath)
	}

	rootCmd.AddCommand(NewInitCmd(&configPath))
	rootCmd.AddCommand(NewStudentsCmd(opener))
	rootCmd.AddCommand(NewRecordsCmd(opener))
	rootCmd.AddCommand(NewGenerateCmd(opener))
	rootCmd.AddCommand(NewGeneratedCmd(opener))
	rootCmd.AddCommand(NewStatsCmd(opener))
	rootCmd.AddCommand(NewTaxonomyCmd())
	rootCmd.AddCommand(NewSearchCmd(opener))
	rootCmd.AddCommand(NewExportCmd(opener))
	rootCmd.AddCommand(NewServeCmd(opener))
	rootCmd.AddCommand(NewResetCmd(opener))
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// Opener opens the application for one command run.
type Opener func(ctx context.Context) (*App, error)

// App bundles what commands need.
type App struct {
	Config *config.Config
	Log    *logger.Logger
	KV     storage.KV
	Store  *store.Store
	Tax    *taxonomy.Taxonomy
}

// OpenApp loads configuration and opens the storage backend.
func OpenApp(ctx context.Context, configPath string) (*App, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Settings.LogMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	tax, err := taxonomy.Default()
	if err != nil {
		return nil, err
	}

	ids, err := store.NewIDGenerator(cfg.Settings.IDScheme, nil)
	if err != nil {
		return nil, err
	}

	kv, err := storage.Open(ctx, cfg.StorageOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}

	opts := []store.Option{store.WithIDs(ids), store.WithLogger(log)}
	if seed := cfg.Seed(); seed != nil {
		opts = append(opts, store.WithSeed(seed))
	}

	return &App{
		Config: cfg,
		Log:    log,
		KV:     kv,
		Store:  store.New(kv, opts...),
		Tax:    tax,
	}, nil
}

// Generator builds a generator paced as configured.
func (a *App) Generator() *generate.Generator {
	return generate.New(a.Store, a.Tax, generate.WithPace(a.Config.Pace()), generate.WithLogger(a.Log))
}

// Close releases the storage backend.
func (a *App) Close() error {
	a.Log.Sync()
	return a.KV.Close()
}

// withApp opens the app around fn.
func withApp(cmd *cobra.Command, open Opener, fn func(ctx context.Context, app *App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := open(ctx)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// colorGreen returns text with green ANSI color.
func colorGreen(s string) string {
	return "\033[32m" + s + "\033[0m"
}
