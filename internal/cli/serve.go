package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/khanglvm/recordbook/internal/api"
)

// NewServeCmd creates the 'serve' command running the HTTP API.
func NewServeCmd(open Opener) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the record store over HTTP for the browser front end.

Routes (JSON):
  GET  /api/students            roster (?q= filters by name or number)
  POST /api/students            add one student
  POST /api/students/bulk       add several students
  POST /api/students/upload     simulated roster upload (adds 5 placeholders)
  GET  /api/records             observation records (?category=)
  PUT  /api/records             save an observation
  GET  /api/generated           generated drafts, newest first
  POST /api/generate            compose drafts
  GET  /api/stats               collection counts
  GET  /api/taxonomy            categories, points and example phrases
  GET  /api/search              full-text search (?q=&kind=&category=&studentId=)

The server shuts down gracefully on SIGINT or SIGTERM.`,
		Example: `  recordbook serve
  recordbook serve --listen 0.0.0.0:9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withApp(cmd, open, func(_ context.Context, app *App) error {
				if err := app.Store.Bootstrap(ctx); err != nil {
					return err
				}

				addr := app.Config.Settings.ListenAddr
				if listen != "" {
					addr = listen
				}
				if app.Config.Settings.LogMode == "prod" {
					gin.SetMode(gin.ReleaseMode)
				}

				h := api.NewHandler(app.Store, app.Generator(), app.Tax, app.Log)
				defer h.Close()
				return api.NewServer(h, app.Log).Run(ctx, addr)
			})
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address (default: settings.listenAddr)")
	return cmd
}
