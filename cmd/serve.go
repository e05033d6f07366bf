package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"blog/app/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the web server",
	Long: `Start the blog web server. The search index is rebuilt from the store
on startup. The server stops gracefully on SIGINT or SIGTERM.

Examples:
  blog serve
  blog serve --addr :9000
  BLOG_STORAGE_DRIVER=postgres BLOG_STORAGE_DSN=postgres://... blog serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := server.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Serve(ctx)
}
