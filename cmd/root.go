// Package cmd provides the blog command-line interface.
//
// Configuration is read, from highest to lowest priority, from command
// flags, BLOG_<SECTION>_<KEY> environment variables (BLOG_SERVER_ADDR,
// BLOG_STORAGE_DRIVER, ...) and a YAML file named by --config,
// BLOG_CONFIG_FILE or blog.yaml in the working directory.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"blog/app/config"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "blog",
	Short: "A blog with tags, comments, search and sharing",
	Long: `blog serves a blog: paginated post listings filtered by tag, post pages
with comments and similar posts, full-text search, share-by-email and an
XML sitemap.

Quick Start:
  blog db init                 Create an empty database
  blog load posts.yaml         Import posts from a fixture file
  blog serve                   Start the web server`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is blog.yaml, can also use BLOG_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "log level (debug, info, warn, error)")
}

// loadConfig reads the configuration, applying any flags of cmd that
// override config keys, and builds the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	v, err := config.New(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if f := cmd.Flags().Lookup("addr"); f != nil {
		if err := v.BindPFlag("server.addr", f); err != nil {
			return nil, nil, err
		}
	}
	if logLevel != "" {
		v.Set("log.level", logLevel)
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}
	if path := v.ConfigFileUsed(); path != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "Using config file:", path)
	}
	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
