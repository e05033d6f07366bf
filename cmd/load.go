package cmd

import (
	"fmt"

	"blog/app/fixtures"
	"blog/app/server"

	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load <file.yaml>...",
	Short: "Import posts, tags and comments from YAML fixtures",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	app, err := server.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	for _, path := range args {
		f, err := fixtures.ParseFile(path)
		if err != nil {
			return err
		}
		res, err := f.Apply(cmd.Context(), app.Posts, app.Comments)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d posts and %d comments from %s\n", res.Posts, res.Comments, path)
	}
	return nil
}
