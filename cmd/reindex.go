package cmd

import (
	"fmt"

	"blog/app/search"
	"blog/app/server"
	"blog/app/services"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the search index from the store",
	Long: `Rebuild the on-disk search index (search.path) from every stored post.

serve reuses an existing on-disk index and only builds one when it is
missing. Every write through blog keeps it current, and 'db clean' and
'db restore' remove it, so reindex is needed only after the store was
changed by other means. The postgres driver searches the database
directly and needs no index.`,
	Args: cobra.NoArgs,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, index, err := server.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	if index != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "The %s driver needs no search index\n", cfg.Storage.Driver)
		return nil
	}

	if err := search.Reset(cfg.Search.Path); err != nil {
		return err
	}
	idx, err := search.Open(cfg.Search.Path)
	if err != nil {
		return err
	}
	defer idx.Close()

	posts := services.NewPostService(store, idx, services.WithLocation(cfg.Location()), services.WithLogger(logger))
	n, err := posts.Reindex(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d published posts\n", n)
	return nil
}
