package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"blog/app/config"
	"blog/app/database"
	"blog/app/search"
	"blog/app/server"

	"github.com/spf13/cobra"
)

var (
	assumeYes bool
	backupDir string
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the database",
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new empty database",
	Long: `Initialize a new empty database. With the postgres driver this creates
the schema in the configured database.`,
	Args: cobra.NoArgs,
	RunE: runDBInit,
}

var dbCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the database",
	Long:  `Remove the database and the on-disk search index, if any.`,
	Args:  cobra.NoArgs,
	RunE:  runDBClean,
}

var dbBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create a backup of the database",
	Args:  cobra.NoArgs,
	RunE:  runDBBackup,
}

var dbRestoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Restore the database from a backup",
	Args:  cobra.ExactArgs(1),
	RunE:  runDBRestore,
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbInitCmd, dbCleanCmd, dbBackupCmd, dbRestoreCmd)

	dbCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
	dbBackupCmd.Flags().StringVar(&backupDir, "dir", "data/backups", "directory to write the backup to")
}

// confirm asks a yes/no question on the command's input.
func confirm(cmd *cobra.Command, question string) bool {
	if assumeYes {
		return true
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)
	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func badgerOnly(cfg *config.Config, action string) error {
	if cfg.Storage.Driver != "badger" {
		return fmt.Errorf("%s is only supported for the badger driver; use the database's own tools for %s", action, cfg.Storage.Driver)
	}
	return nil
}

func runDBInit(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.Storage.Driver == "postgres" {
		store, _, err := server.OpenStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Database schema initialized successfully")
		return store.Close()
	}

	err = database.Init(cfg.Storage.Path)
	if errors.Is(err, database.ErrExists) {
		fmt.Fprintln(cmd.OutOrStdout(), "Database already exists. Use 'db clean' first if you want to reinitialize.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Database initialized successfully")
	return nil
}

func runDBClean(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := badgerOnly(cfg, "clean"); err != nil {
		return err
	}
	if !database.Exists(cfg.Storage.Path) {
		fmt.Fprintln(cmd.OutOrStdout(), "Database is already clean (does not exist)")
		return nil
	}
	if !confirm(cmd, "Are you sure you want to clean the database? This cannot be undone.") {
		fmt.Fprintln(cmd.OutOrStdout(), "Operation cancelled")
		return nil
	}
	if err := database.Clean(cfg.Storage.Path); err != nil {
		return err
	}
	if err := search.Reset(cfg.Search.Path); err != nil {
		return fmt.Errorf("failed to remove search index: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Database cleaned successfully")
	return nil
}

func runDBBackup(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := badgerOnly(cfg, "backup"); err != nil {
		return err
	}
	file, err := database.BackupToDir(cfg.Storage.Path, backupDir)
	if errors.Is(err, database.ErrNotExists) {
		fmt.Fprintln(cmd.OutOrStdout(), "No database exists to backup")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Database backed up successfully to %s\n", file)
	return nil
}

func runDBRestore(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := badgerOnly(cfg, "restore"); err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer f.Close()

	if database.Exists(cfg.Storage.Path) && !confirm(cmd, "Existing database found. Do you want to replace it?") {
		fmt.Fprintln(cmd.OutOrStdout(), "Operation cancelled")
		return nil
	}
	if err := database.Restore(cfg.Storage.Path, f); err != nil {
		return err
	}
	// The next start rebuilds the index from the restored posts.
	if err := search.Reset(cfg.Search.Path); err != nil {
		return fmt.Errorf("failed to remove search index: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Database restored successfully")
	return nil
}
