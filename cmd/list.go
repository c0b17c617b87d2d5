package cmd

import (
	"fmt"

	"docsite/storage"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the pages of the last build",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db := storage.NewSQLiteDB(cfg.IndexDB)
	if err := db.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize page index: %w", err)
	}
	defer db.Close()

	pages, err := db.ListPages(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Total pages in index: %d\n\n", len(pages))
	for i, p := range pages {
		fmt.Printf("%d. %s -> %s\n", i+1, p.Title, p.FileName())
	}
	return nil
}
