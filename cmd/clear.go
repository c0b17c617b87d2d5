package cmd

import (
	"fmt"
	"strings"

	"docsite/storage"

	"github.com/spf13/cobra"
)

var (
	clearForce bool
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the page index",
	Long:  "Deletes every recorded page from the search index. Generated HTML files are left alone.",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

func init() {
	clearCmd.Flags().BoolVarP(&clearForce, "force", "f", false, "Skip confirmation prompt")
}

func runClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if !clearForce {
		fmt.Print("Are you sure you want to clear the page index? (yes/no): ")
		var response string
		fmt.Scanln(&response)

		if strings.ToLower(response) != "yes" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	db := storage.NewSQLiteDB(cfg.IndexDB)
	if err := db.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize page index: %w", err)
	}
	defer db.Close()

	if err := db.ClearAll(cmd.Context()); err != nil {
		return err
	}

	fmt.Println("Page index cleared.")
	return nil
}
