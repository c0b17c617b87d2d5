package cmd

import (
	"fmt"
	"strings"

	"docsite/storage"

	"github.com/spf13/cobra"
)

var (
	searchLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the built pages by keyword",
	Long: `Finds pages whose title or text contains every word of the query.

Examples:
  docsite search "onboarding"
  docsite search release notes
  docsite search --limit 5 "deploy"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 20, "Maximum number of results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	query := strings.Join(args, " ")

	db := storage.NewSQLiteDB(cfg.IndexDB)
	if err := db.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize page index: %w", err)
	}
	defer db.Close()

	results, err := db.SearchPages(cmd.Context(), query, searchLimit)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Printf("No results found for \"%s\"\n", query)
		return nil
	}

	fmt.Printf("Found %d result(s):\n\n", len(results))
	for i, result := range results {
		fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
		fmt.Printf("[%d] %s\n", i+1, result.Page.Title)
		fmt.Printf("Page: %s\n", result.Page.FileName())
		if result.Page.WebViewLink != "" {
			fmt.Printf("Source: %s\n", result.Page.WebViewLink)
		}
		if !result.Page.ModifiedTime.IsZero() {
			fmt.Printf("Modified: %s\n", result.Page.ModifiedTime.Format("2006-01-02 15:04"))
		}
		fmt.Printf("\nSnippet:\n%s\n\n", result.Snippet)
	}
	return nil
}
