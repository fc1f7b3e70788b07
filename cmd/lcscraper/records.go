package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lcscraper/pkg/storage"
	"lcscraper/pkg/ui"
)

// recordsCmd represents the records command
var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect records written by scrape",
}

var recordsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every stored record in index order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(map[string]interface{}{"records": recordsPath})
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		store := storage.NewRecordStore(cfg.Scraper.RecordsFile, nil)
		ui.PrintInfo("Records", store.Path())
		return store.Print(os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(recordsCmd)
	recordsCmd.AddCommand(recordsShowCmd)

	recordsShowCmd.Flags().StringVar(&recordsPath, "records", "", "records file (default lc_problems.json)")
}
