package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"lcscraper/pkg/auth"
	"lcscraper/pkg/config"
	"lcscraper/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage lcscraper configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (LCSCRAPER_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default values",
	Long: `Write a configuration file containing every option with its default value.

The file is created as 'lcscraper.yaml' in the current directory unless a
different path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging every source.

The database password is masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "lcscraper.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Adjust pacing and file locations in the configuration file")
	fmt.Println("2. Run 'lcscraper auth login' to store the database URL")
	fmt.Println("3. Run 'lcscraper config validate' to check the configuration")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	display := *cfg
	if display.Database.URL != "" {
		display.Database.URL = auth.MaskURL(display.Database.URL)
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (LCSCRAPER_*, DB_URL)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (searched in default locations)")
	}
	fmt.Println("4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	var warnings []string
	url, _ := resolveDatabaseURL(cfg, "", auth.NewManager(), auth.DefaultProfile)
	if url == "" {
		warnings = append(warnings, "no database URL configured, sync will not run")
	} else if err := auth.ValidateDatabaseURL(url); err != nil {
		warnings = append(warnings, err.Error())
	}
	if cfg.Scraper.RenderURL == "" {
		warnings = append(warnings, "no render_url set, pages are fetched without JavaScript rendering")
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Checkpoint file: %s\n", cfg.Scraper.CheckpointFile)
	fmt.Printf("  Records file: %s\n", cfg.Scraper.RecordsFile)
	fmt.Printf("  Item delay: %s, pause of %s every %d items\n",
		cfg.RateLimit.ItemDelay, cfg.RateLimit.PauseDelay, cfg.RateLimit.PauseEvery)
	fmt.Printf("  Failures tolerated in a row: %d\n", cfg.Retry.MaxConsecutiveFailures)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}
