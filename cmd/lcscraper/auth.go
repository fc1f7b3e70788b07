package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"lcscraper/pkg/auth"
	"lcscraper/pkg/config"
	"lcscraper/pkg/logger"
	"lcscraper/pkg/storage/postgres"
	"lcscraper/pkg/ui"
)

var skipTest bool

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the database connection URL",
	Long: `Manage the PostgreSQL connection URL used by sync.

The URL is stored in the system keychain when one is available.
LCSCRAPER_DB_URL and DB_URL override the stored value.`,
}

var loginCmd = &cobra.Command{
	Use:   "login [profile]",
	Short: "Store a database URL in the system keychain",
	Example: `  # Prompt for the URL of the default profile
  lcscraper auth login

  # Store a second database under its own profile
  lcscraper auth login staging`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [profile]",
	Short: "Remove a stored database URL",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

var statusCmd = &cobra.Command{
	Use:   "status [profile]",
	Short: "Show where the database URL comes from",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)

	loginCmd.Flags().BoolVar(&skipTest, "skip-test", false, "store the URL without connecting to the database first")
}

func profileArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return auth.DefaultProfile
}

func runLogin(cmd *cobra.Command, args []string) error {
	profile := profileArg(args)
	auth.ShowDatabaseURLGuide(os.Stdout)

	fmt.Printf("\nDatabase URL for profile %q: ", profile)
	url, err := readSecret()
	if err != nil {
		return fmt.Errorf("failed to read database URL: %w", err)
	}
	if err := auth.ValidateDatabaseURL(url); err != nil {
		return err
	}

	if !skipTest {
		ui.PrintInfo("Testing connection", auth.MaskURL(url))
		if err := testConnection(url); err != nil {
			return fmt.Errorf("connection test failed: %w", err)
		}
	}

	if err := auth.NewManager().Store(&auth.Credential{Profile: profile, DatabaseURL: url}); err != nil {
		return err
	}
	ui.PrintSuccess("Database URL stored for profile " + profile)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	profile := profileArg(args)
	if err := auth.NewManager().Delete(profile); err != nil {
		return err
	}
	ui.PrintSuccess("Database URL removed for profile " + profile)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	profile := profileArg(args)
	manager := auth.NewManager()

	ui.PrintInfo("Credential stores", strings.Join(manager.Stores(), ", "))
	cred, err := manager.Retrieve(profile)
	if err != nil {
		ui.PrintWarning("No database URL stored for profile " + profile)
		return nil
	}
	ui.PrintInfo("Profile", cred.Profile)
	ui.PrintInfo("Source", cred.Source)
	ui.PrintInfo("Database", auth.MaskURL(cred.DatabaseURL))
	if !cred.LastModified.IsZero() && cred.Source != "environment" {
		ui.PrintInfo("Stored", cred.LastModified.Format(time.RFC3339))
	}
	return nil
}

func testConnection(url string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	store, err := postgres.Connect(ctx, config.DatabaseConfig{URL: url, ConnectTimeout: 10 * time.Second}, logger.NewNopLogger())
	if err != nil {
		return err
	}
	return store.Close(ctx)
}

// readSecret reads a line from stdin without echoing it on a terminal
func readSecret() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
