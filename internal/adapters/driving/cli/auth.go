package cli

import (
	"time"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Inspect and refresh the OAuth token pair",
	Long: `Inspect the current OAuth token pair and force a refresh.

Tokens are stored in Doppler and rotated automatically; these commands
are for diagnostics and for recovering from a revoked token.`,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current token state",
	RunE:  runAuthStatus,
}

var authRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Force a token refresh now",
	RunE:  runAuthRefresh,
}

func init() {
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authRefreshCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	c, err := getClient(cmd.Context())
	if err != nil {
		return err
	}

	pair, state := c.TokenManager().Current()

	cmd.Printf("State:      %s\n", state)
	cmd.Printf("Expires at: %s", pair.ExpiresAt.Format(time.RFC3339))
	if remaining := pair.ExpiresIn(time.Now()); remaining > 0 {
		cmd.Printf(" (in %s)", remaining.Round(time.Second))
	}
	cmd.Println()
	return nil
}

func runAuthRefresh(cmd *cobra.Command, _ []string) error {
	c, err := getClient(cmd.Context())
	if err != nil {
		return err
	}

	if _, err := c.TokenManager().ForceRefresh(cmd.Context()); err != nil {
		return err
	}

	pair, _ := c.TokenManager().Current()
	cmd.Printf("Token refreshed; expires at %s.\n", pair.ExpiresAt.Format(time.RFC3339))
	return nil
}
