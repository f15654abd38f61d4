package cli

import (
	"github.com/spf13/cobra"
)

var throttleCmd = &cobra.Command{
	Use:   "throttle",
	Short: "Show the most recently observed API quota state",
	Long: `Show Jobber's cost-based quota state as reported by the last response.

Quota points restore continuously (typically 500/s up to a 10,000
ceiling). The state shown here is from the most recent request in this
process; run a query first to populate it.`,
	RunE: runThrottle,
}

func init() {
	rootCmd.AddCommand(throttleCmd)
}

func runThrottle(cmd *cobra.Command, _ []string) error {
	c, err := getClient(cmd.Context())
	if err != nil {
		return err
	}

	status := c.ThrottleStatus()
	if status == nil {
		cmd.Println("No quota state observed yet; run a query first.")
		return nil
	}

	cmd.Printf("Available:    %d / %d points (%.0f%%)\n",
		status.CurrentlyAvailable, status.MaximumAvailable, status.Ratio()*100)
	cmd.Printf("Restore rate: %d points/s\n", status.RestoreRate)
	return nil
}
