package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/jobber-cli/internal/core/domain"
)

var queryCmd = &cobra.Command{
	Use:   "query <graphql>",
	Short: "Execute a GraphQL query or mutation",
	Long: `Execute a GraphQL query or mutation against the Jobber API.

The access token is refreshed automatically when needed. Responses that
leave the API quota below the configured threshold fail with the wait
time Jobber needs to restore enough points.

Examples:
  jobber query 'query { clients(first: 5) { nodes { name } } }'

  # With variables
  jobber query 'query($first: Int!) { clients(first: $first) { nodes { name } } }' \
    --variables '{"first": 5}'`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

var (
	queryVariables string
	queryOperation string
)

func init() {
	queryCmd.Flags().StringVar(&queryVariables, "variables", "",
		"Query variables as a JSON object")
	queryCmd.Flags().StringVar(&queryOperation, "operation-name", "",
		"Operation name when the document has several")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	var variables map[string]any
	if queryVariables != "" {
		if err := json.Unmarshal([]byte(queryVariables), &variables); err != nil {
			return fmt.Errorf("parsing --variables: %w", err)
		}
	}

	c, err := getClient(cmd.Context())
	if err != nil {
		return err
	}

	data, err := c.Execute(cmd.Context(), args[0], variables, queryOperation)
	if err != nil {
		var rle *domain.RateLimitError
		if errors.As(err, &rle) {
			return fmt.Errorf("%w\nretry after %.1fs", err, rle.WaitSeconds)
		}
		return err
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}
	cmd.Println(string(out))
	return nil
}
