// Package cli implements the jobber command-line interface.
package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/jobber-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/jobber-cli/internal/adapters/driven/s3"
	"github.com/custodia-labs/jobber-cli/internal/adapters/driven/secrets/doppler"
	"github.com/custodia-labs/jobber-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/jobber-cli/internal/core/ports/driven"
	"github.com/custodia-labs/jobber-cli/internal/core/services"
	"github.com/custodia-labs/jobber-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Persistent flags.
var (
	verbose   bool
	configDir string
)

// Shared services, built lazily: only commands that talk to the API pay
// the doppler startup cost.
var (
	configStore driven.ConfigStore

	clientOnce sync.Once
	client     *services.Client
	clientErr  error
)

var rootCmd = &cobra.Command{
	Use:   "jobber",
	Short: "Jobber GraphQL API client with managed credentials",
	Long: `jobber talks to the Jobber GraphQL API with managed OAuth credentials.

Tokens live in Doppler and are refreshed automatically: proactively
before expiry, and reactively when the API rejects one. Every request
respects Jobber's cost-based rate limits.

Examples:
  # Run a query
  jobber query 'query { clients(first: 5) { nodes { name } } }'

  # Inspect the schema
  jobber schema fields Client

  # Check remaining API quota
  jobber throttle

  # Serve the API to AI assistants over MCP
  jobber mcp serve`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)

		store, err := file.NewConfigStore(configDir)
		if err != nil {
			return fmt.Errorf("opening config: %w", err)
		}
		configStore = store
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose logging to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "",
		"Config directory (default ~/.jobber)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// getClient builds (once) the secret store, token manager, and executor
// from config. Commands that need the API call this; everything else
// stays off the network.
func getClient(ctx context.Context) (*services.Client, error) {
	clientOnce.Do(func() {
		secrets := doppler.NewStore(
			configStore.GetString("doppler.project"),
			configStore.GetString("doppler.config"),
		)

		var managerOpts []services.TokenManagerOption
		if u := configStore.GetString("auth.token_url"); u != "" {
			managerOpts = append(managerOpts, services.WithTokenURL(u))
		}
		if secs := configStore.GetInt("auth.refresh_buffer_seconds"); secs > 0 {
			managerOpts = append(managerOpts,
				services.WithRefreshBuffer(time.Duration(secs)*time.Second))
		}

		var executorOpts []services.ExecutorOption
		if u := configStore.GetString("api.url"); u != "" {
			executorOpts = append(executorOpts, services.WithEndpoint(u))
		}
		if v := configStore.GetString("api.version"); v != "" {
			executorOpts = append(executorOpts, services.WithAPIVersion(v))
		}
		if threshold := configStore.GetFloat("api.rate_limit_threshold"); threshold > 0 {
			executorOpts = append(executorOpts, services.WithRateLimitThreshold(threshold))
		}

		client, clientErr = services.NewClient(ctx, secrets, managerOpts, executorOpts)
	})
	return client, clientErr
}

// getIntrospector wires the sqlite schema cache under the config dir.
func getIntrospector(ctx context.Context) (*services.Introspector, error) {
	c, err := getClient(ctx)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.NewStore(dataDir())
	if err != nil {
		return nil, fmt.Errorf("opening schema cache: %w", err)
	}
	return services.NewIntrospector(c, store), nil
}

// getPhotoService wires the S3 presigner from config. The presigner is
// optional; attach-only use works without S3 credentials.
func getPhotoService(ctx context.Context) (*services.PhotoService, error) {
	c, err := getClient(ctx)
	if err != nil {
		return nil, err
	}

	var presigner driven.UploadPresigner
	if bucket := configStore.GetString("s3.bucket"); bucket != "" {
		presigner, err = s3.NewPresigner(ctx, bucket, configStore.GetString("s3.region"))
		if err != nil {
			return nil, err
		}
	}
	return services.NewPhotoService(presigner, c), nil
}

// dataDir derives the cache location from --config-dir so tests and
// parallel setups stay isolated.
func dataDir() string {
	if configDir == "" {
		return "" // sqlite store falls back to ~/.jobber/data
	}
	return filepath.Join(configDir, "data")
}
