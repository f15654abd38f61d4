package doppler

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/custodia-labs/jobber-cli/internal/core/domain"
	"github.com/custodia-labs/jobber-cli/internal/core/ports/driven"
	"github.com/custodia-labs/jobber-cli/internal/logger"
)

// commandTimeout bounds a single doppler CLI invocation.
const commandTimeout = 10 * time.Second

// runner executes a command and returns its combined output. Injected
// so tests can fake the doppler CLI.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Ensure Store implements the interface.
var _ driven.SecretStore = (*Store)(nil)

// Store reads and writes secrets through the doppler CLI. The CLI holds
// the service token and workplace auth; this adapter only shells out.
type Store struct {
	project string
	config  string
	run     runner
}

// NewStore creates a doppler-backed secret store for the given project
// and config (e.g. "jobber", "prd").
func NewStore(project, config string) *Store {
	return &Store{
		project: project,
		config:  config,
		run:     runCommand,
	}
}

// runCommand is the default runner.
func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	return exec.CommandContext(ctx, name, args...).Output()
}

// Load fetches the named secrets in one CLI call.
func (s *Store) Load(ctx context.Context, keys ...string) (map[string]string, error) {
	if len(keys) == 0 {
		return map[string]string{}, nil
	}

	args := append([]string{"secrets", "get"}, keys...)
	args = append(args, "--json")
	args = append(args, s.scopeArgs()...)

	out, err := s.run(ctx, "doppler", args...)
	if err != nil {
		return nil, &domain.ConfigurationError{
			Message: "doppler secrets get failed",
			Context: map[string]any{
				"project": s.project,
				"config":  s.config,
				"keys":    strings.Join(keys, ","),
			},
			Err: err,
		}
	}

	// doppler --json output: {"KEY": {"computed": "value", ...}, ...}
	var parsed map[string]struct {
		Computed string `json:"computed"`
	}
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, &domain.ConfigurationError{
			Message: "doppler returned unparseable output",
			Context: map[string]any{"project": s.project, "config": s.config},
			Err:     err,
		}
	}

	values := make(map[string]string, len(keys))
	for _, key := range keys {
		values[key] = parsed[key].Computed
	}
	return values, nil
}

// Save writes the given secrets in one CLI call.
func (s *Store) Save(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	args := []string{"secrets", "set", "--silent"}
	args = append(args, s.scopeArgs()...)
	for key, value := range values {
		args = append(args, fmt.Sprintf("%s=%s", key, value))
	}

	if _, err := s.run(ctx, "doppler", args...); err != nil {
		return fmt.Errorf("doppler secrets set (project %s, config %s): %w",
			s.project, s.config, err)
	}

	logger.Debug("saved %d secrets to doppler project %s", len(values), s.project)
	return nil
}

// scopeArgs returns the --project/--config flags when configured,
// falling back to the doppler CLI's own directory-scoped setup.
func (s *Store) scopeArgs() []string {
	var args []string
	if s.project != "" {
		args = append(args, "--project", s.project)
	}
	if s.config != "" {
		args = append(args, "--config", s.config)
	}
	return args
}
