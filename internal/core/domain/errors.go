package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrManagerClosed indicates the token manager has been shut down.
	ErrManagerClosed = errors.New("token manager closed")

	// ErrSchemaNotCached indicates no schema is present in the cache.
	ErrSchemaNotCached = errors.New("schema not cached")
)

// ConfigurationError indicates required credential fields are missing or
// malformed at load time. Never retried; surfaced immediately.
type ConfigurationError struct {
	Message string
	Context map[string]any
	Err     error
}

func (e *ConfigurationError) Error() string {
	return formatWithContext("configuration error: "+e.Message, e.Context)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// AuthenticationError indicates the provider rejected our credentials,
// on initial load, refresh, or after the single reactive retry.
type AuthenticationError struct {
	Message string
	Context map[string]any
	Err     error
}

func (e *AuthenticationError) Error() string {
	return formatWithContext("authentication error: "+e.Message, e.Context)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// NetworkError indicates a transport-level failure (timeout, DNS,
// connection refused). Not retried by this layer; the caller decides.
type NetworkError struct {
	Message  string
	Endpoint string
	Context  map[string]any
	Err      error
}

func (e *NetworkError) Error() string {
	msg := "network error: " + e.Message
	if e.Endpoint != "" {
		msg += " (endpoint: " + e.Endpoint + ")"
	}
	return formatWithContext(msg, e.Context)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RateLimitError indicates the remaining quota dropped below the
// configured threshold. WaitSeconds tells the caller how long the
// provider needs to restore enough points.
type RateLimitError struct {
	Message     string
	Throttle    ThrottleStatus
	WaitSeconds float64
	Context     map[string]any
}

func (e *RateLimitError) Error() string {
	return formatWithContext(
		fmt.Sprintf("rate limit error: %s (wait %.1fs)", e.Message, e.WaitSeconds),
		e.Context,
	)
}

// GraphQLError indicates the provider accepted the request but reported
// query-level errors. Carries the raw error list and the original query
// so the failure can be reproduced without internal state.
type GraphQLError struct {
	Message   string
	Errors    []GraphQLErrorDetail
	Query     string
	Variables map[string]any
	Context   map[string]any
}

func (e *GraphQLError) Error() string {
	return formatWithContext("graphql error: "+e.Message, e.Context)
}

// GraphQLErrorDetail is a single error object from the response's
// "errors" list.
type GraphQLErrorDetail struct {
	Message    string           `json:"message"`
	Path       []any            `json:"path,omitempty"`
	Locations  []SourceLocation `json:"locations,omitempty"`
	Extensions map[string]any   `json:"extensions,omitempty"`
}

// SourceLocation points at a position within the query document.
type SourceLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// IsConfiguration checks if the error is a configuration failure.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsAuthentication checks if the error is an authentication failure.
func IsAuthentication(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}

// IsNetwork checks if the error is a transport failure.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var re *RateLimitError
	return errors.As(err, &re)
}

// IsGraphQL checks if the error carries provider-level query errors.
func IsGraphQL(err error) bool {
	var ge *GraphQLError
	return errors.As(err, &ge)
}

// formatWithContext appends the context map to the message in a
// deterministic key order.
func formatWithContext(msg string, ctx map[string]any) string {
	if len(ctx) == 0 {
		return msg
	}

	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, ctx[k]))
	}
	return msg + " [" + strings.Join(pairs, ", ") + "]"
}
