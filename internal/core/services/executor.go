package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/jobber-cli/internal/core/domain"
	"github.com/custodia-labs/jobber-cli/internal/core/ports/driven"
	"github.com/custodia-labs/jobber-cli/internal/logger"
)

const (
	// DefaultAPIURL is Jobber's GraphQL endpoint.
	DefaultAPIURL = "https://api.getjobber.com/api/graphql"

	// DefaultAPIVersion is sent in the version header on every request.
	DefaultAPIVersion = "2023-11-15"

	// DefaultTimeout is the HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultProactiveRate is the client-side request rate in req/s.
	// Jobber restores 500 quota points per second; typical queries cost
	// tens of points, so 10 req/s keeps steady workloads well under the
	// restore rate before the reactive threshold ever trips.
	DefaultProactiveRate = 10

	// HeaderAPIVersion is Jobber's GraphQL version header.
	HeaderAPIVersion = "X-JOBBER-GRAPHQL-VERSION"
)

// GraphQLExecutor sends authenticated queries to the Jobber GraphQL API
// and enforces quota admission control.
//
// Rate limiting is dual-strategy: a token bucket throttles request
// submission proactively, and the throttleStatus block parsed from each
// response raises a RateLimitError reactively when remaining quota
// drops below the threshold, so the next caller is not silently
// throttled by the provider.
type GraphQLExecutor struct {
	tokens     driven.TokenProvider
	httpClient *http.Client

	endpoint   string
	apiVersion string
	threshold  float64
	bucket     *rate.Limiter

	mu           sync.Mutex
	lastThrottle *domain.ThrottleStatus
}

// ExecutorOption configures a GraphQLExecutor.
type ExecutorOption func(*GraphQLExecutor)

// WithEndpoint overrides the GraphQL endpoint.
func WithEndpoint(endpoint string) ExecutorOption {
	return func(e *GraphQLExecutor) { e.endpoint = endpoint }
}

// WithAPIVersion overrides the GraphQL version header value.
func WithAPIVersion(version string) ExecutorOption {
	return func(e *GraphQLExecutor) { e.apiVersion = version }
}

// WithRateLimitThreshold sets the quota fraction below which requests
// raise a RateLimitError.
func WithRateLimitThreshold(threshold float64) ExecutorOption {
	return func(e *GraphQLExecutor) { e.threshold = threshold }
}

// WithProactiveRate sets the client-side request rate in req/s.
// Zero disables proactive throttling.
func WithProactiveRate(rps float64) ExecutorOption {
	return func(e *GraphQLExecutor) {
		if rps > 0 {
			e.bucket = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			e.bucket = nil
		}
	}
}

// WithExecutorHTTPClient sets the HTTP client used for GraphQL calls.
func WithExecutorHTTPClient(client *http.Client) ExecutorOption {
	return func(e *GraphQLExecutor) {
		if client != nil {
			e.httpClient = client
		}
	}
}

// NewGraphQLExecutor creates an executor that obtains tokens from the
// given provider.
func NewGraphQLExecutor(tokens driven.TokenProvider, opts ...ExecutorOption) *GraphQLExecutor {
	e := &GraphQLExecutor{
		tokens:     tokens,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		endpoint:   DefaultAPIURL,
		apiVersion: DefaultAPIVersion,
		threshold:  domain.DefaultRateLimitThreshold,
		bucket:     rate.NewLimiter(rate.Limit(DefaultProactiveRate), 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// graphqlResponse is the wire shape of a GraphQL response.
type graphqlResponse struct {
	Data       map[string]any              `json:"data"`
	Errors     []domain.GraphQLErrorDetail `json:"errors"`
	Extensions struct {
		Cost struct {
			ThrottleStatus *domain.ThrottleStatus `json:"throttleStatus"`
		} `json:"cost"`
	} `json:"extensions"`
}

// Execute sends the query and returns the data payload.
//
// An unauthorized response triggers one forced refresh and one retry;
// a second rejection surfaces as AuthenticationError. Nothing else is
// retried here.
func (e *GraphQLExecutor) Execute(
	ctx context.Context, query string, variables map[string]any, operationName string,
) (map[string]any, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	if e.bucket != nil {
		if err := e.bucket.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	token, err := e.tokens.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{"query": query}
	if len(variables) > 0 {
		payload["variables"] = variables
	}
	if operationName != "" {
		payload["operationName"] = operationName
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	requestID := uuid.NewString()
	logger.Debug("graphql request %s: operation=%q", requestID, operationName)

	status, raw, err := e.post(ctx, token, body)
	if err != nil {
		return nil, err
	}

	// Reactive refresh: exactly one retry with a freshly forced token.
	if status == http.StatusUnauthorized {
		logger.Debug("graphql request %s: unauthorized, forcing token refresh", requestID)

		token, err = e.tokens.RefreshOnUnauthorized(ctx)
		if err != nil {
			return nil, err
		}

		status, raw, err = e.post(ctx, token, body)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			return nil, &domain.AuthenticationError{
				Message: "access token rejected after refresh",
				Context: map[string]any{
					"status_code": status,
					"endpoint":    e.endpoint,
					"request_id":  requestID,
				},
			}
		}
	}

	if status != http.StatusOK {
		return nil, &domain.NetworkError{
			Message:  fmt.Sprintf("unexpected HTTP status %d", status),
			Endpoint: e.endpoint,
			Context: map[string]any{
				"status_code": status,
				"response":    string(raw),
				"request_id":  requestID,
			},
		}
	}

	var result graphqlResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &domain.NetworkError{
			Message:  "invalid JSON response",
			Endpoint: e.endpoint,
			Context:  map[string]any{"response": string(raw), "request_id": requestID},
			Err:      err,
		}
	}

	if err := e.checkThrottle(result.Extensions.Cost.ThrottleStatus, requestID); err != nil {
		return nil, err
	}

	if len(result.Errors) > 0 {
		return nil, &domain.GraphQLError{
			Message:   result.Errors[0].Message,
			Errors:    result.Errors,
			Query:     query,
			Variables: variables,
			Context:   map[string]any{"request_id": requestID},
		}
	}

	if result.Data == nil {
		return nil, &domain.GraphQLError{
			Message:   "response missing data field",
			Query:     query,
			Variables: variables,
			Context:   map[string]any{"response": string(raw), "request_id": requestID},
		}
	}

	return result.Data, nil
}

// ThrottleStatus returns the most recently observed quota state, or nil
// if no request has completed yet. Informational only: each response
// carries its own ground truth for admission control.
func (e *GraphQLExecutor) ThrottleStatus() *domain.ThrottleStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lastThrottle == nil {
		return nil
	}
	status := *e.lastThrottle
	return &status
}

// post sends one HTTP request and returns the status code and body.
// Transport failures become NetworkError.
func (e *GraphQLExecutor) post(ctx context.Context, token string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderAPIVersion, e.apiVersion)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		msg := "request failed"
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			msg = "request timeout"
		}
		return 0, nil, &domain.NetworkError{
			Message:  msg,
			Endpoint: e.endpoint,
			Err:      err,
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &domain.NetworkError{
			Message:  "reading response body",
			Endpoint: e.endpoint,
			Err:      err,
		}
	}
	return resp.StatusCode, raw, nil
}

// checkThrottle records the latest quota state and raises when the
// remaining ratio is below the threshold. A missing or malformed block
// is logged and skipped, never fatal.
func (e *GraphQLExecutor) checkThrottle(status *domain.ThrottleStatus, requestID string) error {
	if status == nil {
		logger.Debug("graphql request %s: no throttle status in response", requestID)
		return nil
	}

	e.mu.Lock()
	latest := *status
	e.lastThrottle = &latest
	e.mu.Unlock()

	if !status.Valid() {
		logger.Warn("graphql request %s: malformed throttle status %+v, skipping quota check",
			requestID, *status)
		return nil
	}

	if status.Ratio() < e.threshold {
		wait := status.WaitSeconds(e.threshold)
		return &domain.RateLimitError{
			Message: fmt.Sprintf("quota low: %d/%d points available",
				status.CurrentlyAvailable, status.MaximumAvailable),
			Throttle:    *status,
			WaitSeconds: wait,
			Context: map[string]any{
				"wait_seconds": wait,
				"threshold":    e.threshold,
				"request_id":   requestID,
			},
		}
	}
	return nil
}
