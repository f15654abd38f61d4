package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/jobber-cli/internal/core/domain"
)

// mockGraphQLService is a mock implementation of driving.GraphQLService.
type mockGraphQLService struct {
	data     map[string]any
	err      error
	throttle *domain.ThrottleStatus

	lastQuery     string
	lastVariables map[string]any
}

func (m *mockGraphQLService) Execute(
	_ context.Context, query string, variables map[string]any, _ string,
) (map[string]any, error) {
	m.lastQuery = query
	m.lastVariables = variables
	return m.data, m.err
}

func (m *mockGraphQLService) ThrottleStatus() *domain.ThrottleStatus {
	return m.throttle
}

// mockIntrospectionService is a mock implementation of driving.IntrospectionService.
type mockIntrospectionService struct {
	schema map[string]any
	fields map[string]string
	diff   domain.SchemaDiff
	err    error
}

func (m *mockIntrospectionService) Schema(_ context.Context, _ bool) (map[string]any, error) {
	return m.schema, m.err
}

func (m *mockIntrospectionService) FieldDescriptions(
	_ context.Context, _ string,
) (map[string]string, error) {
	return m.fields, m.err
}

func (m *mockIntrospectionService) Diff(_ context.Context) (domain.SchemaDiff, error) {
	return m.diff, m.err
}

func (m *mockIntrospectionService) ClearCache(_ context.Context) (bool, error) {
	return false, m.err
}

// mockPhotoService is a mock implementation of driving.PhotoService.
type mockPhotoService struct {
	url  string
	data map[string]any
	err  error

	lastVisitID string
	lastURLs    []string
}

func (m *mockPhotoService) PresignUpload(
	_ context.Context, _ string, _ time.Duration,
) (string, error) {
	return m.url, m.err
}

func (m *mockPhotoService) AttachToVisit(
	_ context.Context, visitID string, photoURLs []string, _ string,
) (map[string]any, error) {
	m.lastVisitID = visitID
	m.lastURLs = photoURLs
	return m.data, m.err
}
