package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/jobber-cli/internal/core/domain"
)

// fakeGraphQL records Execute calls and returns canned responses.
type fakeGraphQL struct {
	lastQuery     string
	lastVariables map[string]any
	data          map[string]any
	err           error
	calls         int
}

func (f *fakeGraphQL) Execute(
	_ context.Context, query string, variables map[string]any, _ string,
) (map[string]any, error) {
	f.calls++
	f.lastQuery = query
	f.lastVariables = variables
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func (f *fakeGraphQL) ThrottleStatus() *domain.ThrottleStatus { return nil }

// fakePresigner returns a fixed URL.
type fakePresigner struct {
	url     string
	err     error
	lastKey string
	lastTTL time.Duration
}

func (f *fakePresigner) PresignUpload(
	_ context.Context, key string, expiresIn time.Duration,
) (string, error) {
	f.lastKey = key
	f.lastTTL = expiresIn
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func TestPresignUpload(t *testing.T) {
	presigner := &fakePresigner{url: "https://bucket.s3.amazonaws.com/site.jpg?X-Amz-Signature=abc"}
	svc := NewPhotoService(presigner, &fakeGraphQL{})

	url, err := svc.PresignUpload(context.Background(), "visits/V-1/site.jpg", 30*time.Minute)

	require.NoError(t, err)
	assert.Equal(t, presigner.url, url)
	assert.Equal(t, "visits/V-1/site.jpg", presigner.lastKey)
	assert.Equal(t, 30*time.Minute, presigner.lastTTL)
}

func TestPresignUpload_DefaultsExpiry(t *testing.T) {
	presigner := &fakePresigner{url: "https://example.test/u"}
	svc := NewPhotoService(presigner, &fakeGraphQL{})

	_, err := svc.PresignUpload(context.Background(), "key.jpg", 0)

	require.NoError(t, err)
	assert.Equal(t, DefaultPresignExpiry, presigner.lastTTL)
}

func TestPresignUpload_NoPresigner(t *testing.T) {
	svc := NewPhotoService(nil, &fakeGraphQL{})

	_, err := svc.PresignUpload(context.Background(), "key.jpg", time.Hour)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPresignUpload_EmptyKey(t *testing.T) {
	svc := NewPhotoService(&fakePresigner{}, &fakeGraphQL{})

	_, err := svc.PresignUpload(context.Background(), "", time.Hour)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAttachToVisit(t *testing.T) {
	graphql := &fakeGraphQL{data: map[string]any{
		"noteCreate": map[string]any{"note": map[string]any{"id": "N-1"}},
	}}
	svc := NewPhotoService(&fakePresigner{}, graphql)

	urls := []string{
		"https://bucket.s3.amazonaws.com/before.jpg",
		"https://bucket.s3.amazonaws.com/after.jpg",
	}
	data, err := svc.AttachToVisit(context.Background(), "V-7", urls, "Site photos")

	require.NoError(t, err)
	assert.Contains(t, data, "noteCreate")
	assert.Equal(t, 1, graphql.calls)
	assert.Contains(t, graphql.lastQuery, "noteCreate")
	assert.Equal(t, "V-7", graphql.lastVariables["visitId"])

	content, _ := graphql.lastVariables["content"].(string)
	assert.Contains(t, content, "## Site photos")
	assert.Contains(t, content, "[Photo 1: before.jpg](https://bucket.s3.amazonaws.com/before.jpg)")
	assert.Contains(t, content, "[Photo 2: after.jpg](https://bucket.s3.amazonaws.com/after.jpg)")
}

func TestAttachToVisit_DefaultTitle(t *testing.T) {
	graphql := &fakeGraphQL{data: map[string]any{"noteCreate": map[string]any{}}}
	svc := NewPhotoService(nil, graphql)

	_, err := svc.AttachToVisit(context.Background(), "V-7", []string{"https://x.test/a.jpg"}, "")

	require.NoError(t, err)
	content, _ := graphql.lastVariables["content"].(string)
	assert.Contains(t, content, "## Photos")
}

func TestAttachToVisit_Validation(t *testing.T) {
	svc := NewPhotoService(nil, &fakeGraphQL{})

	_, err := svc.AttachToVisit(context.Background(), "", []string{"https://x.test/a.jpg"}, "t")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.AttachToVisit(context.Background(), "V-1", nil, "t")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAttachToVisit_GraphQLErrorPropagates(t *testing.T) {
	graphql := &fakeGraphQL{err: &domain.GraphQLError{Message: "visit not found"}}
	svc := NewPhotoService(nil, graphql)

	_, err := svc.AttachToVisit(context.Background(), "V-404", []string{"https://x.test/a.jpg"}, "t")

	require.Error(t, err)
	assert.True(t, domain.IsGraphQL(err))
}
