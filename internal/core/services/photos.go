package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/jobber-cli/internal/core/domain"
	"github.com/custodia-labs/jobber-cli/internal/core/ports/driven"
	"github.com/custodia-labs/jobber-cli/internal/core/ports/driving"
)

// DefaultPresignExpiry is how long a presigned upload URL stays valid.
const DefaultPresignExpiry = time.Hour

// noteCreateMutation attaches a note to a visit. The note body carries
// markdown links to the uploaded photos.
const noteCreateMutation = `
	mutation($visitId: ID!, $content: String!) {
		noteCreate(input: {
			subject: { id: $visitId }
			body: $content
		}) {
			note {
				id
				body
				createdAt
			}
		}
	}
`

// Ensure PhotoService implements the driving interface.
var _ driving.PhotoService = (*PhotoService)(nil)

// PhotoService generates presigned upload URLs and attaches uploaded
// photos to Jobber visits via notes.
type PhotoService struct {
	presigner driven.UploadPresigner
	graphql   driving.GraphQLService
}

// NewPhotoService creates a photo service. The presigner may be nil, in
// which case PresignUpload fails with ErrInvalidInput.
func NewPhotoService(presigner driven.UploadPresigner, graphql driving.GraphQLService) *PhotoService {
	return &PhotoService{presigner: presigner, graphql: graphql}
}

// PresignUpload returns a presigned PUT URL for the given object key.
func (s *PhotoService) PresignUpload(
	ctx context.Context, key string, expiresIn time.Duration,
) (string, error) {
	if s.presigner == nil {
		return "", fmt.Errorf("%w: no upload presigner configured", domain.ErrInvalidInput)
	}
	if key == "" {
		return "", fmt.Errorf("%w: empty object key", domain.ErrInvalidInput)
	}
	if expiresIn <= 0 {
		expiresIn = DefaultPresignExpiry
	}
	return s.presigner.PresignUpload(ctx, key, expiresIn)
}

// AttachToVisit creates a note on the visit with markdown links to the
// photos. Photos must already be uploaded.
func (s *PhotoService) AttachToVisit(
	ctx context.Context, visitID string, photoURLs []string, title string,
) (map[string]any, error) {
	if visitID == "" {
		return nil, fmt.Errorf("%w: empty visit ID", domain.ErrInvalidInput)
	}
	if len(photoURLs) == 0 {
		return nil, fmt.Errorf("%w: no photo URLs", domain.ErrInvalidInput)
	}
	if title == "" {
		title = "Photos"
	}

	variables := map[string]any{
		"visitId": visitID,
		"content": FormatPhotoMarkdown(photoURLs, title),
	}

	data, err := s.graphql.Execute(ctx, noteCreateMutation, variables, "")
	if err != nil {
		return nil, fmt.Errorf("attach photos to visit %s: %w", visitID, err)
	}
	return data, nil
}

// FormatPhotoMarkdown renders photo URLs as a markdown note body with
// one numbered link per photo.
func FormatPhotoMarkdown(photoURLs []string, title string) string {
	var b strings.Builder
	b.WriteString("## " + title + "\n\n")

	for i, url := range photoURLs {
		// Link text is the filename portion of the URL.
		filename := url
		if idx := strings.LastIndex(url, "/"); idx >= 0 {
			filename = url[idx+1:]
		}
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[Photo %d: %s](%s)", i+1, filename, url)
	}
	return b.String()
}
