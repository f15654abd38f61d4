package driving

import (
	"context"
	"time"
)

// PhotoService handles photo uploads and attaching them to visits.
type PhotoService interface {
	// PresignUpload returns a presigned PUT URL for the given object key.
	PresignUpload(ctx context.Context, key string, expiresIn time.Duration) (string, error)

	// AttachToVisit creates a note on the visit containing markdown
	// links to the uploaded photos.
	AttachToVisit(ctx context.Context, visitID string, photoURLs []string, title string) (map[string]any, error)
}
