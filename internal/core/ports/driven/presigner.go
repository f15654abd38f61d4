package driven

import (
	"context"
	"time"
)

// UploadPresigner generates presigned PUT URLs so mobile clients can
// upload photos to object storage without holding credentials.
type UploadPresigner interface {
	// PresignUpload returns a URL that accepts a PUT of the object at
	// key until expiresIn elapses.
	PresignUpload(ctx context.Context, key string, expiresIn time.Duration) (string, error)
}
