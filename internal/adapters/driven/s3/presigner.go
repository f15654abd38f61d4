package s3

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/custodia-labs/jobber-cli/internal/core/domain"
	"github.com/custodia-labs/jobber-cli/internal/core/ports/driven"
)

// putObjectPresigner is the slice of the AWS presign client we use.
// Narrowed for testability.
type putObjectPresigner interface {
	PresignPutObject(
		ctx context.Context,
		input *awss3.PutObjectInput,
		opts ...func(*awss3.PresignOptions),
	) (*v4.PresignedHTTPRequest, error)
}

// Ensure Presigner implements the interface.
var _ driven.UploadPresigner = (*Presigner)(nil)

// Presigner generates presigned S3 PUT URLs so photos can be uploaded
// directly by the caller without proxying bytes through this process.
type Presigner struct {
	bucket  string
	presign putObjectPresigner
}

// NewPresigner creates a presigner for the given bucket using the
// default AWS credential chain.
func NewPresigner(ctx context.Context, bucket, region string) (*Presigner, error) {
	if bucket == "" {
		return nil, &domain.ConfigurationError{
			Message: "s3 bucket is not configured",
			Context: map[string]any{"key": "s3.bucket"},
		}
	}

	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, &domain.ConfigurationError{
			Message: "loading AWS credentials",
			Context: map[string]any{"bucket": bucket, "region": region},
			Err:     err,
		}
	}

	return &Presigner{
		bucket:  bucket,
		presign: awss3.NewPresignClient(awss3.NewFromConfig(cfg)),
	}, nil
}

// PresignUpload returns a presigned PUT URL for the given object key.
func (p *Presigner) PresignUpload(
	ctx context.Context, key string, expiresIn time.Duration,
) (string, error) {
	req, err := p.presign.PresignPutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, awss3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", fmt.Errorf("presigning upload for %s/%s: %w", p.bucket, key, err)
	}
	return req.URL, nil
}
