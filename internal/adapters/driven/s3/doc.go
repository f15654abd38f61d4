// Package s3 implements the UploadPresigner port using the AWS SDK.
// Only presigned PUT URLs are generated here; the actual upload is done
// by the holder of the URL.
package s3
