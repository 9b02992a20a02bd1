package store

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/shaktech786/arr-suite-mcp-server/internal/config"
)

// S3Uploader ships backups to an S3 bucket. Credentials come from the
// standard SDK chain unless the backup settings carry a static pair.
type S3Uploader struct {
	settings config.S3Settings
}

func NewS3Uploader(settings config.S3Settings) *S3Uploader {
	return &S3Uploader{settings: settings}
}

func (u *S3Uploader) Name() string {
	return "s3"
}

func (u *S3Uploader) Configured() bool {
	return u.settings.Bucket != ""
}

func (u *S3Uploader) Upload(ctx context.Context, path, key string) (string, error) {
	if !u.Configured() {
		return "", fmt.Errorf("s3 upload: no bucket configured")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if u.settings.Region != "" {
		opts = append(opts, awsconfig.WithRegion(u.settings.Region))
	}
	if u.settings.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(u.settings.AccessKeyID, u.settings.SecretAccessKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("unable to load SDK config: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	client := s3.NewFromConfig(cfg)
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.settings.Bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", u.settings.Bucket, key, err)
	}
	return fmt.Sprintf("s3://%s/%s", u.settings.Bucket, key), nil
}
