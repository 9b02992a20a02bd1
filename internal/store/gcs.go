package store

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/shaktech786/arr-suite-mcp-server/internal/config"
)

// GCSUploader ships backups to a Cloud Storage bucket. Without an explicit
// credentials file it falls back to application default credentials.
type GCSUploader struct {
	settings config.GCSSettings
}

func NewGCSUploader(settings config.GCSSettings) *GCSUploader {
	return &GCSUploader{settings: settings}
}

func (u *GCSUploader) Name() string {
	return "gcs"
}

func (u *GCSUploader) Configured() bool {
	return u.settings.Bucket != ""
}

func (u *GCSUploader) Upload(ctx context.Context, path, key string) (string, error) {
	if !u.Configured() {
		return "", fmt.Errorf("gcs upload: no bucket configured")
	}

	var opts []option.ClientOption
	if u.settings.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(u.settings.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("gcs client: %w", err)
	}
	defer client.Close()

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := client.Bucket(u.settings.Bucket).Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return "", fmt.Errorf("write gs://%s/%s: %w", u.settings.Bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finish gs://%s/%s: %w", u.settings.Bucket, key, err)
	}
	return fmt.Sprintf("gs://%s/%s", u.settings.Bucket, key), nil
}
