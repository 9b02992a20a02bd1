package store

import (
	"context"
	"fmt"

	"github.com/shaktech786/arr-suite-mcp-server/internal/config"
)

// Uploader ships a finished backup to remote object storage.
type Uploader interface {
	// Name returns the storage identifier (s3, gcs).
	Name() string

	// Configured returns true when the target has a bucket to write to.
	Configured() bool

	// Upload stores the file at path under key and returns the remote
	// location.
	Upload(ctx context.Context, path, key string) (string, error)
}

// UploadersFor resolves a named upload target against the backup settings.
// An empty target means no remote upload; naming a target that has no bucket
// configured is an error rather than a silent skip.
func UploadersFor(settings config.BackupSettings, target string) ([]Uploader, error) {
	switch target {
	case "":
		return nil, nil
	case "s3":
		up := NewS3Uploader(settings.S3)
		if !up.Configured() {
			return nil, fmt.Errorf("s3 upload requested but backup.s3 has no bucket configured")
		}
		return []Uploader{up}, nil
	case "gcs":
		up := NewGCSUploader(settings.GCS)
		if !up.Configured() {
			return nil, fmt.Errorf("gcs upload requested but backup.gcs has no bucket configured")
		}
		return []Uploader{up}, nil
	default:
		return nil, fmt.Errorf("unknown upload target %q (use s3 or gcs)", target)
	}
}
