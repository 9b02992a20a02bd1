package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shaktech786/arr-suite-mcp-server/internal/config"
)

func createDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sonarr.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	defer db.Close()
	stmts := []string{
		`CREATE TABLE series (id INTEGER PRIMARY KEY, title TEXT NOT NULL)`,
		`CREATE TABLE episodes (id INTEGER PRIMARY KEY, series_id INTEGER, name TEXT)`,
		`INSERT INTO series (title) VALUES ('Dark'), ('The Expanse')`,
		`INSERT INTO episodes (series_id, name) VALUES (1, 'Secrets'), (1, 'Lies'), (2, 'Dulcinea')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	return path
}

func TestOpenSQLite_MissingFile(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "nope.db"))
	if err == nil {
		t.Fatal("OpenSQLite() on a missing file should fail")
	}
	_, err = OpenSQLite("")
	if err == nil {
		t.Fatal("OpenSQLite(\"\") should fail")
	}
}

func TestBackup_CreatesVerifiableSnapshot(t *testing.T) {
	path := createDB(t)
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer db.Close()

	destDir := t.TempDir()
	info, err := db.Backup(context.Background(), destDir)
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if info.Bytes <= 0 {
		t.Errorf("Bytes = %d, want > 0", info.Bytes)
	}
	if filepath.Dir(info.Path) != destDir {
		t.Errorf("backup path %q not in %q", info.Path, destDir)
	}
	if !strings.HasPrefix(filepath.Base(info.Path), "sonarr-") {
		t.Errorf("backup name %q should carry the source name", filepath.Base(info.Path))
	}

	snap, err := OpenSQLite(info.Path)
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}
	defer snap.Close()
	rows, err := snap.Query(context.Background(), `SELECT COUNT(*) AS n FROM series`)
	if err != nil {
		t.Fatalf("query snapshot: %v", err)
	}
	if len(rows) != 1 || rows[0]["n"] != int64(2) {
		t.Errorf("snapshot series count = %v, want 2", rows)
	}
}

func TestQuery_RejectsWrites(t *testing.T) {
	db, err := OpenSQLite(createDB(t))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer db.Close()

	for _, stmt := range []string{
		"DELETE FROM series",
		"drop table series",
		"INSERT INTO series (title) VALUES ('x')",
		"UPDATE series SET title = 'x'",
		"WITH x AS (SELECT 1) DELETE FROM series",
	} {
		if _, err := db.Query(context.Background(), stmt); !errors.Is(err, ErrWriteStatement) {
			t.Errorf("Query(%q) error = %v, want ErrWriteStatement", stmt, err)
		}
	}

	rows, err := db.Query(context.Background(), `SELECT title FROM series ORDER BY title`)
	if err != nil {
		t.Fatalf("Query(select) error = %v", err)
	}
	if len(rows) != 2 || rows[0]["title"] != "Dark" {
		t.Errorf("rows = %v, want Dark first of 2", rows)
	}
	if _, err := db.Query(context.Background(), `PRAGMA user_version`); err != nil {
		t.Errorf("Query(pragma) error = %v", err)
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	path := createDB(t)
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	info, err := db.Backup(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}

	if _, err := db.db.ExecContext(ctx, `DELETE FROM series`); err != nil {
		t.Fatalf("damage live db: %v", err)
	}
	rows, _ := db.Query(ctx, `SELECT COUNT(*) AS n FROM series`)
	if rows[0]["n"] != int64(0) {
		t.Fatalf("series count after delete = %v, want 0", rows[0]["n"])
	}

	if err := db.Restore(ctx, info.Path); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	rows, err = db.Query(ctx, `SELECT COUNT(*) AS n FROM series`)
	if err != nil {
		t.Fatalf("query after restore: %v", err)
	}
	if rows[0]["n"] != int64(2) {
		t.Errorf("series count after restore = %v, want 2", rows[0]["n"])
	}
}

func TestRestore_RejectsMissingBackup(t *testing.T) {
	db, err := OpenSQLite(createDB(t))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer db.Close()

	err = db.Restore(context.Background(), filepath.Join(t.TempDir(), "missing.db"))
	if err == nil {
		t.Fatal("Restore() with a missing backup should fail")
	}
}

func TestTables_ListsCounts(t *testing.T) {
	db, err := OpenSQLite(createDB(t))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer db.Close()

	tables, err := db.Tables(context.Background())
	if err != nil {
		t.Fatalf("Tables() error = %v", err)
	}
	want := map[string]int64{"series": 2, "episodes": 3}
	if len(tables) != len(want) {
		t.Fatalf("Tables() len = %d, want %d", len(tables), len(want))
	}
	for _, tc := range tables {
		if want[tc.Name] != tc.Rows {
			t.Errorf("table %s rows = %d, want %d", tc.Name, tc.Rows, want[tc.Name])
		}
	}
}

func TestIntegrityAndVacuum(t *testing.T) {
	db, err := OpenSQLite(createDB(t))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	result, err := db.Integrity(ctx)
	if err != nil {
		t.Fatalf("Integrity() error = %v", err)
	}
	if result != "ok" {
		t.Errorf("Integrity() = %q, want ok", result)
	}
	if err := db.Vacuum(ctx); err != nil {
		t.Errorf("Vacuum() error = %v", err)
	}
}

type fakeUploader struct {
	key        string
	configured bool
	fail       bool
}

func (f *fakeUploader) Name() string     { return "fake" }
func (f *fakeUploader) Configured() bool { return f.configured }
func (f *fakeUploader) Upload(ctx context.Context, path, key string) (string, error) {
	if f.fail {
		return "", errors.New("upload failed")
	}
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	f.key = key
	return "fake://" + key, nil
}

func TestBackupDatabase_ShipsToUploaders(t *testing.T) {
	path := createDB(t)
	up := &fakeUploader{configured: true}
	skipped := &fakeUploader{configured: false}

	info, err := BackupDatabase(context.Background(), path, t.TempDir(), up, skipped)
	if err != nil {
		t.Fatalf("BackupDatabase() error = %v", err)
	}
	if len(info.Remotes) != 1 || info.Remotes[0] != "fake://"+filepath.Base(info.Path) {
		t.Errorf("Remotes = %v, want one fake location", info.Remotes)
	}
	if up.key != filepath.Base(info.Path) {
		t.Errorf("uploaded key = %q, want %q", up.key, filepath.Base(info.Path))
	}
	if skipped.key != "" {
		t.Error("unconfigured uploader was called")
	}
}

func TestBackupDatabase_UploadFailureKeepsLocalCopy(t *testing.T) {
	path := createDB(t)
	info, err := BackupDatabase(context.Background(), path, t.TempDir(), &fakeUploader{configured: true, fail: true})
	if err == nil {
		t.Fatal("BackupDatabase() with failing uploader should report the error")
	}
	if info == nil || info.Path == "" {
		t.Fatal("local backup info should survive an upload failure")
	}
	if _, statErr := os.Stat(info.Path); statErr != nil {
		t.Errorf("local backup missing: %v", statErr)
	}
}

func TestUploaders_Configured(t *testing.T) {
	if NewS3Uploader(config.S3Settings{}).Configured() {
		t.Error("S3 uploader without bucket reports configured")
	}
	if !NewS3Uploader(config.S3Settings{Bucket: "backups"}).Configured() {
		t.Error("S3 uploader with bucket reports unconfigured")
	}
	if NewGCSUploader(config.GCSSettings{}).Configured() {
		t.Error("GCS uploader without bucket reports configured")
	}
	if !NewGCSUploader(config.GCSSettings{Bucket: "backups"}).Configured() {
		t.Error("GCS uploader with bucket reports unconfigured")
	}
}

func TestUploadersFor(t *testing.T) {
	settings := config.BackupSettings{
		S3:  config.S3Settings{Bucket: "media-backups"},
		GCS: config.GCSSettings{},
	}

	ups, err := UploadersFor(settings, "")
	if err != nil || ups != nil {
		t.Errorf("UploadersFor(\"\") = %v, %v, want no uploaders and no error", ups, err)
	}

	ups, err = UploadersFor(settings, "s3")
	if err != nil {
		t.Fatalf("UploadersFor(s3) error = %v", err)
	}
	if len(ups) != 1 || ups[0].Name() != "s3" {
		t.Errorf("UploadersFor(s3) = %v, want one s3 uploader", ups)
	}

	if _, err := UploadersFor(settings, "gcs"); err == nil {
		t.Error("UploadersFor(gcs) without a bucket should fail")
	}
	if _, err := UploadersFor(settings, "ftp"); err == nil || !strings.Contains(err.Error(), "unknown upload target") {
		t.Errorf("UploadersFor(ftp) error = %v, want unknown-target error", err)
	}
}

func TestOpenPostgres_EmptyDSN(t *testing.T) {
	if _, err := OpenPostgres(""); err == nil {
		t.Fatal("OpenPostgres(\"\") should fail")
	}
}
