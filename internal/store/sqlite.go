// Package store handles the wrapped products' databases: SQLite snapshots
// and restores, read-only inspection, PostgreSQL statistics, and remote
// upload of finished backups.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrWriteStatement rejects statements that could modify a product
// database. Only SELECT, PRAGMA, and EXPLAIN pass the gate.
var ErrWriteStatement = errors.New("only read statements are allowed")

// SQLite wraps one product's database file. The wrapped products all
// persist to SQLite unless pointed at PostgreSQL.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens an existing product database. It refuses to create a
// missing file; a typo in the configured path should fail loudly instead
// of leaving an empty database behind.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("missing database path")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &SQLite{db: db, path: path}, nil
}

func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *SQLite) Path() string {
	return s.path
}

// BackupInfo describes one completed backup.
type BackupInfo struct {
	Source    string        `json:"source"`
	Path      string        `json:"path"`
	Bytes     int64         `json:"bytes"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
	Remotes   []string      `json:"remotes,omitempty"`
}

// Backup snapshots the database into destDir using VACUUM INTO, which
// produces a compacted, consistent copy without blocking readers. The
// file is named after the source with a timestamp suffix.
func (s *SQLite) Backup(ctx context.Context, destDir string) (*BackupInfo, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(s.path), filepath.Ext(s.path))
	dest := filepath.Join(destDir, fmt.Sprintf("%s-%s.db", base, time.Now().Format("20060102-150405")))

	start := time.Now()
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, dest); err != nil {
		return nil, fmt.Errorf("vacuum into %s: %w", dest, err)
	}
	fi, err := os.Stat(dest)
	if err != nil {
		return nil, fmt.Errorf("stat backup: %w", err)
	}
	return &BackupInfo{
		Source:    s.path,
		Path:      dest,
		Bytes:     fi.Size(),
		Duration:  time.Since(start),
		CreatedAt: start,
	}, nil
}

// Restore replaces the live database with the given backup. The backup's
// integrity is verified first, and the copy goes through a temp file and
// rename so a failed restore never leaves a torn database behind.
func (s *SQLite) Restore(ctx context.Context, backupPath string) error {
	check, err := OpenSQLite(backupPath)
	if err != nil {
		return err
	}
	result, err := check.Integrity(ctx)
	check.Close()
	if err != nil {
		return fmt.Errorf("verify backup: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("backup %s failed integrity check: %s", backupPath, result)
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close live database: %w", err)
	}
	if err := copyFile(backupPath, s.path); err != nil {
		return err
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("reopen %s: %w", s.path, err)
	}
	s.db = db
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".restore"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

// Query runs a read statement and returns the rows as column maps. Write
// statements are rejected before touching the database.
func (s *SQLite) Query(ctx context.Context, stmt string) ([]map[string]any, error) {
	first := strings.ToLower(strings.TrimSpace(stmt))
	if i := strings.IndexAny(first, " \t\n"); i > 0 {
		first = first[:i]
	}
	switch first {
	case "select", "pragma", "explain":
	default:
		return nil, fmt.Errorf("%w, got %q", ErrWriteStatement, first)
	}

	rows, err := s.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			v := vals[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// TableCount is one table's row count.
type TableCount struct {
	Name string `json:"name"`
	Rows int64  `json:"rows"`
}

// Tables lists user tables with row counts, largest first.
func (s *SQLite) Tables(ctx context.Context) ([]TableCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]TableCount, 0, len(names))
	for _, name := range names {
		var count int64
		if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %q`, name)).Scan(&count); err != nil {
			return nil, fmt.Errorf("count %s: %w", name, err)
		}
		out = append(out, TableCount{Name: name, Rows: count})
	}
	return out, nil
}

// Integrity runs PRAGMA integrity_check and returns the first result row,
// "ok" for a healthy database.
func (s *SQLite) Integrity(ctx context.Context) (string, error) {
	var result string
	if err := s.db.QueryRowContext(ctx, `PRAGMA integrity_check`).Scan(&result); err != nil {
		return "", err
	}
	return result, nil
}

// Vacuum compacts the database in place.
func (s *SQLite) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `VACUUM`)
	return err
}

// BackupDatabase runs the full backup flow for one product database:
// snapshot into destDir, then ship to every configured uploader.
func BackupDatabase(ctx context.Context, dbPath, destDir string, uploaders ...Uploader) (*BackupInfo, error) {
	db, err := OpenSQLite(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	info, err := db.Backup(ctx, destDir)
	if err != nil {
		return nil, err
	}
	for _, up := range uploaders {
		if up == nil || !up.Configured() {
			continue
		}
		location, err := up.Upload(ctx, info.Path, filepath.Base(info.Path))
		if err != nil {
			return info, fmt.Errorf("upload to %s: %w", up.Name(), err)
		}
		info.Remotes = append(info.Remotes, location)
	}
	return info, nil
}
