package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres inspects a product database hosted on PostgreSQL, which the
// newer products support as an alternative to SQLite. Backups for these
// stay server-side, so this client only reports.
type Postgres struct {
	db *sql.DB
}

func OpenPostgres(dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("missing postgres dsn")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// TableStat is one relation's reported size.
type TableStat struct {
	Name  string `json:"name"`
	Rows  int64  `json:"rows"`
	Bytes int64  `json:"bytes"`
}

// Tables lists user tables with live rows and total size, largest first.
func (p *Postgres) Tables(ctx context.Context) ([]TableStat, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT relname, n_live_tup, pg_total_relation_size(relid)
		FROM pg_stat_user_tables
		ORDER BY pg_total_relation_size(relid) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TableStat
	for rows.Next() {
		var t TableStat
		if err := rows.Scan(&t.Name, &t.Rows, &t.Bytes); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Vacuum runs VACUUM ANALYZE on one table, or on the whole database when
// table is empty. Table names cannot be bound as parameters, so the name is
// quoted as an identifier before it reaches the server.
func (p *Postgres) Vacuum(ctx context.Context, table string) error {
	stmt := `VACUUM ANALYZE`
	if table != "" {
		stmt = fmt.Sprintf(`VACUUM ANALYZE %s`, pgx.Identifier{table}.Sanitize())
	}
	_, err := p.db.ExecContext(ctx, stmt)
	return err
}

// Version reports the server version string.
func (p *Postgres) Version(ctx context.Context) (string, error) {
	var version string
	if err := p.db.QueryRowContext(ctx, `SELECT version()`).Scan(&version); err != nil {
		return "", err
	}
	return version, nil
}
