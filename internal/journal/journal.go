// Package journal keeps a SQLite log of every value written through the
// engine. The surrounding tooling reads it to know which files to commit.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const migrationsSQL = `
CREATE TABLE IF NOT EXISTS edits (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	file_path  TEXT NOT NULL,
	line       INTEGER NOT NULL,
	entry_key  TEXT NOT NULL,
	old_value  TEXT NOT NULL,
	new_value  TEXT NOT NULL,
	missing    TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_edits_file ON edits(file_path);
`

// Edit is one recorded write. Line is zero-based.
type Edit struct {
	ID       int64
	FilePath string
	Line     int
	Key      string
	OldValue string
	NewValue string
	// Missing holds the tags the translator accepted to drop. Stored one per
	// line; values never contain line breaks.
	Missing   []string
	CreatedAt time.Time
}

// Journal is an open edit log.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the journal at path and applies migrations.
// ":memory:" gives a private in-memory journal.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal %s: %w", path, err)
	}
	return &Journal{db: db, now: time.Now}, nil
}

func migrate(db *sql.DB) error {
	for _, s := range strings.Split(migrationsSQL, ";") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the database.
func (j *Journal) Close() error { return j.db.Close() }

// Record appends an edit and returns its id. CreatedAt is set when zero.
func (j *Journal) Record(ctx context.Context, e Edit) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = j.now()
	}
	res, err := j.db.ExecContext(ctx,
		`INSERT INTO edits (file_path, line, entry_key, old_value, new_value, missing, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.FilePath, e.Line, e.Key, e.OldValue, e.NewValue,
		strings.Join(e.Missing, "\n"), e.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("record edit of %s: %w", e.Key, err)
	}
	return res.LastInsertId()
}

// List returns the most recent edits first. limit <= 0 returns all.
func (j *Journal) List(ctx context.Context, limit int) ([]Edit, error) {
	query := `SELECT id, file_path, line, entry_key, old_value, new_value, missing, created_at
		FROM edits ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list edits: %w", err)
	}
	defer rows.Close()

	var out []Edit
	for rows.Next() {
		var (
			e       Edit
			missing string
			created string
		)
		if err := rows.Scan(&e.ID, &e.FilePath, &e.Line, &e.Key, &e.OldValue, &e.NewValue, &missing, &created); err != nil {
			return nil, fmt.Errorf("scan edit: %w", err)
		}
		if missing != "" {
			e.Missing = strings.Split(missing, "\n")
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse edit %d timestamp: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ModifiedFiles returns the distinct files touched by recorded edits, sorted.
func (j *Journal) ModifiedFiles(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT DISTINCT file_path FROM edits ORDER BY file_path`)
	if err != nil {
		return nil, fmt.Errorf("list modified files: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
