package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Full-text modules the search index can be built with.
const (
	ModuleFTS5 = "fts5"
	ModuleFTS4 = "fts4"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS word (
    id       INTEGER PRIMARY KEY,
    lang     TEXT NOT NULL,
    lemma    TEXT NOT NULL,
    phonetic TEXT,
    freq     REAL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS word_lang_idx ON word(lang);

CREATE TABLE IF NOT EXISTS relation (
    src_id INTEGER,
    dst_id INTEGER,
    type   TEXT,
    FOREIGN KEY(src_id) REFERENCES word(id),
    FOREIGN KEY(dst_id) REFERENCES word(id)
);
`

// word_fts rows share their rowid with word.id.
const searchIndexSQL = `CREATE VIRTUAL TABLE IF NOT EXISTS word_fts USING %s(lemma)`

var journalModes = map[string]bool{
	"delete":   true,
	"truncate": true,
	"persist":  true,
	"memory":   true,
	"wal":      true,
	"off":      true,
}

// IsJournalMode tells whether mode is a journal mode SQLite accepts.
func IsJournalMode(mode string) bool {
	return journalModes[mode]
}

// SchemaOptions tune EnsureSchema.
type SchemaOptions struct {
	// JournalMode is applied before any table is created. Empty keeps the current mode.
	JournalMode string
	// SearchModule forces ModuleFTS5 or ModuleFTS4. Empty picks the best available.
	SearchModule string
}

// uriPath percent-escapes every segment of path for use in a file: URI.
func uriPath(path string) string {
	segments := strings.Split(filepath.ToSlash(path), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

// Open opens (creating if needed) the store file at path for a single writer.
// With readOnly set the file must exist and is never modified.
func Open(path string, readOnly bool) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", uriPath(path))
	if readOnly {
		dsn += "&mode=ro"
	} else if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if !readOnly {
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open store %s: %w", path, err)
	}
	return conn, nil
}

// EnsureSchema creates the word and relation tables and the word_fts search
// index when they are absent. Existing structures are never altered, so it is
// safe to call any number of times. All creations happen in one transaction.
func EnsureSchema(ctx context.Context, conn *sql.DB, opts SchemaOptions) error {
	if opts.JournalMode != "" {
		if !IsJournalMode(opts.JournalMode) {
			return fmt.Errorf("unsupported journal mode %q", opts.JournalMode)
		}
		var mode string
		if err := conn.QueryRowContext(ctx, "PRAGMA journal_mode="+opts.JournalMode).Scan(&mode); err != nil {
			return fmt.Errorf("failed to set journal mode: %w", err)
		}
	}

	module := opts.SearchModule
	if module == "" {
		var err error
		if module, err = AvailableSearchModule(ctx, conn); err != nil {
			return err
		}
	} else if module != ModuleFTS5 && module != ModuleFTS4 {
		return fmt.Errorf("unsupported search module %q", module)
	}

	return RunInTx(ctx, conn, func(ctx context.Context, tx *sql.Tx) error {
		for _, s := range strings.Split(schemaSQL, ";") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, s); err != nil {
				return fmt.Errorf("failed to create schema: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(searchIndexSQL, module)); err != nil {
			return fmt.Errorf("failed to create search index: %w", err)
		}
		return nil
	})
}

// AvailableSearchModule returns ModuleFTS5 when the linked SQLite was built
// with it (go-sqlite3 needs the sqlite_fts5 build tag) and ModuleFTS4 otherwise.
func AvailableSearchModule(ctx context.Context, q DBExecutor) (string, error) {
	var used int
	if err := q.QueryRowContext(ctx, "SELECT sqlite_compileoption_used('ENABLE_FTS5')").Scan(&used); err != nil {
		return "", fmt.Errorf("failed to query sqlite compile options: %w", err)
	}
	if used == 1 {
		return ModuleFTS5, nil
	}
	return ModuleFTS4, nil
}

// SearchModule reports the module the existing word_fts table was created with.
func SearchModule(ctx context.Context, q DBExecutor) (string, error) {
	var ddl string
	err := q.QueryRowContext(ctx, "SELECT sql FROM sqlite_master WHERE type = 'table' AND name = 'word_fts'").Scan(&ddl)
	if err == sql.ErrNoRows {
		return "", ErrNoSearchIndex
	}
	if err != nil {
		return "", err
	}
	if strings.Contains(strings.ToLower(ddl), ModuleFTS5) {
		return ModuleFTS5, nil
	}
	return ModuleFTS4, nil
}

// Structure is one schema object as recorded in sqlite_master.
type Structure struct {
	Type string
	Name string
	SQL  string
}

// Structures lists the store's schema objects, FTS shadow tables included.
func Structures(ctx context.Context, q DBExecutor) ([]Structure, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT type, name, IFNULL(sql, '') FROM sqlite_master WHERE name NOT LIKE 'sqlite_%' ORDER BY type, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Structure
	for rows.Next() {
		var s Structure
		if err := rows.Scan(&s.Type, &s.Name, &s.SQL); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
