package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// InsertWords appends words to the word table, one new row each, and stores
// the assigned ids back into the slice. Existing rows are never touched.
// It returns the number of rows inserted before any failure.
func InsertWords(ctx context.Context, db DBExecutor, words []Word) (int, error) {
	stmt, err := db.PrepareContext(ctx, `INSERT INTO word (lang, lemma, phonetic, freq) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare word insert: %w", err)
	}
	defer stmt.Close()

	for i := range words {
		w := &words[i]
		if strings.TrimSpace(w.Lemma) == "" {
			return i, fmt.Errorf("word #%d: lemma must be non-empty", i)
		}
		if w.Language == "" {
			return i, fmt.Errorf("word %q: language must be non-empty", w.Lemma)
		}
		if w.Frequency < 0 {
			return i, fmt.Errorf("word %q: frequency must not be negative", w.Lemma)
		}
		res, err := stmt.ExecContext(ctx, w.Language, w.Lemma, w.Phonetic, w.Frequency)
		if err != nil {
			return i, fmt.Errorf("insert word %q: %w", w.Lemma, classifyErr(err))
		}
		if w.ID, err = res.LastInsertId(); err != nil {
			return i, err
		}
	}
	return len(words), nil
}

// RebuildSearchIndex replaces the word_fts entries of every word in lang with
// fresh ones built from the word table. Entries of other languages stay as
// they are. It returns the number of indexed words of lang.
func RebuildSearchIndex(ctx context.Context, db DBExecutor, lang string) (int64, error) {
	if _, err := db.ExecContext(ctx,
		`DELETE FROM word_fts WHERE rowid IN (SELECT id FROM word WHERE lang = ?)`, lang); err != nil {
		return 0, fmt.Errorf("clear search index for %s: %w", lang, err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO word_fts (rowid, lemma) SELECT id, lemma FROM word WHERE lang = ?`, lang); err != nil {
		return 0, fmt.Errorf("populate search index for %s: %w", lang, classifyErr(err))
	}
	return CountIndexed(ctx, db, lang)
}

// CountWords returns the number of word rows in lang.
func CountWords(ctx context.Context, db DBExecutor, lang string) (int64, error) {
	var n int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM word WHERE lang = ?`, lang).Scan(&n)
	return n, err
}

// CountIndexed returns the number of word_fts entries belonging to words in lang.
func CountIndexed(ctx context.Context, db DBExecutor, lang string) (int64, error) {
	var n int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM word_fts WHERE rowid IN (SELECT id FROM word WHERE lang = ?)`, lang).Scan(&n)
	return n, err
}

// Both tokenizers split on double quotes, so dropping them yields the same tokens.
var quoteStripper = strings.NewReplacer(`"`, " ")

// phraseQuery quotes s as a single FTS phrase.
func phraseQuery(s string) string {
	return `"` + quoteStripper.Replace(s) + `"`
}

// prefixQuery builds a prefix match for the given FTS module.
func prefixQuery(module, s string) string {
	if module == ModuleFTS5 {
		return phraseQuery(s) + "*"
	}
	return `"` + quoteStripper.Replace(s) + `*"`
}

// hasTokens tells whether s contains anything the FTS tokenizers index.
func hasTokens(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r) || r > unicode.MaxASCII
	}) >= 0
}

// SearchExact returns words whose indexed lemma equals text, ordered by id.
// An empty lang matches every language. Lemmas without any token (e.g. "-")
// are looked up by the word table ids of their index entries.
func SearchExact(ctx context.Context, db DBExecutor, text, lang string) ([]Word, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	query := `
		SELECT w.id, w.lang, w.lemma, IFNULL(w.phonetic, ''), IFNULL(w.freq, 0)
		FROM word_fts JOIN word w ON w.id = word_fts.rowid
		WHERE word_fts MATCH ? AND w.lemma = ? AND (? = '' OR w.lang = ?)
		ORDER BY w.id`
	args := []any{phraseQuery(text), text, lang, lang}
	if !hasTokens(text) {
		query = `
		SELECT w.id, w.lang, w.lemma, IFNULL(w.phonetic, ''), IFNULL(w.freq, 0)
		FROM word_fts JOIN word w ON w.id = word_fts.rowid
		WHERE word_fts.rowid IN (SELECT id FROM word WHERE lemma = ?) AND (? = '' OR w.lang = ?)
		ORDER BY w.id`
		args = []any{text, lang, lang}
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Word
	for rows.Next() {
		var w Word
		if err := rows.Scan(&w.ID, &w.Language, &w.Lemma, &w.Phonetic, &w.Frequency); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchPrefix returns up to limit lemmas starting with prefix, most frequent first.
// An empty lang matches every language.
func SearchPrefix(ctx context.Context, db DBExecutor, prefix, lang string, limit int) ([]string, error) {
	if strings.TrimSpace(prefix) == "" || limit <= 0 {
		return nil, nil
	}
	module, err := SearchModule(ctx, db)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT w.lemma
		FROM word_fts JOIN word w ON w.id = word_fts.rowid
		WHERE word_fts MATCH ? AND (? = '' OR w.lang = ?)
		ORDER BY w.freq DESC, w.id
		LIMIT ?`,
		prefixQuery(module, prefix), lang, lang, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var lemma string
		if err := rows.Scan(&lemma); err != nil {
			return nil, err
		}
		out = append(out, lemma)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
