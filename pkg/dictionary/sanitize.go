package dictionary

import (
	"database/sql"
	"strings"
)

// SanitizeStats counts what Sanitize did to its input.
type SanitizeStats struct {
	Input             int
	DroppedEmptyLemma int
	DroppedDuplicate  int
	FilledPhonetic    int
	FilledFrequency   int
	Output            int
}

type entryKey struct {
	lemma    string
	language string
}

// Sanitize makes reconciled rows safe to load:
//   - rows with a missing or blank lemma are dropped
//   - a missing phonetic becomes "" and a missing frequency 0
//   - of rows sharing (lemma, language) only the first one in input order survives
//
// Lemmas are compared as given, without trimming. All fields of the returned
// rows are valid, so sanitizing the output again changes nothing.
func Sanitize(rows []Row) ([]Row, SanitizeStats) {
	stats := SanitizeStats{Input: len(rows)}
	seen := make(map[entryKey]struct{}, len(rows))
	ans := make([]Row, 0, len(rows))

	for _, row := range rows {
		if !row.Lemma.Valid || strings.TrimSpace(row.Lemma.String) == "" {
			stats.DroppedEmptyLemma++
			continue
		}
		key := entryKey{lemma: row.Lemma.String, language: row.Language}
		if _, ok := seen[key]; ok {
			stats.DroppedDuplicate++
			continue
		}
		seen[key] = struct{}{}

		if !row.Phonetic.Valid {
			row.Phonetic = sql.NullString{String: "", Valid: true}
			stats.FilledPhonetic++
		}
		if !row.Frequency.Valid {
			row.Frequency = sql.NullFloat64{Float64: 0, Valid: true}
			stats.FilledFrequency++
		}
		ans = append(ans, row)
	}
	stats.Output = len(ans)
	return ans, stats
}
