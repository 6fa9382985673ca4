package dictionary

import (
	"database/sql"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
)

// Canonical column names. They double as the store's column names.
const (
	ColLemma     = "lemma"
	ColLanguage  = "lang"
	ColPhonetic  = "phonetic"
	ColFrequency = "freq"
)

type columnRule struct {
	canonical string
	aliases   []string // tried in order
	required  bool
}

// columnRules lists the accepted header spellings (after trimming and case
// folding) for each canonical column. Only the lemma column is mandatory.
var columnRules = []columnRule{
	{canonical: ColLemma, aliases: []string{"ortho", "lemme"}, required: true},
	{canonical: ColFrequency, aliases: []string{"freqfilms2", ColFrequency}},
	{canonical: ColPhonetic, aliases: []string{"phon", ColPhonetic}},
}

// Row is one source row mapped onto the canonical columns.
// Invalid (null) fields are values the source did not provide.
type Row struct {
	Lemma     sql.NullString
	Language  string
	Phonetic  sql.NullString
	Frequency sql.NullFloat64
}

// ColumnMap maps a canonical column name to its index in the source header.
// Columns the source lacks are absent from the map.
type ColumnMap map[string]int

// Index returns the header position of a canonical column, or -1.
func (m ColumnMap) Index(canonical string) int {
	if idx, ok := m[canonical]; ok {
		return idx
	}
	return -1
}

func normalizeHeader(h string) string {
	return cases.Fold().String(strings.TrimSpace(h))
}

// ResolveColumns matches a source header against columnRules.
// When several header cells normalize to the same alias, the leftmost wins.
func ResolveColumns(header []string) (ColumnMap, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		name := normalizeHeader(h)
		if _, ok := positions[name]; !ok {
			positions[name] = i
		}
	}
	ans := make(ColumnMap, len(columnRules))
	for _, rule := range columnRules {
		for _, alias := range rule.aliases {
			if idx, ok := positions[alias]; ok {
				ans[rule.canonical] = idx
				break
			}
		}
		if _, ok := ans[rule.canonical]; !ok && rule.required {
			return nil, &SchemaMismatchError{Column: rule.canonical, Header: header}
		}
	}
	return ans, nil
}

// CanonicalHeader returns the header as it looks after reconciliation:
// normalized names, recognized columns renamed to their canonical names,
// and the injected language column appended.
func CanonicalHeader(header []string) ([]string, error) {
	cols, err := ResolveColumns(header)
	if err != nil {
		return nil, err
	}
	ans := make([]string, len(header), len(header)+1)
	for i, h := range header {
		ans[i] = normalizeHeader(h)
	}
	for canonical, idx := range cols {
		ans[idx] = canonical
	}
	return append(ans, ColLanguage), nil
}

// Reconcile maps every table row onto the canonical columns and tags it
// with lang. Source order is preserved. It fails with a SchemaMismatchError
// when no lemma column can be found.
func Reconcile(t *Table, lang string) ([]Row, error) {
	cols, err := ResolveColumns(t.Header)
	if err != nil {
		return nil, err
	}
	lemmaIdx := cols.Index(ColLemma)
	phonIdx := cols.Index(ColPhonetic)
	freqIdx := cols.Index(ColFrequency)

	var badFreq int
	rows := make([]Row, len(t.Rows))
	for i, raw := range t.Rows {
		row := Row{Language: lang}
		if v, ok := t.Cell(raw, lemmaIdx); ok {
			row.Lemma = sql.NullString{String: v, Valid: true}
		}
		if v, ok := t.Cell(raw, phonIdx); ok {
			row.Phonetic = sql.NullString{String: v, Valid: true}
		}
		if v, ok := t.Cell(raw, freqIdx); ok {
			f, valid := parseFrequency(v)
			if !valid {
				badFreq++
			}
			row.Frequency = sql.NullFloat64{Float64: f, Valid: valid}
		}
		rows[i] = row
	}
	if badFreq > 0 {
		log.Warn().Int("rows", badFreq).Msg("unusable frequency values treated as missing")
	}
	return rows, nil
}

// parseFrequency accepts finite non-negative numbers only.
func parseFrequency(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return f, true
}
