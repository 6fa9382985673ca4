package dictionary

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const maxLineSize = 1 << 20

// Table is a raw tab-separated dataset as read from the source file.
// Rows may be shorter than Header; absent trailing cells are missing values.
type Table struct {
	Header []string
	Rows   [][]string
}

// Cell returns the value of column idx in row, and false when the value
// is missing (beyond the row end, or an empty cell).
func (t *Table) Cell(row []string, idx int) (string, bool) {
	if idx < 0 || idx >= len(row) || row[idx] == "" {
		return "", false
	}
	return row[idx], true
}

// ReadTable parses UTF-8 tab-separated text with a header row.
// A leading byte order mark is dropped and blank lines are skipped.
func ReadTable(r io.Reader) (*Table, error) {
	dec := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	scanner := bufio.NewScanner(dec)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var table *Table
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if table == nil {
			table = &Table{Header: fields}
			continue
		}
		table.Rows = append(table.Rows, fields)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read TSV: %w", err)
	}
	if table == nil {
		return nil, fmt.Errorf("failed to read TSV: no header row")
	}
	return table, nil
}

// LoadTable reads the TSV file at path.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
