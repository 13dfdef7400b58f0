package geo

import (
	"strings"
	"time"
)

// Country is one row of the reference table.
type Country struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Continent string `json:"continent"`
	Currency  string `json:"currency"`
}

// Table is an immutable snapshot of the reference data. Concurrent readers
// never lock; refresh replaces the whole snapshot atomically.
type Table struct {
	byCode   map[string]Country
	loadedAt time.Time
}

// NewTable builds a snapshot from rows. Codes are upper-cased; rows with an
// empty code are skipped.
func NewTable(rows []Country, loadedAt time.Time) *Table {
	byCode := make(map[string]Country, len(rows))
	for _, row := range rows {
		code := strings.ToUpper(strings.TrimSpace(row.Code))
		if code == "" {
			continue
		}
		row.Code = code
		byCode[code] = row
	}
	return &Table{byCode: byCode, loadedAt: loadedAt}
}

// Lookup returns the row for a code, if present.
func (t *Table) Lookup(code string) (Country, bool) {
	row, ok := t.byCode[code]
	return row, ok
}

// Len reports the number of rows in the snapshot.
func (t *Table) Len() int { return len(t.byCode) }

// Continents returns the distinct continent names in the snapshot.
func (t *Table) Continents() map[string]struct{} {
	out := make(map[string]struct{})
	for _, row := range t.byCode {
		if row.Continent != "" {
			out[row.Continent] = struct{}{}
		}
	}
	return out
}

// LoadedAt reports when the snapshot was built.
func (t *Table) LoadedAt() time.Time { return t.loadedAt }
