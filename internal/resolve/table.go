// Package resolve matches noisy human-written text (video titles, free-form
// company mentions) to canonical reference records.
package resolve

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/sparsh2712/DataPipeline/internal/config"
)

// Entry is one canonical reference record.
type Entry struct {
	Name   string
	Symbol string
}

// Table is an immutable, ordered reference table. Order is the tie-break for
// equally similar names.
type Table struct {
	entries []Entry
	keys    []string
	exact   map[string]int
}

// NewTable builds a table from entries in order. Two names that normalize to
// the same key make resolution order-dependent, so they are rejected.
func NewTable(entries []Entry) (*Table, error) {
	t := &Table{
		entries: make([]Entry, 0, len(entries)),
		keys:    make([]string, 0, len(entries)),
		exact:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		key := Normalize(e.Name)
		if key == "" {
			return nil, config.Invalidf("resolve: reference entry for symbol %q has an empty name", e.Symbol)
		}
		if i, dup := t.exact[key]; dup {
			return nil, config.Invalidf("resolve: reference names %q and %q collide as %q",
				t.entries[i].Name, e.Name, key)
		}
		t.exact[key] = len(t.entries)
		t.entries = append(t.entries, e)
		t.keys = append(t.keys, key)
	}
	return t, nil
}

// TableFromRows builds a table from (name, symbol) tuples as returned by an
// Executor.
func TableFromRows(rows [][]any) (*Table, error) {
	entries := make([]Entry, 0, len(rows))
	for i, r := range rows {
		if len(r) < 2 {
			return nil, config.Invalidf("resolve: reference row %d has %d columns, want 2", i, len(r))
		}
		name, _ := r[0].(string)
		symbol, _ := r[1].(string)
		entries = append(entries, Entry{Name: name, Symbol: symbol})
	}
	return NewTable(entries)
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Normalize is the comparison form of a name: NFKC, lowercased, with runs of
// whitespace collapsed.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(norm.NFKC.String(s))), " ")
}
