package harvest

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
)

// ErrInvalidFormat marks a JSON page that carries no record array.
var ErrInvalidFormat = eris.New("harvest: invalid data format")

// defaultRecordsPath is where the portal nests record arrays.
const defaultRecordsPath = "data"

// extractRecords returns the page's record array: the value at path when it
// is an array, else the document itself when that is an array.
func extractRecords(doc gjson.Result, path string) ([]gjson.Result, error) {
	if path == "" {
		path = defaultRecordsPath
	}
	if doc.IsObject() {
		if v := doc.Get(path); v.IsArray() {
			return v.Array(), nil
		}
		return nil, ErrInvalidFormat
	}
	if doc.IsArray() {
		return doc.Array(), nil
	}
	return nil, ErrInvalidFormat
}

// Row projects rec through the field map. Values in injected take priority
// over the record's own keys. A missing key on a non-nullable column rejects
// the record.
func (m FieldMap) Row(rec gjson.Result, injected map[string]string) ([]any, error) {
	if !rec.IsObject() {
		return nil, eris.New("harvest: record is not an object")
	}
	row := make([]any, len(m))
	for i, col := range m {
		if v, ok := injected[col.Source]; ok {
			row[i] = nullIfEmpty(v)
			continue
		}
		v := rec.Get(col.Source)
		if !v.Exists() {
			if col.Nullable {
				row[i] = nil
				continue
			}
			return nil, eris.Errorf("harvest: record has no key %q for column %s", col.Source, col.Name)
		}
		row[i] = literal(v)
	}
	return row, nil
}

// literal converts a JSON value to the Go value the sink persists. Empty
// strings and nulls become NULL; integers stay exact int64; objects and
// arrays are kept as raw JSON text.
func literal(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.String:
		return nullIfEmpty(v.Str)
	case gjson.Number:
		if strings.ContainsAny(v.Raw, ".eE") {
			return v.Num
		}
		if n, err := strconv.ParseInt(v.Raw, 10, 64); err == nil {
			return n
		}
		// Beyond int64: keep the digits rather than round through float64.
		return v.Raw
	case gjson.True:
		return true
	case gjson.False:
		return false
	default:
		return v.Raw
	}
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
