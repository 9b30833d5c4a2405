package harvest

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sparsh2712/DataPipeline/internal/config"
)

// Column maps one destination column to a source key. Source is a gjson
// path, so nested keys ("data.acqName") are allowed.
type Column struct {
	Name     string
	Source   string
	Nullable bool
}

// FieldMap is one endpoint's ordered projection.
type FieldMap []Column

// Columns returns the destination column names in order.
func (m FieldMap) Columns() []string {
	cols := make([]string, len(m))
	for i, c := range m {
		cols[i] = c.Name
	}
	return cols
}

// Schemas holds field maps keyed by endpoint name.
type Schemas map[string]FieldMap

// LoadSchemas reads a field-mapping file (JSON or YAML).
func LoadSchemas(path string) (Schemas, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, config.Invalidf("harvest: read schema %s: %v", path, err)
	}
	return ParseSchemas(data)
}

// ParseSchemas decodes {endpoint: {column: source_key}}. A source key ending
// in "?" marks the column nullable: a record lacking the key writes NULL
// instead of being rejected.
func ParseSchemas(data []byte) (Schemas, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, config.Invalidf("harvest: parse schema: %v", err)
	}
	top, err := mappingRoot(&root)
	if err != nil {
		return nil, err
	}

	out := make(Schemas, len(top.Content)/2)
	for i := 0; i+1 < len(top.Content); i += 2 {
		name := top.Content[i].Value
		body := top.Content[i+1]
		if body.Kind != yaml.MappingNode {
			return nil, config.Invalidf("harvest: schema %s must map columns to source keys", name)
		}
		var fm FieldMap
		for j := 0; j+1 < len(body.Content); j += 2 {
			src := body.Content[j+1].Value
			col := Column{Name: body.Content[j].Value, Source: src}
			if strings.HasSuffix(src, "?") {
				col.Source = strings.TrimSuffix(src, "?")
				col.Nullable = true
			}
			if col.Source == "" {
				return nil, config.Invalidf("harvest: schema %s column %s has no source key", name, col.Name)
			}
			fm = append(fm, col)
		}
		out[name] = fm
	}
	return out, nil
}
