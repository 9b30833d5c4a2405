// Package harvest drives the session fetch client across every endpoint
// descriptor, projects each page through its field-mapping schema and hands
// bounded batches to a sink.
package harvest

import (
	_ "embed"
	"encoding/json"
	"os"

	"github.com/kaptinlin/jsonschema"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sparsh2712/DataPipeline/internal/config"
)

//go:embed descriptor_schema.json
var descriptorSchema []byte

// Param is one request parameter. List parameters fan out into the
// Cartesian product; scalars are sent as-is.
type Param struct {
	Key    string
	Values []string
	List   bool
}

// Descriptor describes one API surface to harvest.
type Descriptor struct {
	Name        string
	Endpoint    string
	Referer     string
	Params      []Param
	Table       string
	WindowDays  int
	RecordsPath string
	Propagate   []string
	UniqueKeys  []string
}

// HasDateWindow reports whether the descriptor declares both from_date and
// to_date.
func (d Descriptor) HasDateWindow() bool {
	_, hasFrom := d.param("from_date")
	_, hasTo := d.param("to_date")
	return hasFrom && hasTo
}

func (d Descriptor) param(key string) (Param, bool) {
	for _, p := range d.Params {
		if p.Key == key {
			return p, true
		}
	}
	return Param{}, false
}

type descriptorFields struct {
	Endpoint    string    `yaml:"endpoint"`
	Referer     string    `yaml:"referer"`
	Params      yaml.Node `yaml:"params"`
	Table       string    `yaml:"table"`
	WindowDays  int       `yaml:"window_days"`
	RecordsPath string    `yaml:"records_path"`
	Propagate   []string  `yaml:"propagate"`
	UniqueKeys  []string  `yaml:"unique_keys"`
}

// LoadDescriptors reads an endpoint descriptor file (JSON or YAML).
func LoadDescriptors(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, config.Invalidf("harvest: read descriptors %s: %v", path, err)
	}
	return ParseDescriptors(data)
}

// ParseDescriptors validates data against the descriptor schema and decodes
// it, keeping the file's endpoint and parameter order.
func ParseDescriptors(data []byte) ([]Descriptor, error) {
	if err := validateDescriptors(data); err != nil {
		return nil, err
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, config.Invalidf("harvest: parse descriptors: %v", err)
	}
	top, err := mappingRoot(&root)
	if err != nil {
		return nil, err
	}

	var out []Descriptor
	for i := 0; i+1 < len(top.Content); i += 2 {
		name := top.Content[i].Value
		var f descriptorFields
		if err := top.Content[i+1].Decode(&f); err != nil {
			return nil, config.Invalidf("harvest: descriptor %s: %v", name, err)
		}
		params, err := decodeParams(&f.Params)
		if err != nil {
			return nil, config.Invalidf("harvest: descriptor %s: %v", name, err)
		}
		out = append(out, Descriptor{
			Name:        name,
			Endpoint:    f.Endpoint,
			Referer:     f.Referer,
			Params:      params,
			Table:       f.Table,
			WindowDays:  f.WindowDays,
			RecordsPath: f.RecordsPath,
			Propagate:   f.Propagate,
			UniqueKeys:  f.UniqueKeys,
		})
	}
	return out, nil
}

func validateDescriptors(data []byte) error {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(descriptorSchema)
	if err != nil {
		return eris.Wrap(err, "harvest: compile descriptor schema")
	}

	// YAML is a superset of JSON; normalise to JSON for the validator.
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return config.Invalidf("harvest: parse descriptors: %v", err)
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return config.Invalidf("harvest: descriptors are not JSON-compatible: %v", err)
	}

	result := schema.ValidateJSON(asJSON)
	if !result.IsValid() {
		return config.Invalidf("harvest: descriptor validation failed: %v", result.Errors)
	}
	return nil
}

func mappingRoot(root *yaml.Node) (*yaml.Node, error) {
	if root.Kind == 0 {
		return &yaml.Node{Kind: yaml.MappingNode}, nil
	}
	top := root
	if top.Kind == yaml.DocumentNode && len(top.Content) > 0 {
		top = top.Content[0]
	}
	if top.Kind != yaml.MappingNode {
		return nil, config.Invalidf("harvest: top level must be a mapping of name to entry")
	}
	return top, nil
}

func decodeParams(n *yaml.Node) ([]Param, error) {
	if n.Kind == 0 {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, eris.New("params must be a mapping")
	}
	var params []Param
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		val := n.Content[i+1]
		switch val.Kind {
		case yaml.SequenceNode:
			p := Param{Key: key, List: true}
			for _, item := range val.Content {
				p.Values = append(p.Values, scalarValue(item))
			}
			params = append(params, p)
		case yaml.ScalarNode:
			params = append(params, Param{Key: key, Values: []string{scalarValue(val)}})
		default:
			return nil, eris.Errorf("param %s must be a scalar or a list", key)
		}
	}
	return params, nil
}

func scalarValue(n *yaml.Node) string {
	if n.Tag == "!!null" {
		return ""
	}
	return n.Value
}
