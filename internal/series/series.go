// Package series holds the host's tabular data model and extracts track
// points from it.
package series

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Series is one data frame supplied by the host: named columns of equal
// row count.
type Series struct {
	Name   string  `json:"name,omitempty" yaml:"name,omitempty"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Field is a single named column.
type Field struct {
	Name   string `json:"name" yaml:"name"`
	Values Values `json:"values" yaml:"values"`
}

// Values is a numeric column. Entries that are null or not numeric decode
// to NaN so that row indexes stay aligned with the other columns.
type Values []float64

// UnmarshalJSON accepts numbers, numeric strings and nulls.
func (v *Values) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("values: %w", err)
	}

	out := make(Values, 0, len(raw))
	for _, item := range raw {
		out = append(out, parseRaw(item))
	}

	*v = out
	return nil
}

// UnmarshalYAML accepts numbers, numeric strings and nulls, like
// UnmarshalJSON.
func (v *Values) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("values: line %d: expected a sequence", node.Line)
	}

	out := make(Values, 0, len(node.Content))
	for _, item := range node.Content {
		out = append(out, parseNode(item))
	}

	*v = out
	return nil
}

// MarshalJSON writes non-finite entries as null.
func (v Values) MarshalJSON() ([]byte, error) {
	out := make([]interface{}, len(v))
	for i, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		out[i] = f
	}

	return json.Marshal(out)
}

func parseRaw(item json.RawMessage) float64 {
	if bytes.Equal(bytes.TrimSpace(item), []byte("null")) {
		return math.NaN()
	}

	var f float64
	if err := json.Unmarshal(item, &f); err == nil {
		return f
	}

	var s string
	if err := json.Unmarshal(item, &s); err == nil {
		return parseCell(s)
	}

	return math.NaN()
}

func parseNode(node *yaml.Node) float64 {
	if node.Kind != yaml.ScalarNode || node.ShortTag() == "!!null" {
		return math.NaN()
	}

	var f float64
	if err := node.Decode(&f); err == nil {
		return f
	}

	return parseCell(node.Value)
}

func parseCell(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}

	return f
}

// FindField returns the first field whose name starts with prefix,
// compared case-insensitively.
func (s Series) FindField(prefix string) (Field, bool) {
	prefix = strings.ToLower(prefix)
	for _, f := range s.Fields {
		if strings.HasPrefix(strings.ToLower(f.Name), prefix) {
			return f, true
		}
	}

	return Field{}, false
}
