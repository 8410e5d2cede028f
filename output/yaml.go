package output

import (
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vegasq/csvcat/value"
)

// YAMLFormatter outputs rows as a YAML sequence of mappings.
type YAMLFormatter struct {
	writer io.Writer
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(w io.Writer) *YAMLFormatter {
	return &YAMLFormatter{writer: w}
}

// SetOutput sets the output writer
func (y *YAMLFormatter) SetOutput(w io.Writer) {
	y.writer = w
}

// Format writes rows as a YAML sequence. Mapping keys follow schema order.
func (y *YAMLFormatter) Format(schema value.Schema, rows []value.Row) error {
	doc := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, row := range rows {
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for i, v := range row {
			m.Content = append(m.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: schema.Column(i).Name},
				yamlScalar(v))
		}
		doc.Content = append(doc.Content, m)
	}
	if len(rows) == 0 {
		doc.Style = yaml.FlowStyle
	}

	enc := yaml.NewEncoder(y.writer)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func yamlScalar(v value.Value) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode}
	switch v.Kind() {
	case value.KindNull:
		n.Tag, n.Value = "!!null", "null"
	case value.KindString:
		n.Tag, n.Value = "!!str", v.AsString()
	case value.KindBoolean:
		n.Tag, n.Value = "!!bool", strconv.FormatBool(v.AsBool())
	case value.KindInt64:
		n.Tag, n.Value = "!!int", v.String()
	case value.KindFloat64:
		s := strconv.FormatFloat(v.AsFloat(), 'g', -1, 64)
		if !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
		n.Tag, n.Value = "!!float", s
	case value.KindDateTime:
		n.Tag, n.Value = "!!timestamp", v.String()
	}
	return n
}
