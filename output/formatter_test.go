package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/vegasq/csvcat/value"
)

var peopleSchema = value.NewSchema(
	value.Column{Name: "name", Type: value.String},
	value.Column{Name: "id", Type: value.Int64},
	value.Column{Name: "score", Type: value.Float64},
	value.Column{Name: "active", Type: value.Boolean},
	value.Column{Name: "joined", Type: value.DateTime},
)

func peopleRows() []value.Row {
	return []value.Row{
		{value.Str("alice"), value.Int(1), value.Float(95.5), value.Bool(true),
			value.Time(time.Date(2023, 2, 14, 12, 35, 0, 0, time.UTC))},
		{value.Str("bob"), value.Int(2), value.Null(), value.Bool(false), value.Null()},
	}
}

func TestNew(t *testing.T) {
	for _, format := range append(Formats, "JSON", "ndjson", "yml") {
		f, err := New(format, &bytes.Buffer{})
		if err != nil {
			t.Errorf("New(%q) error = %v", format, err)
			continue
		}
		if f == nil {
			t.Errorf("New(%q) returned nil formatter", format)
		}
	}

	if _, err := New("xml", &bytes.Buffer{}); err == nil || !strings.Contains(err.Error(), "unknown output format") {
		t.Errorf("New(xml) error = %v, want unknown output format", err)
	}
}

func TestFormatter_SetOutput(t *testing.T) {
	for _, format := range []string{"csv", "json", "jsonl", "table", "yaml"} {
		var first, second bytes.Buffer
		f, err := New(format, &first)
		if err != nil {
			t.Fatalf("New(%q) error = %v", format, err)
		}
		f.SetOutput(&second)
		if err := f.Format(peopleSchema, peopleRows()); err != nil {
			t.Fatalf("%s: Format() error = %v", format, err)
		}
		if first.Len() != 0 {
			t.Errorf("%s: wrote to the replaced writer", format)
		}
		if !strings.Contains(second.String(), "alice") {
			t.Errorf("%s: output missing row data:\n%s", format, second.String())
		}
	}
}

func TestRowWriter_MatchesFormat(t *testing.T) {
	for _, format := range []string{"csv", "json", "jsonl"} {
		var whole, streamed bytes.Buffer
		f, err := New(format, &whole)
		if err != nil {
			t.Fatalf("New(%q) error = %v", format, err)
		}
		if err := f.Format(peopleSchema, peopleRows()); err != nil {
			t.Fatalf("%s: Format() error = %v", format, err)
		}

		g, err := New(format, &streamed)
		if err != nil {
			t.Fatalf("New(%q) error = %v", format, err)
		}
		w, ok := g.(RowWriter)
		if !ok {
			t.Fatalf("%s formatter does not stream rows", format)
		}
		if err := w.Begin(peopleSchema); err != nil {
			t.Fatalf("%s: Begin() error = %v", format, err)
		}
		for _, row := range peopleRows() {
			if err := w.WriteRow(row); err != nil {
				t.Fatalf("%s: WriteRow() error = %v", format, err)
			}
		}
		if err := w.End(); err != nil {
			t.Fatalf("%s: End() error = %v", format, err)
		}

		if streamed.String() != whole.String() {
			t.Errorf("%s: streamed output\n%s\ndiffers from\n%s", format, streamed.String(), whole.String())
		}
	}
}

func TestRowWriter_JSONLWritesEachRow(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLFormatter(&buf)
	if err := w.Begin(peopleSchema); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if err := w.WriteRow(peopleRows()[0]); err != nil {
		t.Fatalf("WriteRow() error = %v", err)
	}
	if !strings.HasSuffix(buf.String(), "}\n") || !strings.Contains(buf.String(), "alice") {
		t.Errorf("row not written before End: %q", buf.String())
	}
}

func TestFormatter_Unbuffered(t *testing.T) {
	for _, format := range []string{"table", "yaml", "parquet"} {
		f, err := New(format, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("New(%q) error = %v", format, err)
		}
		if _, ok := f.(RowWriter); ok {
			t.Errorf("%s formatter unexpectedly streams rows", format)
		}
	}
}
