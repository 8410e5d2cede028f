package reader

import (
	"fmt"

	"github.com/vegasq/csvcat/qerr"
	"github.com/vegasq/csvcat/value"
)

// SampleSize is the number of data rows, after the header, used to infer
// column types.
const SampleSize = 10

// Rejection records the first sampled value that ruled a type out.
type Rejection struct {
	Type  value.ColumnType
	Row   int // 1-based position in the sample
	Value string
}

// ColumnReport explains how one column's type was chosen.
type ColumnReport struct {
	Name     string
	Type     value.ColumnType
	Sampled  int
	Empty    int
	Rejected []Rejection
}

// InferTypes chooses a type for every header column from the sample rows.
//
// For each column the candidates of value.InferenceOrder are tried in turn
// and the first one every non-empty sampled value parses under wins. Empty
// values never rule a candidate out. A column with no non-empty sampled
// value is String. The result depends only on header and sample.
func InferTypes(header []string, sample [][]string) (value.Schema, []ColumnReport, error) {
	seen := make(map[string]int, len(header))
	for i, name := range header {
		if j, dup := seen[name]; dup {
			return value.Schema{}, nil, qerr.Schema("duplicate column name %q at positions %d and %d", name, j+1, i+1)
		}
		seen[name] = i
	}

	for i, rec := range sample {
		if len(rec) != len(header) {
			return value.Schema{}, nil, fmt.Errorf("sample row %d: %w", i+1, qerr.FieldCount(0, len(header), len(rec)))
		}
	}

	columns := make([]value.Column, len(header))
	reports := make([]ColumnReport, len(header))
	for i, name := range header {
		report := inferColumn(name, i, sample)
		columns[i] = value.Column{Name: name, Type: report.Type}
		reports[i] = report
	}

	return value.NewSchema(columns...), reports, nil
}

// inferColumn runs the candidate types over column idx of the sample.
func inferColumn(name string, idx int, sample [][]string) ColumnReport {
	report := ColumnReport{Name: name, Type: value.String, Sampled: len(sample)}
	for _, rec := range sample {
		if rec[idx] == "" {
			report.Empty++
		}
	}
	if report.Empty == report.Sampled {
		return report
	}

	for _, candidate := range value.InferenceOrder {
		if candidate == value.String {
			break
		}
		if rej, ok := firstMisfit(candidate, idx, sample); ok {
			report.Rejected = append(report.Rejected, rej)
			continue
		}
		report.Type = candidate
		return report
	}
	return report
}

func firstMisfit(t value.ColumnType, idx int, sample [][]string) (Rejection, bool) {
	for row, rec := range sample {
		raw := rec[idx]
		if raw == "" {
			continue
		}
		if !value.Fits(raw, t) {
			return Rejection{Type: t, Row: row + 1, Value: raw}, true
		}
	}
	return Rejection{}, false
}
