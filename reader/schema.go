package reader

import (
	"fmt"
)

// SchemaInfo describes one inferred column of a CSV file.
type SchemaInfo struct {
	Name     string   `json:"name" yaml:"name"`
	Type     string   `json:"type" yaml:"type"`
	Sampled  int      `json:"sampled" yaml:"sampled"`
	Empty    int      `json:"empty" yaml:"empty"`
	Rejected []string `json:"rejected,omitempty" yaml:"rejected,omitempty"`
}

// ExtractSchemaInfo infers the schema of a CSV file and explains it.
//
// Only the header and the first SampleSize data rows are read. For every
// column the result lists the chosen type and, for each more specific type
// that was ruled out, the sampled value that ruled it out.
func ExtractSchemaInfo(path string) ([]SchemaInfo, error) {
	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	if err := src.Infer(); err != nil {
		return nil, fmt.Errorf("failed to infer schema: %w", err)
	}

	reports := src.Reports()
	infos := make([]SchemaInfo, len(reports))
	for i, r := range reports {
		infos[i] = SchemaInfo{
			Name:    r.Name,
			Type:    r.Type.String(),
			Sampled: r.Sampled,
			Empty:   r.Empty,
		}
		for _, rej := range r.Rejected {
			infos[i].Rejected = append(infos[i].Rejected,
				fmt.Sprintf("%s: %q (sample row %d)", rej.Type, rej.Value, rej.Row))
		}
	}
	return infos, nil
}
