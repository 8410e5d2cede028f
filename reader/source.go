package reader

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/vegasq/csvcat/qerr"
)

// Format identifies the layout of a data source.
type Format int

const (
	FormatCSV Format = iota
	FormatJSON
)

// ErrUnsupportedFormat is the cause of the IOError returned for sources
// csvcat recognises but cannot query yet.
var ErrUnsupportedFormat = errors.New("source format not supported yet")

// DetectFormat picks the source format from the path's extension.
// Anything that is not JSON is read as CSV.
func DetectFormat(path string) Format {
	ext := strings.ToLower(filepath.Ext(strings.TrimSuffix(strings.ToLower(path), ".gz")))
	switch ext {
	case ".json", ".jsonl", ".ndjson":
		return FormatJSON
	default:
		return FormatCSV
	}
}

var gzipMagic = []byte{0x1f, 0x8b}

// openText opens path and returns a text stream over its contents.
// Gzip input is decompressed, a UTF-8 or UTF-16 byte order mark is
// consumed, and UTF-16 input is converted to UTF-8. Anything else passes
// through untouched, invalid UTF-8 included; records are validated when
// read. The returned closers must be closed in order.
func openText(path string) (io.Reader, []io.Closer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, qerr.IO(path, "cannot open", err)
	}
	closers := []io.Closer{file}

	buffered := bufio.NewReader(file)
	var r io.Reader = buffered

	head, err := buffered.Peek(len(gzipMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		_ = file.Close()
		return nil, nil, qerr.IO(path, "cannot read", err)
	}
	if len(head) == len(gzipMagic) && head[0] == gzipMagic[0] && head[1] == gzipMagic[1] {
		gz, err := gzip.NewReader(buffered)
		if err != nil {
			_ = file.Close()
			return nil, nil, qerr.IO(path, "invalid gzip stream in", err)
		}
		r = gz
		closers = append([]io.Closer{gz}, closers...)
	}

	decoder := unicode.BOMOverride(transform.Nop)
	return transform.NewReader(r, decoder), closers, nil
}
