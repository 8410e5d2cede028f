package reader

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/vegasq/csvcat/qerr"
	"github.com/vegasq/csvcat/value"
)

// writeCSV writes content to a temporary file and returns its path.
func writeCSV(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

// drain reads every row from src, returning the rows and the final error.
func drain(src *CSVSource) ([]value.Row, []int, error) {
	var rows []value.Row
	var lines []int
	for src.Next() {
		rows = append(rows, src.Row())
		lines = append(lines, src.Line())
	}
	return rows, lines, src.Err()
}

func TestOpen_Orders(t *testing.T) {
	src, err := Open("testdata/orders.csv")
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	require.NoError(t, src.Infer())
	assert.Equal(t, "userId String, id Int64, amount Float64, dateTime DateTime", src.Schema().String())
	assert.Equal(t, []string{"userId", "id", "amount", "dateTime"}, src.Header())

	rows, lines, err := drain(src)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []int{2, 3, 4}, lines)

	assert.Equal(t, "102a", rows[2][0].AsString())
	assert.Equal(t, int64(3), rows[2][1].AsInt())
	assert.Equal(t, 64.0, rows[2][2].AsFloat())
	assert.Equal(t, time.Date(2023, 2, 14, 12, 37, 0, 0, time.UTC), rows[2][3].AsTime())
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.csv"))
	require.ErrorIs(t, err, qerr.ErrIO)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpen_JSONNotSupported(t *testing.T) {
	for _, name := range []string{"data.json", "data.JSONL", "data.ndjson.gz"} {
		_, err := Open(name)
		require.ErrorIs(t, err, qerr.ErrIO, name)
		assert.ErrorIs(t, err, ErrUnsupportedFormat, name)
	}
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatCSV, DetectFormat("a.csv"))
	assert.Equal(t, FormatCSV, DetectFormat("a.csv.gz"))
	assert.Equal(t, FormatCSV, DetectFormat("data"))
	assert.Equal(t, FormatJSON, DetectFormat("a.json"))
}

func TestCSVSource_ShortRow(t *testing.T) {
	src, err := Open("testdata/short_row.csv")
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	require.NoError(t, src.Infer())
	assert.Equal(t, "id Int64, name String, score Float64", src.Schema().String())

	rows, _, err := drain(src)
	require.Error(t, err)
	assert.Len(t, rows, 1, "rows before the bad line are yielded, none after")

	var qe *qerr.Error
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, qerr.KindRowDecode, qe.Kind)
	assert.Equal(t, 3, qe.Line)
	assert.Equal(t, "3", qe.Expected)
	assert.Equal(t, "2", qe.Actual)

	assert.False(t, src.Next(), "source stays stopped after an error")
}

func TestCSVSource_LongRow(t *testing.T) {
	path := writeCSV(t, "long.csv", []byte("a,b\n1,2\n3,4,5\n"))
	src, err := Open(path)
	require.NoError(t, err)

	_, _, err = drain(src)
	var qe *qerr.Error
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, 3, qe.Line)
	assert.Equal(t, "3", qe.Actual)
}

func TestCSVSource_ValueBeyondSampleFails(t *testing.T) {
	var b strings.Builder
	b.WriteString("id,name\n")
	for i := 1; i <= SampleSize; i++ {
		b.WriteString("1,x\n")
	}
	b.WriteString("abc,y\n")
	path := writeCSV(t, "drift.csv", []byte(b.String()))

	src, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, src.Infer())
	assert.Equal(t, value.Int64, src.Schema().Column(0).Type)

	rows, _, err := drain(src)
	assert.Len(t, rows, SampleSize)

	var qe *qerr.Error
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, qerr.KindRowDecode, qe.Kind)
	assert.Equal(t, SampleSize+2, qe.Line)
	assert.Equal(t, "id", qe.Column)
	assert.Equal(t, "abc", qe.Actual)
}

func TestCSVSource_QuotedFields(t *testing.T) {
	src, err := Open("testdata/quoted.csv")
	require.NoError(t, err)

	rows, lines, err := drain(src)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, "comma, inside", rows[1][1].AsString())
	assert.Equal(t, "line one\nline two", rows[2][1].AsString())
	assert.Equal(t, `say "hi"`, rows[3][1].AsString())
	assert.Equal(t, []int{2, 3, 4, 6}, lines)
}

func TestCSVSource_BlankLineInMultiColumnFile(t *testing.T) {
	src, err := Open(writeCSV(t, "blank.csv", []byte("a,b\n1,2\n\n3,4\n")))
	require.NoError(t, err)

	require.NoError(t, src.Infer())
	assert.Equal(t, "a Int64, b Int64", src.Schema().String())

	rows, _, err := drain(src)
	assert.Equal(t, []value.Row{{value.Int(1), value.Int(2)}}, rows)

	var qe *qerr.Error
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, qerr.KindRowDecode, qe.Kind)
	assert.Equal(t, 3, qe.Line)
	assert.Equal(t, "2", qe.Expected)
	assert.Equal(t, "1", qe.Actual)
}

func TestCSVSource_BlankLineInSingleColumnFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		schema  string
		middle  value.Value
	}{
		{"strings", "name\nx\n\ny\n", "name String", value.Str("")},
		{"integers", "n\n1\n\n3\n", "n Int64", value.Null()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Open(writeCSV(t, tt.name+".csv", []byte(tt.content)))
			require.NoError(t, err)

			rows, lines, err := drain(src)
			require.NoError(t, err)
			assert.Equal(t, tt.schema, src.Schema().String())
			require.Len(t, rows, 3)
			assert.Equal(t, tt.middle, rows[1][0])
			assert.Equal(t, []int{2, 3, 4}, lines)
		})
	}
}

func TestCSVSource_BlankLinesAroundContent(t *testing.T) {
	src, err := Open(writeCSV(t, "edges.csv", []byte("\n\nid,note\n1,\"a\nb\"\n2,c\n\n\n")))
	require.NoError(t, err)

	rows, lines, err := drain(src)
	require.NoError(t, err, "leading and trailing blank lines are not rows")
	assert.Equal(t, []string{"id", "note"}, src.Header())
	require.Len(t, rows, 2)
	assert.Equal(t, []int{4, 6}, lines)
}

func TestCSVSource_InvalidUTF8(t *testing.T) {
	src, err := Open(writeCSV(t, "latin1.csv", []byte("name\nann\nna\xefve\n")))
	require.NoError(t, err)

	rows, _, err := drain(src)
	assert.Len(t, rows, 1)

	var qe *qerr.Error
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, qerr.KindRowDecode, qe.Kind)
	assert.Equal(t, 3, qe.Line)
	assert.Contains(t, err.Error(), "invalid UTF-8")
}

func TestCSVSource_InvalidUTF8Header(t *testing.T) {
	src, err := Open(writeCSV(t, "header.csv", []byte("n\xe4me\nann\n")))
	require.NoError(t, err)

	err = src.Infer()
	var qe *qerr.Error
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, qerr.KindRowDecode, qe.Kind)
	assert.Equal(t, 1, qe.Line)
}

func TestCSVSource_MalformedQuote(t *testing.T) {
	path := writeCSV(t, "bad.csv", []byte("a,b\n1,2\n3,\"unterminated\n"))
	src, err := Open(path)
	require.NoError(t, err)

	rows, _, err := drain(src)
	assert.Len(t, rows, 1)
	var qe *qerr.Error
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, qerr.KindRowDecode, qe.Kind)
	assert.Equal(t, 3, qe.Line)
}

func TestCSVSource_EmptyFile(t *testing.T) {
	src, err := Open(writeCSV(t, "empty.csv", nil))
	require.NoError(t, err)

	err = src.Infer()
	assert.ErrorIs(t, err, qerr.ErrSchema)
	assert.False(t, src.Next())
}

func TestCSVSource_HeaderOnly(t *testing.T) {
	src, err := Open(writeCSV(t, "header.csv", []byte("a,b,c\n")))
	require.NoError(t, err)

	require.NoError(t, src.Infer())
	assert.Equal(t, "a String, b String, c String", src.Schema().String())
	assert.False(t, src.Next())
	assert.NoError(t, src.Err())
}

func TestCSVSource_DuplicateHeader(t *testing.T) {
	src, err := Open(writeCSV(t, "dup.csv", []byte("a,b,a\n1,2,3\n")))
	require.NoError(t, err)
	assert.ErrorIs(t, src.Infer(), qerr.ErrSchema)
}

func TestCSVSource_EmptyFields(t *testing.T) {
	path := writeCSV(t, "nulls.csv", []byte("id,name,flag\n1,,true\n,bob,\n3,carol,false\n"))
	src, err := Open(path)
	require.NoError(t, err)

	rows, _, err := drain(src)
	require.NoError(t, err)
	assert.Equal(t, "id Int64, name String, flag Boolean", src.Schema().String())

	assert.True(t, rows[1][0].IsNull(), "empty Int64 field is Null")
	assert.True(t, rows[1][2].IsNull(), "empty Boolean field is Null")
	assert.False(t, rows[0][1].IsNull(), "empty String field is the empty string")
	assert.Equal(t, "", rows[0][1].AsString())
}

func TestCSVSource_NextInfersImplicitly(t *testing.T) {
	src, err := Open("testdata/orders.csv")
	require.NoError(t, err)

	require.True(t, src.Next())
	assert.Equal(t, 4, src.Schema().Len())
	require.NoError(t, src.Close())
	assert.False(t, src.Next())
	assert.NoError(t, src.Close(), "Close is idempotent")
}

func TestCSVSource_Gzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("id,v\n1,2.5\n2,3.5\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	src, err := Open(writeCSV(t, "data.csv.gz", buf.Bytes()))
	require.NoError(t, err)

	rows, _, err := drain(src)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, "id Int64, v Float64", src.Schema().String())
}

func TestCSVSource_ByteOrderMarks(t *testing.T) {
	text := "name,age\nann,31\n"

	utf8BOM := append([]byte{0xEF, 0xBB, 0xBF}, text...)

	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	utf16, err := enc.Bytes([]byte(text))
	require.NoError(t, err)

	for name, content := range map[string][]byte{"utf8.csv": utf8BOM, "utf16.csv": utf16} {
		t.Run(name, func(t *testing.T) {
			src, err := Open(writeCSV(t, name, content))
			require.NoError(t, err)
			rows, _, err := drain(src)
			require.NoError(t, err)
			assert.Equal(t, []string{"name", "age"}, src.Header())
			assert.Equal(t, "name String, age Int64", src.Schema().String())
			require.Len(t, rows, 1)
			assert.Equal(t, "ann", rows[0][0].AsString())
		})
	}
}
