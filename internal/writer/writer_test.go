package writer

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetstream/internal/exporter"
	"sheetstream/internal/sheet"
)

// memProvider keeps every destination in memory and records what actually
// reached it, i.e. bytes that left the writer's buffer.
type memProvider struct {
	files     map[string]*memFile
	createErr error
	nilWriter bool
	closeErr  error
}

type memFile struct {
	bytes.Buffer
	contentType string
	closed      int
	closeErr    error
}

func (f *memFile) Close() error {
	f.closed++
	return f.closeErr
}

func newMemProvider() *memProvider {
	return &memProvider{files: make(map[string]*memFile)}
}

func (p *memProvider) Create(_ context.Context, key, contentType string) (io.WriteCloser, error) {
	if p.createErr != nil {
		return nil, p.createErr
	}
	if p.nilWriter {
		return nil, nil
	}
	f := &memFile{contentType: contentType, closeErr: p.closeErr}
	p.files[key] = f
	return f, nil
}

func (p *memProvider) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, ok := p.files[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(f.Bytes())), nil
}

func (p *memProvider) URL(key string) string { return "mem://" + key }

// stubBackend counts hook calls and can fail on a given row.
type stubBackend struct {
	opens, rows, closes int
	failOnRow           int // 1-based, 0 disables
	closeErr            error
}

func (b *stubBackend) Open(io.Writer, exporter.Options) error { b.opens++; return nil }

func (b *stubBackend) WriteRow(sink io.Writer, row sheet.Row) error {
	b.rows++
	if b.rows == b.failOnRow {
		return errors.New("encode failed")
	}
	_, err := io.WriteString(sink, strings.Join(row.Values(), "|")+"\n")
	return err
}

func (b *stubBackend) Close(io.Writer) error { b.closes++; return b.closeErr }

func (b *stubBackend) ContentType() string { return "text/plain" }

func TestWriter_AddRowBeforeOpen(t *testing.T) {
	w, err := CreateFromDestination("x.csv")
	require.NoError(t, err)

	err = w.AddRow(sheet.NewRow("a"))
	assert.ErrorIs(t, err, ErrWriterNotOpened)
	err = w.AddRows([]sheet.Row{sheet.NewRow("a")})
	assert.ErrorIs(t, err, ErrWriterNotOpened)
}

func TestWriter_CloseWithoutOpen(t *testing.T) {
	b := &stubBackend{}
	w, err := New(b, WithStorage(newMemProvider()))
	require.NoError(t, err)

	w.Close()
	w.Close()
	assert.Equal(t, StateCreated, w.State())
	assert.Zero(t, b.closes)
	assert.NoError(t, w.Err())
}

func TestWriter_CloseTwice(t *testing.T) {
	mem := newMemProvider()
	b := &stubBackend{}
	w, err := New(b, WithStorage(mem))
	require.NoError(t, err)

	require.NoError(t, w.Open("out.txt"))
	require.NoError(t, w.AddRow(sheet.NewRow("a")))
	w.Close()
	w.Close()

	assert.Equal(t, StateClosed, w.State())
	assert.Equal(t, 1, b.closes)
	assert.Equal(t, 1, mem.files["out.txt"].closed)
	assert.NoError(t, w.Err())
}

func TestWriter_AddRowAfterClose(t *testing.T) {
	w, err := New(&stubBackend{}, WithStorage(newMemProvider()))
	require.NoError(t, err)
	require.NoError(t, w.Open("out.txt"))
	w.Close()

	assert.ErrorIs(t, w.AddRow(sheet.NewRow("late")), ErrWriterNotOpened)
}

func TestWriter_OpenTwice(t *testing.T) {
	w, err := New(&stubBackend{}, WithStorage(newMemProvider()))
	require.NoError(t, err)

	require.NoError(t, w.Open("a.txt"))
	assert.ErrorIs(t, w.Open("b.txt"), ErrAlreadyOpened)
	assert.Equal(t, "a.txt", w.Destination())
	assert.Equal(t, StateOpened, w.State())

	w.Close()
	assert.ErrorIs(t, w.Open("c.txt"), ErrWriterClosed)
}

func TestWriter_FlushThreshold(t *testing.T) {
	mem := newMemProvider()
	w, err := CreateFromDestination("big.csv", WithStorage(mem))
	require.NoError(t, err)
	require.NoError(t, w.Open("big.csv"))
	defer w.Close()

	dest := mem.files["big.csv"]
	for i := 1; i < FlushThreshold; i++ {
		require.NoError(t, w.AddRow(sheet.NewRow("row", i)))
	}
	assert.Zero(t, dest.Len(), "nothing reaches the destination before the threshold")
	assert.Zero(t, w.Flushes())

	require.NoError(t, w.AddRow(sheet.NewRow("row", FlushThreshold)))
	assert.Equal(t, 1, w.Flushes())
	assert.Equal(t, FlushThreshold, w.RowCount())

	lines := strings.Count(dest.String(), "\n")
	assert.Equal(t, FlushThreshold, lines, "all buffered rows are flushed")

	require.NoError(t, w.AddRow(sheet.NewRow("row", 501)))
	assert.Equal(t, 1, w.Flushes())
}

func TestWriter_CloseResetsRowCount(t *testing.T) {
	w, err := New(&stubBackend{}, WithStorage(newMemProvider()))
	require.NoError(t, err)
	require.NoError(t, w.Open("x"))
	require.NoError(t, w.AddRows([]sheet.Row{sheet.NewRow(1), sheet.NewRow(2)}))
	assert.Equal(t, 2, w.RowCount())

	w.Close()
	assert.Zero(t, w.RowCount())
}

func TestWriter_AddRowsStopsAtFirstFailure(t *testing.T) {
	mem := newMemProvider()
	b := &stubBackend{failOnRow: 2}
	w, err := New(b, WithStorage(mem))
	require.NoError(t, err)
	require.NoError(t, w.Open("out.txt"))

	err = w.AddRows([]sheet.Row{
		sheet.NewRow("first"),
		sheet.NewRow("second"),
		sheet.NewRow("third"),
	})
	require.Error(t, err)

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "write", ioErr.Op)
	assert.Equal(t, 2, b.rows, "third row is never attempted")
	assert.Equal(t, 1, w.RowCount())

	w.Close()
	assert.Equal(t, "first\n", mem.files["out.txt"].String(), "rows before the failure are kept")
}

func TestWriter_UnwritableDestination(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	dest := filepath.Join(blocker, "out.csv")

	w, err := CreateFromDestination(dest)
	require.NoError(t, err)

	err = w.Open(dest)
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "open", ioErr.Op)
	assert.Equal(t, dest, ioErr.Path)
	assert.Equal(t, StateCreated, w.State())
	assert.Equal(t, err, w.Err())

	assert.ErrorIs(t, w.AddRow(sheet.NewRow("a")), ErrWriterNotOpened)
	w.Close()
}

func TestWriter_SilentAcquisitionFailure(t *testing.T) {
	mem := newMemProvider()
	mem.nilWriter = true
	w, err := New(&stubBackend{}, WithStorage(mem))
	require.NoError(t, err)

	var ioErr *IOError
	assert.ErrorAs(t, w.Open("ghost"), &ioErr)
	assert.Equal(t, StateCreated, w.State())
}

func TestWriter_CloseFailureIsRecorded(t *testing.T) {
	mem := newMemProvider()
	mem.closeErr = errors.New("upload rejected")
	b := &stubBackend{}
	w, err := New(b, WithStorage(mem))
	require.NoError(t, err)
	require.NoError(t, w.Open("out.txt"))
	require.NoError(t, w.AddRow(sheet.NewRow("a")))

	w.Close()

	assert.Equal(t, StateClosed, w.State())
	var ioErr *IOError
	require.ErrorAs(t, w.Err(), &ioErr)
	assert.Equal(t, "close", ioErr.Op)
	assert.ErrorIs(t, w.Err(), mem.closeErr)
}

func TestWriter_ContentTypeReachesStorage(t *testing.T) {
	mem := newMemProvider()
	w, err := CreateFromDestination("report.xlsx", WithStorage(mem))
	require.NoError(t, err)
	require.NoError(t, w.Open("report.xlsx"))
	w.Close()

	assert.Equal(t, exporter.ContentTypeXLSX, mem.files["report.xlsx"].contentType)
	assert.Equal(t, exporter.ContentTypeXLSX, w.ContentType())
}

func TestWriter_ZeroRowsFile(t *testing.T) {
	dir := t.TempDir()

	withBOM := filepath.Join(dir, "bom.csv")
	w, err := CreateFromDestination(withBOM)
	require.NoError(t, err)
	require.NoError(t, w.Open(withBOM))
	w.Close()
	data, err := os.ReadFile(withBOM)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, data)

	plain := filepath.Join(dir, "plain.csv")
	w, err = CreateFromDestination(plain, WithBOM(false))
	require.NoError(t, err)
	require.NoError(t, w.Open(plain))
	w.Close()
	data, err = os.ReadFile(plain)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func writeCSVFile(t *testing.T, rows []sheet.Row, opts ...Option) string {
	t.Helper()
	dest := filepath.Join(t.TempDir(), "out.csv")
	w, err := CreateFromDestination(dest, opts...)
	require.NoError(t, err)
	require.NoError(t, w.Open(dest))
	require.NoError(t, w.AddRows(rows))
	w.Close()
	require.NoError(t, w.Err())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	return strings.TrimPrefix(string(data), "\xEF\xBB\xBF")
}

func TestWriter_CSVScenarios(t *testing.T) {
	tests := []struct {
		name string
		rows []sheet.Row
		opts []Option
		want string
	}{
		{
			name: "simple row",
			rows: []sheet.Row{sheet.NewRow("csv--11", "csv--12")},
			want: "csv--11,csv--12\n",
		},
		{
			name: "null cell",
			rows: []sheet.Row{sheet.NewRow("csv--11", nil, "csv--13")},
			want: "csv--11,,csv--13\n",
		},
		{
			name: "should not skip empty rows",
			rows: []sheet.Row{
				sheet.NewRow("csv--11", "csv--12"),
				sheet.NewRow(),
				sheet.NewRow("csv--31", "csv--32"),
			},
			want: "csv--11,csv--12\n\ncsv--31,csv--32\n",
		},
		{
			name: "custom enclosure",
			rows: []sheet.Row{sheet.NewRow("This is, a comma", "csv--12", "csv--13")},
			opts: []Option{WithEnclosure('#')},
			want: "#This is, a comma#,csv--12,csv--13\n",
		},
		{
			name: "enclosure doubled",
			rows: []sheet.Row{sheet.NewRow(`"csv--11"`)},
			want: "\"\"\"csv--11\"\"\"\n",
		},
		{
			name: "semicolon delimiter",
			rows: []sheet.Row{sheet.NewRow("a;b", "c")},
			opts: []Option{WithDelimiter(';')},
			want: "\"a;b\";c\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, writeCSVFile(t, tt.rows, tt.opts...))
		})
	}
}

func TestWriter_CSVRoundTrip(t *testing.T) {
	want := [][]string{
		{"id", "name", "note"},
		{"1", "O'Brien", `said "hi"`},
		{"2", "Smith, John", "multi\nline"},
		{"3", "", "  padded  "},
	}
	var rows []sheet.Row
	for _, r := range want {
		rows = append(rows, sheet.NewRowFromStrings(r))
	}
	for i := 0; i < 1200; i++ {
		r := []string{"n", strings.Repeat("x", i%7), "tail,with,commas"}
		want = append(want, r)
		rows = append(rows, sheet.NewRowFromStrings(r))
	}

	out := writeCSVFile(t, rows)
	got, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWriter_GzipDestination(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.CSV.gz")
	w, err := CreateFromDestination(dest, WithBOM(false))
	require.NoError(t, err)
	require.NoError(t, w.Open(dest))
	for i := 0; i < 1000; i++ {
		require.NoError(t, w.AddRow(sheet.NewRow("r", i)))
	}
	w.Close()
	require.NoError(t, w.Err())

	f, err := os.Open(dest)
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 1000)
	assert.Equal(t, "r,0", lines[0])
	assert.Equal(t, "r,999", lines[999])
}

func TestWriter_NewRejectsBadInput(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(&stubBackend{}, WithStorage(nil))
	assert.Error(t, err)

	_, err = New(&stubBackend{}, WithDelimiter('"'))
	assert.ErrorIs(t, err, exporter.ErrInvalidOptions)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "created", StateCreated.String())
	assert.Equal(t, "opened", StateOpened.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "unknown", State(9).String())
}
