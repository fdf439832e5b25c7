package writer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetstream/internal/exporter"
)

func TestCreateFromDestination_SelectsBackend(t *testing.T) {
	tests := []struct {
		dest        string
		contentType string
	}{
		{"out.csv", exporter.ContentTypeCSV},
		{"OUT.CSV", exporter.ContentTypeCSV},
		{"dir/Report.Xlsx", exporter.ContentTypeXLSX},
		{"events.jsonl", exporter.ContentTypeJSONL},
		{"events.ndjson", exporter.ContentTypeJSONL},
		{"summary.pdf", exporter.ContentTypePDF},
		{"s3://bucket/exports/out.csv", exporter.ContentTypeCSV},
		{"wss://collector.example/ingest/out.csv?token=abc", exporter.ContentTypeCSV},
		{`C:\exports\out.csv`, exporter.ContentTypeCSV},
	}
	for _, tt := range tests {
		t.Run(tt.dest, func(t *testing.T) {
			w, err := CreateFromDestination(tt.dest)
			require.NoError(t, err)
			assert.Equal(t, tt.contentType, w.ContentType())
			assert.Equal(t, StateCreated, w.State(), "factory never opens")
		})
	}
}

func TestCreateFromDestination_Unsupported(t *testing.T) {
	tests := []struct {
		dest string
		ext  string
	}{
		{"x.unknown", "unknown"},
		{"x.ODS", "ods"},
		{"noextension", ""},
		{"archive.gz", "gz"},
		{"data.tar.gz", "gz"},
	}
	for _, tt := range tests {
		t.Run(tt.dest, func(t *testing.T) {
			w, err := CreateFromDestination(tt.dest)
			assert.Nil(t, w)

			var unsupported *UnsupportedFormatError
			require.ErrorAs(t, err, &unsupported)
			assert.Equal(t, tt.ext, unsupported.Extension)
			if tt.ext != "" {
				assert.Contains(t, err.Error(), tt.ext)
			}
		})
	}
}

func TestCreateFromDestination_InvalidOptions(t *testing.T) {
	_, err := CreateFromDestination("out.csv", WithEnclosure('\n'))
	assert.ErrorIs(t, err, exporter.ErrInvalidOptions)
}

func TestExtension(t *testing.T) {
	tests := []struct {
		in         string
		ext        string
		compressed bool
	}{
		{"a.csv", "csv", false},
		{"a.csv.gz", "csv", true},
		{"a.XLSX.GZ", "xlsx", true},
		{"a.gz", "gz", false},
		{"dir.csv/file", "", false},
		{"https://host/path/file.jsonl#frag", "jsonl", false},
	}
	for _, tt := range tests {
		ext, compressed := Extension(tt.in)
		assert.Equal(t, tt.ext, ext, tt.in)
		assert.Equal(t, tt.compressed, compressed, tt.in)
	}
}

func TestSupportedExtensions(t *testing.T) {
	assert.ElementsMatch(t, []string{"csv", "xlsx", "jsonl", "ndjson", "pdf"}, SupportedExtensions())
}
