package writer

import (
	"path"
	"strings"

	"sheetstream/internal/exporter"
)

// BackendFactory creates a fresh backend for one writer.
type BackendFactory func() exporter.Backend

// backends maps lowercase extensions to their backend. It is read-only.
var backends = map[string]BackendFactory{
	"csv":    func() exporter.Backend { return exporter.NewCSVBackend() },
	"xlsx":   func() exporter.Backend { return exporter.NewExcelBackend() },
	"jsonl":  func() exporter.Backend { return exporter.NewJSONBackend() },
	"ndjson": func() exporter.Backend { return exporter.NewJSONBackend() },
	"pdf":    func() exporter.Backend { return exporter.NewPDFBackend() },
}

// SupportedExtensions lists the extensions CreateFromDestination accepts.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(backends))
	for ext := range backends {
		exts = append(exts, ext)
	}
	return exts
}

// CreateFromDestination returns an unopened writer whose backend matches the
// extension of dest, compared case-insensitively. A ".gz" suffix on a known
// extension enables compression. No I/O happens here.
func CreateFromDestination(dest string, opts ...Option) (*Writer, error) {
	ext, compressed := Extension(dest)
	factory, ok := backends[ext]
	if !ok {
		return nil, &UnsupportedFormatError{Extension: ext}
	}
	if compressed {
		opts = append(opts, WithCompression(true))
	}
	return New(factory(), opts...)
}

// Extension returns the lowercase format extension of dest without the dot,
// and whether it carried a ".gz" suffix on top of a known format.
func Extension(dest string) (ext string, compressed bool) {
	// destinations may be URLs; only the last path segment matters
	if i := strings.IndexAny(dest, "?#"); i >= 0 && strings.Contains(dest, "://") {
		dest = dest[:i]
	}
	base := strings.ToLower(path.Base(strings.ReplaceAll(dest, `\`, "/")))

	ext = strings.TrimPrefix(path.Ext(base), ".")
	if ext == "gz" {
		inner := strings.TrimPrefix(path.Ext(strings.TrimSuffix(base, ".gz")), ".")
		if _, ok := backends[inner]; ok {
			return inner, true
		}
	}
	return ext, false
}
