package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetstream/internal/config"
)

func TestParseHeaders(t *testing.T) {
	h := parseHeaders([]string{"Authorization=Bearer abc", "broken", " X-Tenant = acme "})
	assert.Equal(t, "Bearer abc", h.Get("Authorization"))
	assert.Equal(t, "acme", h.Get("X-Tenant"))
	assert.Len(t, h, 2)
}

func TestBuildStorage(t *testing.T) {
	cfg := &config.Config{StorageType: "local", AWSRegion: "us-east-1"}
	router, err := buildStorage(cfg)
	require.NoError(t, err)
	for _, dest := range []string{"out.csv", "s3://bucket/out.csv", "wss://host/ingest"} {
		_, err := router.Resolve(dest)
		assert.NoError(t, err, dest)
	}

	_, err = buildStorage(&config.Config{StorageType: "s3"})
	assert.Error(t, err, "s3 fallback needs a bucket")

	_, err = buildStorage(&config.Config{StorageType: "ftp"})
	assert.Error(t, err)
}

func TestWriterOptions(t *testing.T) {
	off := false
	opts, err := writerOptions(config.JobSpec{Delimiter: ";", Enclosure: "#", BOM: &off, Columns: []string{"a"}})
	require.NoError(t, err)
	assert.Len(t, opts, 4)

	_, err = writerOptions(config.JobSpec{Delimiter: ";;"})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, parseLevel("loud"))
}

func TestRun_SingleExport(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "app.db")
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE t (a TEXT, b INTEGER)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO t VALUES ('x;y', 1), ('#z', 2)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	cfg := &config.Config{
		StorageType:      "local",
		LocalStoragePath: dir,
		AWSRegion:        "us-east-1",
		WorkerCount:      1,
		MaxDBConcurrency: 1,
		DefaultTimeout:   time.Minute,
	}
	off := false
	manifest, err := config.NewManifest([]config.JobSpec{{
		Name:          "cli",
		Source:        "sqlite",
		DSN:           dsn,
		Query:         "SELECT a, b FROM t ORDER BY b",
		Destination:   "out.csv",
		IncludeHeader: true,
		Delimiter:     ";",
		Enclosure:     "#",
		BOM:           &off,
	}}, cfg)
	require.NoError(t, err)

	require.NoError(t, run(context.Background(), cfg, manifest))

	data, err := os.ReadFile(filepath.Join(dir, "out.csv"))
	require.NoError(t, err)
	assert.Equal(t, "a;b\n#x;y#;1\n###z#;2\n", string(data))
}

func TestRun_FailedJob(t *testing.T) {
	cfg := &config.Config{StorageType: "local", LocalStoragePath: t.TempDir(), AWSRegion: "us-east-1", DefaultTimeout: time.Minute}
	manifest, err := config.NewManifest([]config.JobSpec{{
		Name:        "broken",
		Source:      "sqlite",
		DSN:         filepath.Join(t.TempDir(), "empty.db"),
		Query:       "SELECT * FROM nothing",
		Destination: "out.csv",
	}}, cfg)
	require.NoError(t, err)
	assert.Error(t, run(context.Background(), cfg, manifest))
}
