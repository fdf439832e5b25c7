package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"sheetstream/internal/config"
	"sheetstream/internal/storage"
	"sheetstream/internal/worker"
	"sheetstream/internal/writer"
)

// buildStorage routes destinations by scheme. Plain paths go to the local
// filesystem, or to S3Bucket when StorageType is "s3".
func buildStorage(cfg *config.Config) (*storage.Router, error) {
	local := storage.NewLocalProvider(cfg.LocalStoragePath)
	s3Client := storage.NewS3Client(cfg.AWSRegion, cfg.S3Endpoint, cfg.S3PathStyle, cfg.S3AccessKey, cfg.S3SecretKey)
	s3 := storage.NewS3Provider(s3Client, cfg.S3Bucket)
	ws := storage.NewWebSocketProvider(parseHeaders(cfg.WebSocketHeaders))

	var fallback storage.Provider
	switch cfg.StorageType {
	case "local", "":
		fallback = local
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("STORAGE_TYPE=s3 requires S3_BUCKET")
		}
		fallback = s3
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.StorageType)
	}

	return storage.NewRouter(fallback).
		Handle("s3", s3).
		Handle("ws", ws).
		Handle("wss", ws), nil
}

// parseHeaders turns "Key=Value" pairs into a header set. Malformed pairs are skipped.
func parseHeaders(pairs []string) http.Header {
	h := make(http.Header)
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			slog.Warn("Ignoring malformed websocket header", "value", pair)
			continue
		}
		h.Add(strings.TrimSpace(k), strings.TrimSpace(v))
	}
	return h
}

// writerOptions converts a job definition into writer options.
func writerOptions(spec config.JobSpec) ([]writer.Option, error) {
	var opts []writer.Option
	if spec.Delimiter != "" {
		r, err := config.SingleRune(spec.Delimiter)
		if err != nil {
			return nil, err
		}
		opts = append(opts, writer.WithDelimiter(r))
	}
	if spec.Enclosure != "" {
		r, err := config.SingleRune(spec.Enclosure)
		if err != nil {
			return nil, err
		}
		opts = append(opts, writer.WithEnclosure(r))
	}
	if spec.BOM != nil {
		opts = append(opts, writer.WithBOM(*spec.BOM))
	}
	if spec.UseCRLF != nil {
		opts = append(opts, writer.WithCRLF(*spec.UseCRLF))
	}
	if spec.FormulaGuard != nil {
		opts = append(opts, writer.WithFormulaGuard(*spec.FormulaGuard))
	}
	if spec.SheetName != "" {
		opts = append(opts, writer.WithSheetName(spec.SheetName))
	}
	if len(spec.Columns) > 0 {
		opts = append(opts, writer.WithColumns(spec.Columns...))
	}
	return opts, nil
}

// jobFactory returns a constructor for fresh jobs built from spec.
func jobFactory(spec config.JobSpec) (func() *worker.ExportJob, error) {
	opts, err := writerOptions(spec)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", spec.Name, err)
	}
	return func() *worker.ExportJob {
		job := worker.NewExportJob(spec.Name, spec.Source, spec.DSN, spec.Query, spec.Destination, spec.Timeout)
		job.IncludeHeader = spec.IncludeHeader
		job.WriterOptions = opts
		return job
	}, nil
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
