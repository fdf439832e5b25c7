package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sheetstream/internal/config"
	"sheetstream/internal/worker"
	"sheetstream/internal/writer"
)

var version = "dev"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "sheetexport %s\n\n", version)
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  sheetexport -query 'SELECT ...' -out report.csv [flags]\n")
		fmt.Fprintf(os.Stderr, "  sheetexport -manifest jobs.yaml\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nThe output format follows the destination extension: %v (optionally .gz).\n", writer.SupportedExtensions())
		fmt.Fprintf(os.Stderr, "Destinations may be local paths, s3://bucket/key, ws:// or wss:// URLs.\n")
	}

	showVersion := flag.Bool("version", false, "Show version")
	manifestPath := flag.String("manifest", "", "YAML manifest of export jobs")
	source := flag.String("source", "", "Source kind: mysql, postgres, sqlite, mongo (default $SOURCE_KIND)")
	dsn := flag.String("dsn", "", "Source connection string (default $SOURCE_DSN)")
	query := flag.String("query", "", "Query to export")
	out := flag.String("out", "", "Destination path or URL")
	header := flag.Bool("header", true, "Write column names as the first row")
	delimiter := flag.String("delimiter", "", "Field delimiter (default $CSV_DELIMITER or ',')")
	enclosure := flag.String("enclosure", "", "Field enclosure (default $CSV_ENCLOSURE or '\"')")
	flag.Parse()

	if *showVersion {
		fmt.Printf("sheetexport %s\n", version)
		os.Exit(0)
	}

	_ = godotenv.Load()
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var manifest *config.Manifest
	var err error
	switch {
	case *manifestPath != "":
		manifest, err = config.LoadManifest(*manifestPath, cfg)
	case *query != "" || *out != "":
		manifest, err = config.NewManifest([]config.JobSpec{{
			Name:          "cli",
			Source:        *source,
			DSN:           *dsn,
			Query:         *query,
			Destination:   *out,
			IncludeHeader: *header,
			Delimiter:     *delimiter,
			Enclosure:     *enclosure,
		}}, cfg)
	default:
		err = errors.New("either -manifest or -query and -out are required")
	}
	if err != nil {
		slog.Error("Invalid job configuration", "error", err)
		flag.Usage()
		os.Exit(2)
	}

	if err := run(ctx, cfg, manifest); err != nil {
		slog.Error("Export failed", "error", err)
		os.Exit(1)
	}
}

// run executes unscheduled jobs once and then, if any job has a schedule,
// keeps running until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, manifest *config.Manifest) error {
	store, err := buildStorage(cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := worker.NewMetrics(reg)
	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("Metrics endpoint listening", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics endpoint failed", "error", err)
			}
		}()
		defer srv.Close()
	}

	pool := worker.NewPool(cfg.WorkerCount, cfg.MaxDBConcurrency, store, metrics)
	pool.Start()
	defer pool.Stop()

	scheduler := worker.NewScheduler(pool)
	var immediate []*worker.ExportJob
	for _, spec := range manifest.Jobs {
		newJob, err := jobFactory(spec)
		if err != nil {
			return err
		}
		if spec.Schedule != "" {
			if err := scheduler.Add(spec.Name, spec.Schedule, newJob); err != nil {
				return err
			}
			continue
		}
		job := newJob()
		if err := pool.Submit(job); err != nil {
			job.Cancel()
			return fmt.Errorf("job %s: %w", spec.Name, err)
		}
		immediate = append(immediate, job)
	}

	var errs []error
	for _, job := range immediate {
		if err := job.Wait(); err != nil {
			errs = append(errs, fmt.Errorf("job %s: %w", job.Name, err))
			continue
		}
		slog.Info("Export written",
			"job", job.Name,
			"destination", job.Destination,
			"url", store.URL(job.Destination),
			"rows", job.Stats.RowsProcessed,
		)
	}

	if scheduler.Len() > 0 {
		scheduler.Start(ctx)
		if next := scheduler.NextRun(); next != nil {
			slog.Info("Waiting for scheduled jobs", "next_run", next.Format(time.RFC3339))
		}
		<-ctx.Done()
		scheduler.Stop()
	}
	return errors.Join(errs...)
}
