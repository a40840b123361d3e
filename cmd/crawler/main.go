package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bakkerme/curator-crawler/internal/config"
	"github.com/bakkerme/curator-crawler/internal/observability/metrics"
	"github.com/bakkerme/curator-crawler/internal/observability/otelx"
	"github.com/bakkerme/curator-crawler/internal/render"
	"github.com/bakkerme/curator-crawler/internal/runner"
	"github.com/bakkerme/curator-crawler/internal/runner/factory"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	env := config.LoadEnv()

	configPath := flag.String("config", env.ConfigPath, "path to crawl document")
	targetURL := flag.String("url", "", "read a single URL and print it")
	runOnce := flag.Bool("run-once", env.RunOnce, "run once and exit")
	format := flag.String("format", "", "output format override (markdown or html)")
	flag.Parse()

	logger := newLogger(env.LogLevel, env.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := otelx.Init(ctx, logger, env.OTel)
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", slog.String("error", err.Error()))
		}
	}()

	f := factory.NewFromEnvConfig(logger, env)

	if *targetURL != "" {
		if err := readOne(ctx, f, *targetURL, *format); err != nil {
			return fmt.Errorf("read failed: %w", err)
		}
		return nil
	}

	if *configPath == "" {
		return errors.New("either -url or -config is required")
	}
	doc, err := config.LoadDocument(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}
	if *format != "" {
		doc.Job.Output.Format = strings.ToLower(*format)
		if err := doc.Validate(); err != nil {
			return fmt.Errorf("invalid document: %w", err)
		}
	}

	job, cleanup, err := f.NewJob(doc)
	if err != nil {
		return fmt.Errorf("failed to build job: %w", err)
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.Warn("cleanup failed", slog.String("error", err.Error()))
		}
	}()

	crawlMetrics := metrics.NewCrawlMetrics(job.Name)
	if env.MetricsAddr != "" {
		srv := serveMetrics(logger, env.MetricsAddr, crawlMetrics.Handler())
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	r := runner.New(logger, crawlMetrics)

	if *runOnce || job.Trigger == nil {
		result, err := r.RunOnce(ctx, job)
		if err != nil {
			return fmt.Errorf("run failed: %w", err)
		}
		if len(result.Errors) > 0 {
			logger.Warn("run finished with errors", slog.Int("errors", len(result.Errors)))
		}
		return nil
	}

	done, err := r.Start(ctx, job)
	if err != nil {
		return fmt.Errorf("failed to start runner: %w", err)
	}

	<-ctx.Done()
	// The seen store is closed by cleanup, so the in-flight run must finish first.
	<-done
	return nil
}

func readOne(ctx context.Context, f *factory.Factory, targetURL, format string) error {
	content, err := f.NewReader(nil).Run(ctx, targetURL)
	if err != nil {
		return err
	}
	if strings.EqualFold(format, config.FormatHTML) {
		content, err = render.HTML(content)
		if err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(os.Stdout, content)
	return err
}

func serveMetrics(logger *slog.Logger, addr string, handler http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("metrics listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()
	return srv
}

func newLogger(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
