package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bakkerme/curator-crawler/internal/core"
	"github.com/bakkerme/curator-crawler/internal/observability/metrics"
	"github.com/bakkerme/curator-crawler/internal/render"
	"github.com/bakkerme/curator-crawler/internal/sources/rss"
)

type Runner struct {
	logger  *slog.Logger
	metrics *metrics.CrawlMetrics
	now     func() time.Time

	// mu keeps scheduled runs of one job from overlapping.
	mu sync.Mutex
}

func New(logger *slog.Logger, m *metrics.CrawlMetrics) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger, metrics: m, now: time.Now}
}

// Start runs job each time its trigger fires, until ctx ends. The returned
// channel closes once the trigger has stopped and the last run has returned.
func (r *Runner) Start(ctx context.Context, job *Job) (<-chan struct{}, error) {
	if job == nil {
		return nil, fmt.Errorf("job is required")
	}
	if job.Trigger == nil {
		return nil, fmt.Errorf("job %q has no schedule", job.Name)
	}
	events, err := job.Trigger.Start(ctx, job.Name)
	if err != nil {
		return nil, err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range events {
			r.logger.Info("trigger event", slog.String("job_name", event.JobName), slog.Time("time", event.Timestamp))
			if _, err := r.RunOnce(ctx, job); err != nil {
				r.logger.Error("crawl run failed", slog.String("job_name", job.Name), slog.String("error", err.Error()))
			}
		}
	}()
	return done, nil
}

// RunOnce reads every target of job once. Per-target failures are recorded on the
// run; only output failures and cancellation fail the run itself.
func (r *Runner) RunOnce(ctx context.Context, job *Job) (*core.Run, error) {
	if job == nil {
		return nil, fmt.Errorf("job is required")
	}
	if job.Crawler == nil {
		return nil, fmt.Errorf("job %q has no crawler", job.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	startedAt := r.now().UTC()
	run := &core.Run{
		ID:        fmt.Sprintf("run-%d", startedAt.UnixNano()),
		JobName:   job.Name,
		StartedAt: startedAt,
		Status:    core.RunStatusRunning,
	}
	logger := r.logger.With(slog.String("job_name", job.Name), slog.String("run_id", run.ID))
	ctx = core.WithLogger(core.WithRunID(core.WithJobName(ctx, job.Name), run.ID), logger)

	targets := r.collect(ctx, job, run)
	logger.Info("crawl run started", slog.Int("targets", len(targets)))

	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return r.finish(run, core.RunStatusCancelled, err)
		}
		if !r.admit(ctx, job, run, target) {
			continue
		}
		r.read(ctx, job, run, target)
	}

	for _, out := range job.Outputs {
		if err := out.Deliver(ctx, run); err != nil {
			return r.finish(run, core.RunStatusFailed, fmt.Errorf("output %s: %w", out.Name(), err))
		}
	}

	if job.Seen != nil && len(run.Pages) > 0 {
		urls := make([]string, 0, len(run.Pages))
		for _, page := range run.Pages {
			urls = append(urls, page.Target.URL)
		}
		// Delivered pages are marked even if ctx was cancelled during delivery.
		if err := job.Seen.Mark(context.WithoutCancel(ctx), urls...); err != nil {
			logger.Warn("failed to mark pages as seen", slog.String("error", err.Error()))
		}
	}

	logger.Info("crawl run completed",
		slog.Int("pages", len(run.Pages)),
		slog.Int("skipped", len(run.Skipped)),
		slog.Int("errors", len(run.Errors)),
	)
	return r.finish(run, core.RunStatusCompleted, nil)
}

// collect returns static targets followed by feed links, first occurrence of a URL wins.
func (r *Runner) collect(ctx context.Context, job *Job, run *core.Run) []core.Target {
	logger := core.LoggerFromContextOr(ctx, r.logger)
	seen := map[string]bool{}
	targets := []core.Target{}
	add := func(t core.Target) {
		t.URL = strings.TrimSpace(t.URL)
		if t.URL == "" || seen[t.URL] {
			return
		}
		seen[t.URL] = true
		targets = append(targets, t)
	}

	for _, u := range job.Targets {
		add(core.Target{URL: u, Source: core.SourceStatic})
	}

	for _, feed := range job.Feeds {
		if job.FeedReader == nil {
			r.recordError(run, feed.URL, "source", errors.New("no feed reader configured"))
			continue
		}
		items, err := job.FeedReader.Fetch(ctx, feed.URL, rss.FetchOptions{Limit: feed.Limit})
		if err != nil {
			logger.Warn("feed fetch failed", slog.String("feed", feed.URL), slog.String("error", err.Error()))
			r.recordError(run, feed.URL, "source", err)
			continue
		}
		for _, item := range items {
			excerpt, err := rss.Excerpt(item.Description, excerptRunes)
			if err != nil {
				excerpt = ""
			}
			add(core.Target{
				URL:         item.Link,
				Title:       item.Title,
				Source:      feed.URL,
				Excerpt:     excerpt,
				PublishedAt: item.PublishedAt,
			})
		}
	}
	return targets
}

// admit applies the filter rule and the seen store.
func (r *Runner) admit(ctx context.Context, job *Job, run *core.Run, target core.Target) bool {
	keep, err := job.Filter.Keep(target)
	if err != nil {
		r.recordError(run, target.URL, "filter", err)
		r.metrics.ObserveDropped(metrics.StatusFailed)
		return false
	}
	if !keep {
		run.Skipped = append(run.Skipped, target.URL)
		r.metrics.ObserveDropped(metrics.StatusFiltered)
		return false
	}
	if job.Seen == nil {
		return true
	}
	seen, err := job.Seen.Seen(ctx, target.URL)
	if err != nil {
		core.LoggerFromContextOr(ctx, r.logger).Warn("seen lookup failed, reading anyway",
			slog.String("url", target.URL), slog.String("error", err.Error()))
		return true
	}
	if seen {
		run.Skipped = append(run.Skipped, target.URL)
		r.metrics.ObserveDropped(metrics.StatusSkipped)
		return false
	}
	return true
}

func (r *Runner) read(ctx context.Context, job *Job, run *core.Run, target core.Target) {
	logger := core.LoggerFromContextOr(ctx, r.logger)
	started := r.now()
	content, err := job.Crawler.Run(ctx, target.URL)
	elapsed := r.now().Sub(started)
	if err != nil {
		logger.Warn("failed to read target", slog.String("url", target.URL), slog.Duration("elapsed", elapsed), slog.String("error", err.Error()))
		r.metrics.ObserveRead(metrics.StatusFailed, elapsed, 0)
		r.recordError(run, target.URL, "read", err)
		return
	}
	logger.Info("read target", slog.String("url", target.URL), slog.Duration("elapsed", elapsed), slog.Int("bytes", len(content)))
	r.metrics.ObserveRead(metrics.StatusOK, elapsed, len(content))

	page := &core.Page{
		Target:    target,
		Content:   content,
		FetchedAt: started.UTC(),
		Elapsed:   elapsed,
	}
	if job.RenderHTML {
		html, err := render.HTML(content)
		if err != nil {
			r.recordError(run, target.URL, "render", err)
		} else {
			page.HTML = html
		}
	}
	run.Pages = append(run.Pages, page)
}

func (r *Runner) recordError(run *core.Run, url, stage string, err error) {
	run.Errors = append(run.Errors, core.TargetError{
		URL:        url,
		Stage:      stage,
		Error:      err.Error(),
		OccurredAt: r.now().UTC(),
	})
}

func (r *Runner) finish(run *core.Run, status core.RunStatus, err error) (*core.Run, error) {
	completedAt := r.now().UTC()
	run.CompletedAt = &completedAt
	run.Status = status
	r.metrics.ObserveRun(string(status), completedAt)
	return run, err
}
