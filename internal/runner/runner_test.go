package runner

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bakkerme/curator-crawler/internal/config"
	"github.com/bakkerme/curator-crawler/internal/core"
	"github.com/bakkerme/curator-crawler/internal/crawler"
	"github.com/bakkerme/curator-crawler/internal/filter"
	"github.com/bakkerme/curator-crawler/internal/outputs"
	"github.com/bakkerme/curator-crawler/internal/sources/rss"
	rssmock "github.com/bakkerme/curator-crawler/internal/sources/rss/mock"
	"github.com/bakkerme/curator-crawler/internal/trigger"
)

type fakeCrawler struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
	calls []string
}

func (c *fakeCrawler) Run(ctx context.Context, targetURL string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, targetURL)
	if err, ok := c.errs[targetURL]; ok {
		return "", err
	}
	return c.pages[targetURL], nil
}

type memorySeen struct {
	urls   map[string]bool
	marked []string
}

func (m *memorySeen) Seen(ctx context.Context, url string) (bool, error) { return m.urls[url], nil }

func (m *memorySeen) Mark(ctx context.Context, urls ...string) error {
	m.marked = append(m.marked, urls...)
	return nil
}

func (m *memorySeen) Close() error { return nil }

type recordingOutput struct {
	runs chan *core.Run
	err  error
}

func (o *recordingOutput) Name() string { return "recording" }

func (o *recordingOutput) Deliver(ctx context.Context, run *core.Run) error {
	if o.runs != nil {
		o.runs <- run
	}
	return o.err
}

func TestRunOnceEndToEnd(t *testing.T) {
	crawl := &fakeCrawler{
		pages: map[string]string{
			"https://example.com/static": "# Static",
			"https://example.com/post":   "# Post",
		},
		errs: map[string]error{
			"https://example.com/broken": crawler.TransportFailure("jina reader request failed", errors.New("timeout")),
		},
	}
	feeds := &rssmock.Fetcher{
		ItemsByFeed: map[string][]rss.Item{
			"https://example.com/feed.xml": {
				{Title: "Post", Link: "https://example.com/post", Description: "<p>hello</p>"},
				{Title: "Dup", Link: "https://example.com/static"},
				{Title: "Ads", Link: "https://ads.example.com/x"},
				{Title: "Broken", Link: "https://example.com/broken"},
				{Title: "Old", Link: "https://example.com/old"},
			},
		},
		ErrByFeed: map[string]error{"https://example.com/down.xml": errors.New("503")},
	}
	rule, err := filter.Compile(`host != "ads.example.com"`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	seen := &memorySeen{urls: map[string]bool{"https://example.com/old": true}}
	var stdout bytes.Buffer

	job := &Job{
		Name:       "test",
		Targets:    []string{"https://example.com/static", " "},
		Feeds:      []config.FeedSource{{URL: "https://example.com/feed.xml"}, {URL: "https://example.com/down.xml"}},
		Crawler:    crawl,
		FeedReader: feeds,
		Filter:     rule,
		Seen:       seen,
		RenderHTML: true,
		Outputs:    []outputs.Output{outputs.NewStream(&stdout, false)},
	}

	run, err := New(nil, nil).RunOnce(context.Background(), job)
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if run.Status != core.RunStatusCompleted || run.CompletedAt == nil {
		t.Fatalf("unexpected run status %q", run.Status)
	}
	if len(run.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(run.Pages))
	}
	if run.Pages[0].Target.Source != core.SourceStatic || run.Pages[1].Target.Excerpt != "hello" {
		t.Fatalf("unexpected targets: %+v / %+v", run.Pages[0].Target, run.Pages[1].Target)
	}
	if !strings.Contains(run.Pages[1].HTML, "<h1") {
		t.Fatalf("expected rendered html, got %q", run.Pages[1].HTML)
	}
	if got := strings.Join(run.Skipped, ","); got != "https://ads.example.com/x,https://example.com/old" {
		t.Fatalf("skipped = %s", got)
	}
	if len(run.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %+v", run.Errors)
	}
	stages := map[string]string{}
	for _, e := range run.Errors {
		stages[e.URL] = e.Stage
	}
	if stages["https://example.com/down.xml"] != "source" || stages["https://example.com/broken"] != "read" {
		t.Fatalf("unexpected error stages: %v", stages)
	}
	if len(crawl.calls) != 3 {
		t.Fatalf("expected 3 reader calls, got %v", crawl.calls)
	}
	if strings.Join(seen.marked, ",") != "https://example.com/static,https://example.com/post" {
		t.Fatalf("marked = %v", seen.marked)
	}
	if !strings.Contains(stdout.String(), "# Post") {
		t.Fatalf("stdout missing page: %q", stdout.String())
	}
}

func TestRunOnceOutputFailureFailsRun(t *testing.T) {
	crawl := &fakeCrawler{pages: map[string]string{"https://example.com": "x"}}
	seen := &memorySeen{urls: map[string]bool{}}
	job := &Job{
		Name:    "fail",
		Targets: []string{"https://example.com"},
		Crawler: crawl,
		Seen:    seen,
		Outputs: []outputs.Output{&recordingOutput{err: errors.New("disk full")}},
	}
	run, err := New(nil, nil).RunOnce(context.Background(), job)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected output error, got %v", err)
	}
	if run.Status != core.RunStatusFailed {
		t.Fatalf("status = %q, want failed", run.Status)
	}
	if len(seen.marked) != 0 {
		t.Fatalf("pages must not be marked seen when delivery fails")
	}
}

func TestRunOnceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	job := &Job{Name: "c", Targets: []string{"https://example.com"}, Crawler: &fakeCrawler{}}
	run, err := New(nil, nil).RunOnce(ctx, job)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if run.Status != core.RunStatusCancelled {
		t.Fatalf("status = %q", run.Status)
	}
}

func TestRunOnceRequiresCrawler(t *testing.T) {
	if _, err := New(nil, nil).RunOnce(context.Background(), &Job{Name: "x"}); err == nil {
		t.Fatalf("expected error without crawler")
	}
	if _, err := New(nil, nil).RunOnce(context.Background(), nil); err == nil {
		t.Fatalf("expected error without job")
	}
}

func TestStartRunsOnSchedule(t *testing.T) {
	cron, err := trigger.NewCron("@every 1s", "")
	if err != nil {
		t.Fatalf("NewCron() error = %v", err)
	}
	out := &recordingOutput{runs: make(chan *core.Run, 4)}
	job := &Job{
		Name:    "scheduled",
		Targets: []string{"https://example.com"},
		Crawler: &fakeCrawler{pages: map[string]string{"https://example.com": "x"}},
		Outputs: []outputs.Output{out},
		Trigger: cron,
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done, err := New(nil, nil).Start(ctx, job)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	select {
	case run := <-out.runs:
		if run.JobName != "scheduled" || len(run.Pages) != 1 {
			t.Fatalf("unexpected run: %+v", run)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for scheduled run")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("done channel not closed after cancel")
	}
}

// blockingOutput holds delivery until release is closed.
type blockingOutput struct {
	started chan struct{}
	release chan struct{}
}

func (o *blockingOutput) Name() string { return "blocking" }

func (o *blockingOutput) Deliver(ctx context.Context, run *core.Run) error {
	close(o.started)
	<-o.release
	return nil
}

func TestStartDoneWaitsForInFlightRun(t *testing.T) {
	cron, err := trigger.NewCron("@every 1s", "")
	if err != nil {
		t.Fatalf("NewCron() error = %v", err)
	}
	out := &blockingOutput{started: make(chan struct{}), release: make(chan struct{})}
	seen := &memorySeen{urls: map[string]bool{}}
	job := &Job{
		Name:    "inflight",
		Targets: []string{"https://example.com"},
		Crawler: &fakeCrawler{pages: map[string]string{"https://example.com": "x"}},
		Seen:    seen,
		Outputs: []outputs.Output{out},
		Trigger: cron,
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done, err := New(nil, nil).Start(ctx, job)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	select {
	case <-out.started:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for delivery")
	}

	cancel()
	select {
	case <-done:
		t.Fatalf("done closed while a run was still delivering")
	case <-time.After(100 * time.Millisecond):
	}

	close(out.release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("done channel not closed after run finished")
	}
	if len(seen.marked) != 1 {
		t.Fatalf("delivered page must be marked seen despite cancellation, got %v", seen.marked)
	}
}

func TestStartRequiresTrigger(t *testing.T) {
	if _, err := New(nil, nil).Start(context.Background(), &Job{Name: "x"}); err == nil {
		t.Fatalf("expected error without trigger")
	}
}
