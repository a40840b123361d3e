package core

import "time"

// Target is a URL queued for reading, with whatever the discovering source knew about it.
type Target struct {
	URL         string    `json:"url" yaml:"url"`
	Title       string    `json:"title,omitempty" yaml:"title,omitempty"`
	Source      string    `json:"source" yaml:"source"` // "static" or the feed URL
	Excerpt     string    `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty" yaml:"published_at,omitempty"`
}

const SourceStatic = "static"

// Page is the reader output for one Target.
type Page struct {
	Target    Target        `json:"target" yaml:"target"`
	Content   string        `json:"content" yaml:"content"`
	HTML      string        `json:"html,omitempty" yaml:"html,omitempty"`
	FetchedAt time.Time     `json:"fetched_at" yaml:"fetched_at"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`
}

// TargetError records a failure that did not abort the run.
type TargetError struct {
	URL        string    `json:"url" yaml:"url"`
	Stage      string    `json:"stage" yaml:"stage"`
	Error      string    `json:"error" yaml:"error"`
	OccurredAt time.Time `json:"occurred_at" yaml:"occurred_at"`
}

// Run represents a single execution of a crawl job.
type Run struct {
	ID          string        `json:"id" yaml:"id"`
	JobName     string        `json:"job_name" yaml:"job_name"`
	StartedAt   time.Time     `json:"started_at" yaml:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Status      RunStatus     `json:"status" yaml:"status"`
	Pages       []*Page       `json:"pages,omitempty" yaml:"pages,omitempty"`
	Skipped     []string      `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Errors      []TargetError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)
