package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bakkerme/curator-crawler/internal/crawler/jina"
)

// CrawlDocument is the top-level structure of a crawl.yaml file.
type CrawlDocument struct {
	Job Job `yaml:"job"`
}

// Job describes what to read, when, and where the pages go.
type Job struct {
	Name     string        `yaml:"name"`
	Schedule *Schedule     `yaml:"schedule,omitempty"`
	Targets  []string      `yaml:"targets,omitempty"`
	Feeds    []FeedSource  `yaml:"feeds,omitempty"`
	Filter   string        `yaml:"filter,omitempty"`
	Reader   *jina.Options `yaml:"reader,omitempty"`
	Dedupe   *DedupeConfig `yaml:"dedupe,omitempty"`
	Output   OutputConfig  `yaml:"output"`
}

type Schedule struct {
	Cron     string `yaml:"cron"`
	Timezone string `yaml:"timezone,omitempty"`
}

// FeedSource is an RSS/Atom feed whose item links become targets.
type FeedSource struct {
	URL   string `yaml:"url"`
	Limit int    `yaml:"limit,omitempty"`
}

type DedupeConfig struct {
	Enabled bool     `yaml:"enabled"`
	Path    string   `yaml:"path,omitempty"`
	TTL     Duration `yaml:"ttl,omitempty"`
}

type OutputConfig struct {
	Stdout    bool         `yaml:"stdout,omitempty"`
	Directory string       `yaml:"directory,omitempty"`
	Format    string       `yaml:"format,omitempty"` // markdown (default) or html
	Email     *EmailOutput `yaml:"email,omitempty"`
}

// EmailOutput sends one digest per run. Empty SMTP fields fall back to SMTP_* env values.
type EmailOutput struct {
	To           string `yaml:"to"`
	From         string `yaml:"from"`
	Subject      string `yaml:"subject,omitempty"`
	SMTPHost     string `yaml:"smtp_host,omitempty"`
	SMTPPort     int    `yaml:"smtp_port,omitempty"`
	SMTPUser     string `yaml:"smtp_user,omitempty"`
	SMTPPassword string `yaml:"smtp_password,omitempty"`
	TLSMode      string `yaml:"tls_mode,omitempty"`
}

const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// LoadDocument reads and validates a crawl document from path.
func LoadDocument(path string) (*CrawlDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDocument(data)
}

// ParseDocument decodes a crawl document, rejecting unknown keys.
func ParseDocument(data []byte) (*CrawlDocument, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc CrawlDocument
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse crawl document: document is empty")
		}
		return nil, fmt.Errorf("parse crawl document: %w", err)
	}
	doc.applyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *CrawlDocument) applyDefaults() {
	if d.Job.Name == "" {
		d.Job.Name = "crawl"
	}
	d.Job.Output.Format = strings.ToLower(strings.TrimSpace(d.Job.Output.Format))
	if d.Job.Output.Format == "" {
		d.Job.Output.Format = FormatMarkdown
	}
	if e := d.Job.Output.Email; e != nil && e.Subject == "" {
		e.Subject = fmt.Sprintf("%s: pages read", d.Job.Name)
	}
}

// Validate reports the first problem found in the document.
func (d *CrawlDocument) Validate() error {
	job := d.Job
	if len(job.Targets) == 0 && len(job.Feeds) == 0 {
		return fmt.Errorf("job %q needs at least one target or feed", job.Name)
	}
	for i, target := range job.Targets {
		if strings.TrimSpace(target) == "" {
			return fmt.Errorf("targets[%d] is empty", i)
		}
	}
	for i, feed := range job.Feeds {
		if strings.TrimSpace(feed.URL) == "" {
			return fmt.Errorf("feeds[%d].url is required", i)
		}
		if feed.Limit < 0 {
			return fmt.Errorf("feeds[%d].limit must be >= 0", i)
		}
	}
	if s := job.Schedule; s != nil {
		if strings.TrimSpace(s.Cron) == "" {
			return fmt.Errorf("schedule.cron is required when schedule is set")
		}
		if s.Timezone != "" {
			if _, err := time.LoadLocation(s.Timezone); err != nil {
				return fmt.Errorf("schedule.timezone: %w", err)
			}
		}
	}
	if job.Dedupe != nil && job.Dedupe.TTL < 0 {
		return fmt.Errorf("dedupe.ttl must be >= 0")
	}

	out := job.Output
	switch out.Format {
	case FormatMarkdown, FormatHTML:
	default:
		return fmt.Errorf("output.format %q is not supported (expected markdown or html)", out.Format)
	}
	if !out.Stdout && out.Directory == "" && out.Email == nil {
		return fmt.Errorf("job %q has no output configured", job.Name)
	}
	if e := out.Email; e != nil {
		if _, err := mail.ParseAddressList(e.To); err != nil {
			return fmt.Errorf("output.email.to: %w", err)
		}
		if e.From != "" {
			if _, err := mail.ParseAddress(e.From); err != nil {
				return fmt.Errorf("output.email.from: %w", err)
			}
		}
		if e.SMTPPort < 0 {
			return fmt.Errorf("output.email.smtp_port must be positive")
		}
	}
	return nil
}
