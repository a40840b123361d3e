package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleDocument = `
job:
  name: weekly-reads
  schedule:
    cron: "0 7 * * 1"
    timezone: Europe/Amsterdam
  targets:
    - https://example.com/a
  feeds:
    - url: https://example.com/feed.xml
      limit: 5
  filter: 'host != "ads.example.com"'
  reader:
    locale: en-US
    no_cache: true
    retain_images: none
  dedupe:
    enabled: true
    ttl: 2w
  output:
    directory: out
    format: HTML
    email:
      to: me@example.com
`

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	job := doc.Job
	if job.Name != "weekly-reads" {
		t.Fatalf("Name = %q", job.Name)
	}
	if job.Schedule == nil || job.Schedule.Cron != "0 7 * * 1" {
		t.Fatalf("Schedule = %+v", job.Schedule)
	}
	if len(job.Feeds) != 1 || job.Feeds[0].Limit != 5 {
		t.Fatalf("Feeds = %+v", job.Feeds)
	}
	if job.Reader == nil || *job.Reader.Locale != "en-US" || !*job.Reader.NoCache || *job.Reader.RetainImages != "none" {
		t.Fatalf("Reader = %+v", job.Reader)
	}
	if job.Reader.WithIframe != nil {
		t.Fatalf("unset reader option should be nil")
	}
	if job.Dedupe.TTL.Std() != 14*24*time.Hour {
		t.Fatalf("Dedupe.TTL = %v", job.Dedupe.TTL.Std())
	}
	if job.Output.Format != FormatHTML {
		t.Fatalf("Format = %q, want html", job.Output.Format)
	}
	if job.Output.Email.Subject != "weekly-reads: pages read" {
		t.Fatalf("Subject = %q", job.Output.Email.Subject)
	}
}

func TestParseDocument_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":          ``,
		"unknown key":    "job:\n  targets: [https://a.example]\n  output: {stdout: true}\n  bogus: 1\n",
		"no targets":     "job:\n  output: {stdout: true}\n",
		"no output":      "job:\n  targets: [https://a.example]\n",
		"bad format":     "job:\n  targets: [https://a.example]\n  output: {stdout: true, format: pdf}\n",
		"bad timezone":   "job:\n  targets: [https://a.example]\n  schedule: {cron: '@daily', timezone: Mars/Olympus}\n  output: {stdout: true}\n",
		"missing cron":   "job:\n  targets: [https://a.example]\n  schedule: {timezone: UTC}\n  output: {stdout: true}\n",
		"bad email":      "job:\n  targets: [https://a.example]\n  output: {email: {to: nobody}}\n",
		"empty feed url": "job:\n  feeds: [{limit: 2}]\n  output: {stdout: true}\n",
		"bad ttl":        "job:\n  targets: [https://a.example]\n  dedupe: {enabled: true, ttl: forever}\n  output: {stdout: true}\n",
	}
	for name, raw := range cases {
		if _, err := ParseDocument([]byte(raw)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crawl.yaml")
	raw := "job:\n  targets: [https://a.example]\n  output: {stdout: true}\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument() error = %v", err)
	}
	if doc.Job.Name != "crawl" || doc.Job.Output.Format != FormatMarkdown {
		t.Fatalf("defaults not applied: %+v", doc.Job)
	}

	_, err = LoadDocument(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "missing.yaml") {
		t.Fatalf("expected missing file error, got %v", err)
	}
}
