package factory

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/bakkerme/curator-crawler/internal/config"
	"github.com/bakkerme/curator-crawler/internal/crawler"
	"github.com/bakkerme/curator-crawler/internal/crawler/jina"
	"github.com/bakkerme/curator-crawler/internal/dedupe"
	"github.com/bakkerme/curator-crawler/internal/filter"
	"github.com/bakkerme/curator-crawler/internal/observability/otelx"
	"github.com/bakkerme/curator-crawler/internal/outputs"
	"github.com/bakkerme/curator-crawler/internal/outputs/email"
	"github.com/bakkerme/curator-crawler/internal/outputs/email/smtp"
	"github.com/bakkerme/curator-crawler/internal/runner"
	"github.com/bakkerme/curator-crawler/internal/sources/rss"
	rssimpl "github.com/bakkerme/curator-crawler/internal/sources/rss/impl"
	"github.com/bakkerme/curator-crawler/internal/trigger"
)

const defaultSeenFile = "seen.db"

type Factory struct {
	Logger       *slog.Logger
	Env          config.EnvConfig
	Transport    crawler.Transport
	RSSFetcher   rss.Fetcher
	SMTPDefaults config.SMTPEnvConfig
	// EmailSender overrides the SMTP sender built from the document. Tests set it.
	EmailSender email.Sender
	Stdout      io.Writer
}

func NewFromEnvConfig(logger *slog.Logger, env config.EnvConfig) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	jinaClient := &http.Client{
		Timeout:   env.Jina.HTTPTimeout,
		Transport: otelx.NewTransport(http.DefaultTransport, "jina.http", env.Jina.OTel),
	}
	rssClient := &http.Client{
		Timeout:   env.RSS.HTTPTimeout,
		Transport: otelx.NewTransport(http.DefaultTransport, "rss.http", config.HTTPOTelEnvConfig{}),
	}
	return &Factory{
		Logger:       logger,
		Env:          env,
		Transport:    crawler.NewHTTPTransport(jinaClient, env.Jina.UserAgent, env.Jina.APIKey),
		RSSFetcher:   rssimpl.NewFetcher(rssClient, env.RSS.UserAgent),
		SMTPDefaults: env.SMTP,
		Stdout:       stdoutWriter(),
	}
}

// NewReader builds the Jina reader with env options overridden by overrides.
func (f *Factory) NewReader(overrides *jina.Options) *jina.Reader {
	options := f.Env.Jina.Options.Merge(overrides)
	return jina.NewReader(f.Env.Jina.BaseURL, options, f.Transport, f.Logger)
}

// NewJob wires every component doc.Job asks for. The returned cleanup releases
// the seen store and must be called once the job is no longer used.
func (f *Factory) NewJob(doc *config.CrawlDocument) (*runner.Job, func() error, error) {
	if doc == nil {
		return nil, nil, fmt.Errorf("crawl document is required")
	}
	spec := doc.Job
	noop := func() error { return nil }

	job := &runner.Job{
		Name:       spec.Name,
		Targets:    spec.Targets,
		Feeds:      spec.Feeds,
		Crawler:    f.NewReader(spec.Reader),
		FeedReader: f.RSSFetcher,
		RenderHTML: spec.Output.Format == config.FormatHTML || spec.Output.Email != nil,
	}

	if spec.Filter != "" {
		rule, err := filter.Compile(spec.Filter)
		if err != nil {
			return nil, nil, fmt.Errorf("job %q: %w", spec.Name, err)
		}
		job.Filter = rule
	}

	if spec.Schedule != nil {
		cron, err := trigger.NewCron(spec.Schedule.Cron, spec.Schedule.Timezone)
		if err != nil {
			return nil, nil, fmt.Errorf("job %q: %w", spec.Name, err)
		}
		job.Trigger = cron
	}

	outs, err := f.newOutputs(spec)
	if err != nil {
		return nil, nil, fmt.Errorf("job %q: %w", spec.Name, err)
	}
	job.Outputs = outs

	cleanup := noop
	if spec.Dedupe != nil && spec.Dedupe.Enabled {
		store, err := f.newSeenStore(spec)
		if err != nil {
			return nil, nil, fmt.Errorf("job %q: %w", spec.Name, err)
		}
		job.Seen = store
		cleanup = store.Close
	}
	return job, cleanup, nil
}

func (f *Factory) newOutputs(spec config.Job) ([]outputs.Output, error) {
	html := spec.Output.Format == config.FormatHTML
	var outs []outputs.Output
	if spec.Output.Stdout {
		outs = append(outs, outputs.NewStream(f.Stdout, html))
	}
	if spec.Output.Directory != "" {
		dir, err := outputs.NewDirectory(spec.Output.Directory, html)
		if err != nil {
			return nil, err
		}
		outs = append(outs, dir)
	}
	if cfg := spec.Output.Email; cfg != nil {
		sender := f.EmailSender
		if sender == nil {
			smtpSender, err := smtp.NewSender(f.mergeSMTPConfig(cfg))
			if err != nil {
				return nil, err
			}
			sender = smtpSender
		}
		from := cfg.From
		if from == "" {
			from = f.SMTPDefaults.User
		}
		digest, err := email.NewDigest(from, cfg.To, cfg.Subject, sender)
		if err != nil {
			return nil, err
		}
		outs = append(outs, digest)
	}
	return outs, nil
}

func (f *Factory) mergeSMTPConfig(cfg *config.EmailOutput) smtp.Config {
	merged := smtp.Config{
		Host:               cfg.SMTPHost,
		Port:               cfg.SMTPPort,
		Username:           cfg.SMTPUser,
		Password:           cfg.SMTPPassword,
		TLSMode:            cfg.TLSMode,
		InsecureSkipVerify: f.SMTPDefaults.InsecureSkipVerify,
	}
	if merged.Host == "" {
		merged.Host = f.SMTPDefaults.Host
	}
	if merged.Port == 0 {
		merged.Port = f.SMTPDefaults.Port
	}
	if merged.Username == "" {
		merged.Username = f.SMTPDefaults.User
	}
	if merged.Password == "" {
		merged.Password = f.SMTPDefaults.Password
	}
	if merged.TLSMode == "" {
		merged.TLSMode = f.SMTPDefaults.TLSMode
	}
	return merged
}

// newSeenStore prefers the document path and ttl, then SEEN_DB_PATH and SEEN_TTL.
func (f *Factory) newSeenStore(spec config.Job) (*dedupe.SQLiteStore, error) {
	path := spec.Dedupe.Path
	if path == "" {
		path = f.Env.Seen.DBPath
	}
	if path == "" {
		path = filepath.Join(".", defaultSeenFile)
	}
	ttl := spec.Dedupe.TTL.Std()
	if ttl == 0 {
		ttl = f.Env.Seen.TTL
	}
	return dedupe.NewSQLiteStore(path, ttl)
}
