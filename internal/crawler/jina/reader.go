// Package jina reads pages through the Jina reader (https://jina.ai/reader/).
package jina

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/bakkerme/curator-crawler/internal/core"
	"github.com/bakkerme/curator-crawler/internal/crawler"
)

const BaseURL = "https://r.jina.ai/"

// InjectPageScript is sent with every request to strip page chrome before extraction.
const InjectPageScript = "// Remove headers, footers, navigation elements\n" +
	"document.querySelectorAll('header, footer, nav').forEach(el => el.remove());\n" +
	"\n" +
	"// Or a url that returns a valid JavaScript code snippet\n" +
	"// https://example.com/script.js"

const invalidTargetMessage = "target url error, please check the target URL"

type readRequest struct {
	URL              string   `json:"url"`
	InjectPageScript []string `json:"injectPageScript"`
}

// Reader is a crawler.Crawler backed by the Jina reader endpoint.
type Reader struct {
	endpoint  string
	options   Options
	transport crawler.Transport
	logger    *slog.Logger
}

var _ crawler.Crawler = (*Reader)(nil)

// NewReader builds a Reader. An empty endpoint selects BaseURL.
func NewReader(endpoint string, options Options, transport crawler.Transport, logger *slog.Logger) *Reader {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = BaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		endpoint:  endpoint,
		options:   options,
		transport: transport,
		logger:    logger,
	}
}

func (r *Reader) Run(ctx context.Context, targetURL string) (string, error) {
	if r.transport.PreCheck(targetURL) {
		return "", crawler.InvalidInput(invalidTargetMessage)
	}

	ctx, span := otel.Tracer("curator-crawler/crawler/jina").Start(ctx, "jina.read")
	span.SetAttributes(
		attribute.String("jina.endpoint", r.endpoint),
		attribute.String("jina.target_url", targetURL),
		attribute.String("job.name", core.JobNameFromContext(ctx)),
		attribute.String("run.id", core.RunIDFromContext(ctx)),
	)
	defer span.End()

	page, err := r.send(ctx, targetURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("jina.response_bytes", len(page)))
	span.SetStatus(codes.Ok, "")
	return page, nil
}

func (r *Reader) send(ctx context.Context, targetURL string) (string, error) {
	logger := core.LoggerFromContextOr(ctx, r.logger)
	logger.Info("jina reader request", slog.String("url", r.endpoint))

	conn, err := r.transport.Open(ctx, r.endpoint, r.headers())
	if err != nil {
		return "", requestFailed(err)
	}

	body, err := requestBody(targetURL)
	if err != nil {
		_ = conn.Close()
		return "", requestFailed(err)
	}
	logger.Info("jina reader request body", slog.String("body", string(body)))

	w := bufio.NewWriter(conn)
	if _, err := w.Write(body); err != nil {
		_ = conn.Close()
		return "", requestFailed(err)
	}
	if err := w.Flush(); err != nil {
		_ = conn.Close()
		return "", requestFailed(err)
	}
	if err := conn.Close(); err != nil {
		return "", requestFailed(err)
	}

	return r.transport.ReadResponse(ctx, conn)
}

// headers returns the optional reader headers for the configured options.
func (r *Reader) headers() map[string]string {
	return r.options.headers()
}

func requestBody(targetURL string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(readRequest{
		URL:              targetURL,
		InjectPageScript: []string{InjectPageScript},
	})
	if err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func requestFailed(err error) error {
	return crawler.TransportFailure("jina reader request failed", err)
}
