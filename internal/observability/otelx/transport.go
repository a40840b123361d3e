package otelx

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/bakkerme/curator-crawler/internal/config"
)

// Transport is an http.RoundTripper that opens a client span per request and can
// record a bounded copy of the response body on it.
type Transport struct {
	base http.RoundTripper
	cfg  config.HTTPOTelEnvConfig
	name string
}

func NewTransport(base http.RoundTripper, name string, cfg config.HTTPOTelEnvConfig) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if name == "" {
		name = "http.client"
	}
	return &Transport{base: base, cfg: cfg, name: name}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, span := otel.Tracer("curator-crawler/http").Start(req.Context(), t.name, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("http.request.method", req.Method),
		attribute.String("url.full", req.URL.String()),
		attribute.String("server.address", req.URL.Host),
	)

	req = req.Clone(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	res, err := t.base.RoundTrip(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		return res, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", res.StatusCode))
	if res.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, res.Status)
	}

	if res.Body == nil {
		span.End()
		return res, nil
	}
	capture := t.cfg.CaptureBodies && span.IsRecording()
	res.Body = &spanBody{
		rc:       res.Body,
		capture:  capture,
		maxBytes: t.cfg.MaxBodyBytes,
		onClose: func(body []byte, truncated bool) {
			if capture {
				span.SetAttributes(
					attribute.String("http.response.body", toValidUTF8(body)),
					attribute.Bool("http.response.body.truncated", truncated),
				)
			}
			span.End()
		},
	}
	return res, nil
}

// spanBody ends the span when the caller closes the body.
type spanBody struct {
	rc        io.ReadCloser
	capture   bool
	maxBytes  int
	buf       bytes.Buffer
	truncated bool
	once      sync.Once
	onClose   func([]byte, bool)
}

func (b *spanBody) Read(p []byte) (int, error) {
	n, err := b.rc.Read(p)
	if n > 0 && b.capture {
		room := n
		if b.maxBytes > 0 {
			room = b.maxBytes - b.buf.Len()
		}
		switch {
		case room >= n:
			_, _ = b.buf.Write(p[:n])
		case room > 0:
			_, _ = b.buf.Write(p[:room])
			b.truncated = true
		default:
			b.truncated = true
		}
	}
	return n, err
}

func (b *spanBody) Close() error {
	b.once.Do(func() { b.onClose(b.buf.Bytes(), b.truncated) })
	return b.rc.Close()
}

func toValidUTF8(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return strings.ToValidUTF8(string(b), "�")
}
