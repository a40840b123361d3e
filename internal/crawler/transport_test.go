package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestHTTPTransport_PreCheck(t *testing.T) {
	t.Parallel()

	tr := NewHTTPTransport(nil, "", "")
	cases := map[string]bool{
		"https://example.com":      false,
		"http://example.com/a?b=c": false,
		"":                         true,
		"   ":                      true,
		"example.com":              true,
		"ftp://example.com":        true,
		"https://":                 true,
		"://bad":                   true,
	}
	for in, want := range cases {
		if got := tr.PreCheck(in); got != want {
			t.Errorf("PreCheck(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestHTTPTransport_SendsBufferedBody(t *testing.T) {
	t.Parallel()

	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			return nil, fmt.Errorf("Content-Type = %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "agent/1" {
			return nil, fmt.Errorf("User-Agent = %q", got)
		}
		if got := r.Header.Get("X-Locale"); got != "fr-FR" {
			return nil, fmt.Errorf("X-Locale = %q", got)
		}
		if r.Header.Get("Authorization") != "" {
			return nil, fmt.Errorf("unexpected Authorization header")
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"url":"x"}` {
			return nil, fmt.Errorf("body = %q", body)
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     make(http.Header),
			Body:       io.NopCloser(strings.NewReader("page")),
			Request:    r,
		}, nil
	})}

	tr := NewHTTPTransport(client, "agent/1", "")
	conn, err := tr.Open(context.Background(), "http://reader.test/", map[string]string{"X-Locale": "fr-FR"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := conn.Write([]byte(`{"url":"x"}`)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := conn.Write([]byte("more")); err == nil {
		t.Fatalf("expected write after close to fail")
	}

	got, err := tr.ReadResponse(context.Background(), conn)
	if err != nil {
		t.Fatalf("ReadResponse() error = %v", err)
	}
	if got != "page" {
		t.Fatalf("ReadResponse() = %q, want %q", got, "page")
	}
}

func TestHTTPTransport_NonOKStatus(t *testing.T) {
	t.Parallel()

	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusPaymentRequired,
			Header:     make(http.Header),
			Body:       io.NopCloser(strings.NewReader("quota exceeded")),
			Request:    r,
		}, nil
	})}
	tr := NewHTTPTransport(client, "", "k")
	conn, _ := tr.Open(context.Background(), "http://reader.test/", nil)
	_ = conn.Close()

	_, err := tr.ReadResponse(context.Background(), conn)
	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if serviceErr.Kind != KindResponseStatus || serviceErr.StatusCode != http.StatusPaymentRequired {
		t.Fatalf("unexpected error: %+v", serviceErr)
	}
	if !strings.Contains(serviceErr.Error(), "quota exceeded") {
		t.Fatalf("error %q does not include the body", serviceErr.Error())
	}
}

func TestHTTPTransport_NetworkErrorIsTransportFailure(t *testing.T) {
	t.Parallel()

	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})}
	tr := NewHTTPTransport(client, "", "")
	conn, _ := tr.Open(context.Background(), "http://reader.test/", nil)
	_ = conn.Close()

	_, err := tr.ReadResponse(context.Background(), conn)
	if !IsKind(err, KindTransportFailure) {
		t.Fatalf("expected transport failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("error %q does not embed the cause", err.Error())
	}
}

func TestHTTPTransport_OpenRejectsRelativeEndpoint(t *testing.T) {
	t.Parallel()

	if _, err := NewHTTPTransport(nil, "", "").Open(context.Background(), "/reader", nil); err == nil {
		t.Fatalf("expected error for relative endpoint")
	}
}
