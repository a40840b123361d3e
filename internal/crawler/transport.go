package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultMaxBodySize = 10 << 20 // 10 MiB

var errConnClosed = errors.New("connection output already closed")

// HTTPTransport implements Transport on net/http. The request body is buffered
// in memory until ReadResponse sends it.
type HTTPTransport struct {
	client      *http.Client
	apiKey      string
	userAgent   string
	maxBodySize int64
}

func NewHTTPTransport(client *http.Client, userAgent, apiKey string) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = "curator-crawler/0.1"
	}
	return &HTTPTransport{
		client:      client,
		apiKey:      strings.TrimSpace(apiKey),
		userAgent:   userAgent,
		maxBodySize: defaultMaxBodySize,
	}
}

func (t *HTTPTransport) PreCheck(targetURL string) bool {
	targetURL = strings.TrimSpace(targetURL)
	if targetURL == "" {
		return true
	}
	u, err := url.Parse(targetURL)
	if err != nil {
		return true
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return true
	}
	return u.Host == ""
}

func (t *HTTPTransport) Open(ctx context.Context, endpoint string, headers map[string]string) (Conn, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("endpoint %q is not absolute", endpoint)
	}

	header := make(http.Header, len(headers)+3)
	header.Set("Content-Type", "application/json")
	header.Set("User-Agent", t.userAgent)
	if t.apiKey != "" {
		header.Set("Authorization", "Bearer "+t.apiKey)
	}
	for k, v := range headers {
		header.Set(k, v)
	}
	return &httpConn{ctx: ctx, endpoint: u.String(), header: header}, nil
}

func (t *HTTPTransport) ReadResponse(ctx context.Context, conn Conn) (string, error) {
	hc, ok := conn.(*httpConn)
	if !ok || hc == nil {
		return "", fmt.Errorf("connection %T was not opened by this transport", conn)
	}
	if ctx == nil {
		ctx = hc.ctx
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hc.endpoint, bytes.NewReader(hc.body.Bytes()))
	if err != nil {
		return "", TransportFailure("build request", err)
	}
	req.Header = hc.header.Clone()

	resp, err := t.client.Do(req)
	if err != nil {
		return "", TransportFailure("send request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBodySize+1))
	if err != nil {
		return "", TransportFailure("read response", err)
	}
	if int64(len(body)) > t.maxBodySize {
		return "", TransportFailure("read response", fmt.Errorf("body exceeds %d bytes", t.maxBodySize))
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		if msg != "" {
			msg = ": " + msg
		}
		return "", &ServiceError{
			Kind:       KindResponseStatus,
			Message:    fmt.Sprintf("request failed with status %d%s", resp.StatusCode, msg),
			StatusCode: resp.StatusCode,
		}
	}
	return string(body), nil
}

type httpConn struct {
	ctx      context.Context
	endpoint string
	header   http.Header
	body     bytes.Buffer
	closed   bool
}

func (c *httpConn) Write(p []byte) (int, error) {
	if c.closed {
		return 0, errConnClosed
	}
	return c.body.Write(p)
}

func (c *httpConn) Close() error {
	if c.closed {
		return errConnClosed
	}
	c.closed = true
	return nil
}
