package mock

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/bakkerme/curator-crawler/internal/crawler"
)

// Transport records every Open call and the bytes written to the returned connection.
type Transport struct {
	Invalid  bool
	OpenErr  error
	WriteErr error
	CloseErr error
	Response string
	ReadErr  error

	mu      sync.Mutex
	Opens   []OpenCall
	Checked []string
}

type OpenCall struct {
	Endpoint string
	Headers  map[string]string
	Conn     *Conn
}

type Conn struct {
	Body     bytes.Buffer
	Closed   bool
	writeErr error
	closeErr error
}

func (c *Conn) Write(p []byte) (int, error) {
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	if c.Closed {
		return 0, errors.New("mock: write after close")
	}
	return c.Body.Write(p)
}

func (c *Conn) Close() error {
	c.Closed = true
	return c.closeErr
}

func (t *Transport) PreCheck(targetURL string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Checked = append(t.Checked, targetURL)
	return t.Invalid
}

func (t *Transport) Open(ctx context.Context, endpoint string, headers map[string]string) (crawler.Conn, error) {
	_ = ctx
	t.mu.Lock()
	defer t.mu.Unlock()
	copied := make(map[string]string, len(headers))
	for k, v := range headers {
		copied[k] = v
	}
	if t.OpenErr != nil {
		t.Opens = append(t.Opens, OpenCall{Endpoint: endpoint, Headers: copied})
		return nil, t.OpenErr
	}
	conn := &Conn{writeErr: t.WriteErr, closeErr: t.CloseErr}
	t.Opens = append(t.Opens, OpenCall{Endpoint: endpoint, Headers: copied, Conn: conn})
	return conn, nil
}

func (t *Transport) ReadResponse(ctx context.Context, conn crawler.Conn) (string, error) {
	_ = ctx
	_ = conn
	if t.ReadErr != nil {
		return "", t.ReadErr
	}
	return t.Response, nil
}

// OpenCount returns how many connections were requested.
func (t *Transport) OpenCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Opens)
}

func (t *Transport) LastOpen() OpenCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.Opens) == 0 {
		return OpenCall{}
	}
	return t.Opens[len(t.Opens)-1]
}
