package crawler

import (
	"context"
	"io"
)

// Crawler reads a target page through a remote reader service and returns its text.
type Crawler interface {
	Run(ctx context.Context, targetURL string) (string, error)
}

// Conn is the write side of a single reader request. Close ends the request body;
// no writes are accepted afterwards.
type Conn interface {
	io.WriteCloser
}

// Transport is the capability set a Crawler needs from the network.
type Transport interface {
	// PreCheck reports true when targetURL must not be sent anywhere.
	PreCheck(targetURL string) bool
	// Open prepares a POST against endpoint carrying headers.
	Open(ctx context.Context, endpoint string, headers map[string]string) (Conn, error)
	// ReadResponse sends the request written to conn and returns the response body.
	ReadResponse(ctx context.Context, conn Conn) (string, error)
}
