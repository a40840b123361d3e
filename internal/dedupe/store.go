package dedupe

import "context"

// SeenStore remembers target URLs that were read successfully.
type SeenStore interface {
	Seen(ctx context.Context, url string) (bool, error)
	Mark(ctx context.Context, urls ...string) error
	Close() error
}
