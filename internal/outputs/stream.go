package outputs

import (
	"context"
	"fmt"
	"io"

	"github.com/bakkerme/curator-crawler/internal/core"
)

// Stream writes pages to w, one after another, each preceded by a source line.
type Stream struct {
	w    io.Writer
	html bool
}

func NewStream(w io.Writer, html bool) *Stream {
	return &Stream{w: w, html: html}
}

func (s *Stream) Name() string { return "stdout" }

func (s *Stream) Deliver(ctx context.Context, run *core.Run) error {
	for i, page := range run.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i > 0 {
			if _, err := io.WriteString(s.w, "\n"); err != nil {
				return err
			}
		}
		if len(run.Pages) > 1 {
			if _, err := fmt.Fprintf(s.w, "<!-- source: %s -->\n", page.Target.URL); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(s.w, body(page, s.html)); err != nil {
			return err
		}
		if _, err := io.WriteString(s.w, "\n"); err != nil {
			return err
		}
	}
	return nil
}
