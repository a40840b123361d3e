// Package outputs delivers the pages of a finished run.
package outputs

import (
	"context"

	"github.com/bakkerme/curator-crawler/internal/core"
)

// Output receives every completed run, including runs with zero pages.
type Output interface {
	Name() string
	Deliver(ctx context.Context, run *core.Run) error
}

// body picks the representation selected by the job format.
func body(page *core.Page, html bool) string {
	if html && page.HTML != "" {
		return page.HTML
	}
	return page.Content
}
