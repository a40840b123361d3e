package email

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/bakkerme/curator-crawler/internal/core"
	"github.com/bakkerme/curator-crawler/internal/render"
)

var digestTemplate = template.Must(template.New("digest").Parse(`<!doctype html>
<html><body>
<h1>{{.Subject}}</h1>
<p>{{len .Pages}} page(s) read{{if .Errors}}, {{len .Errors}} failed{{end}}.</p>
{{range .Pages}}<article>
<h2><a href="{{.URL}}">{{if .Title}}{{.Title}}{{else}}{{.URL}}{{end}}</a></h2>
{{.Body}}
</article>
{{end}}{{if .Errors}}<h2>Failures</h2>
<ul>{{range .Errors}}<li>{{.URL}}: {{.Error}}</li>{{end}}</ul>
{{end}}</body></html>
`))

type digestPage struct {
	URL   string
	Title string
	Body  template.HTML
}

// Digest sends one HTML email per run listing every page read.
type Digest struct {
	from    string
	to      string
	subject string
	sender  Sender
}

func NewDigest(from, to, subject string, sender Sender) (*Digest, error) {
	if sender == nil {
		return nil, fmt.Errorf("email sender is required")
	}
	if strings.TrimSpace(to) == "" {
		return nil, fmt.Errorf("email recipient is required")
	}
	return &Digest{from: from, to: to, subject: subject, sender: sender}, nil
}

func (d *Digest) Name() string { return "email" }

// Deliver skips runs that produced nothing to report.
func (d *Digest) Deliver(ctx context.Context, run *core.Run) error {
	if len(run.Pages) == 0 && len(run.Errors) == 0 {
		return nil
	}
	body, err := d.render(run)
	if err != nil {
		return err
	}
	return d.sender.Send(ctx, Message{
		From:    d.from,
		To:      d.to,
		Subject: d.subject,
		HTML:    body,
	})
}

func (d *Digest) render(run *core.Run) (string, error) {
	pages := make([]digestPage, 0, len(run.Pages))
	for _, page := range run.Pages {
		html := page.HTML
		if html == "" {
			rendered, err := render.HTML(page.Content)
			if err != nil {
				return "", fmt.Errorf("render %s: %w", page.Target.URL, err)
			}
			html = rendered
		}
		pages = append(pages, digestPage{
			URL:   page.Target.URL,
			Title: page.Target.Title,
			// Reader output is rendered by goldmark, which drops raw HTML by default.
			Body: template.HTML(html),
		})
	}

	var b strings.Builder
	err := digestTemplate.Execute(&b, struct {
		Subject string
		Pages   []digestPage
		Errors  []core.TargetError
	}{d.subject, pages, run.Errors})
	if err != nil {
		return "", fmt.Errorf("execute digest template: %w", err)
	}
	return b.String(), nil
}
