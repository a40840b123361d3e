package outputs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bakkerme/curator-crawler/internal/core"
)

const maxSlugLength = 120

var slugUnsafe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Directory writes one file per page under dir, named after the page URL.
// A page read again in a later run replaces its earlier file.
type Directory struct {
	dir  string
	html bool
}

func NewDirectory(dir string, html bool) (*Directory, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &Directory{dir: dir, html: html}, nil
}

func (d *Directory) Name() string { return "directory" }

func (d *Directory) Deliver(ctx context.Context, run *core.Run) error {
	ext := ".md"
	if d.html {
		ext = ".html"
	}
	for _, page := range run.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(d.dir, FileName(page.Target.URL)+ext)
		if err := writeFileAtomic(path, []byte(body(page, d.html))); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

// FileName is Slug plus the first 8 hex digits of the URL's sha256, so URLs
// that slug alike still get their own file.
func FileName(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return Slug(rawURL) + "-" + hex.EncodeToString(sum[:4])
}

// Slug maps a URL to a file-system safe name: host plus path, unsafe runs collapsed to "_".
func Slug(rawURL string) string {
	name := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		name = u.Host + strings.TrimSuffix(u.Path, "/")
		if u.RawQuery != "" {
			name += "_" + u.RawQuery
		}
	}
	name = strings.Trim(slugUnsafe.ReplaceAllString(name, "_"), "_.")
	if len(name) > maxSlugLength {
		name = name[:maxSlugLength]
	}
	if name == "" {
		name = "page"
	}
	return name
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".page-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
