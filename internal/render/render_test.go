package render

import (
	"strings"
	"testing"
)

func TestHTML(t *testing.T) {
	out, err := HTML("# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n~~gone~~ https://example.com")
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	for _, want := range []string{`<h1 id="title">Title</h1>`, "<table>", "<del>gone</del>", `<a href="https://example.com">`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
