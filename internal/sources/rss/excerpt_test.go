package rss

import "testing"

func TestExcerpt_ConvertsHTML(t *testing.T) {
	md, err := Excerpt(`<p><strong>Bold Text</strong></p>`, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if md != "**Bold Text**" {
		t.Fatalf("expected '**Bold Text**', got %q", md)
	}
}

func TestExcerpt_PlainTextPassThrough(t *testing.T) {
	in := "already markdown-ish *text*"
	md, err := Excerpt(in, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if md != in {
		t.Fatalf("expected pass-through %q, got %q", in, md)
	}
}

func TestExcerpt_Truncates(t *testing.T) {
	md, err := Excerpt("héllo wörld", 5)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if md != "héllo…" {
		t.Fatalf("got %q", md)
	}
}
