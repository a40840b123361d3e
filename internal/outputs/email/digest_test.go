package email_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bakkerme/curator-crawler/internal/core"
	"github.com/bakkerme/curator-crawler/internal/outputs/email"
	"github.com/bakkerme/curator-crawler/internal/outputs/email/mock"
)

func TestDigestDeliver(t *testing.T) {
	sender := &mock.Sender{}
	digest, err := email.NewDigest("bot@example.com", "me@example.com", "Daily reads", sender)
	if err != nil {
		t.Fatalf("NewDigest() error = %v", err)
	}
	run := &core.Run{
		Pages: []*core.Page{
			{Target: core.Target{URL: "https://example.com/a", Title: "A <post>"}, Content: "**bold**"},
		},
		Errors: []core.TargetError{{URL: "https://example.com/b", Error: "status 500"}},
	}
	if err := digest.Deliver(context.Background(), run); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if len(sender.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sender.Messages))
	}
	msg := sender.Messages[0]
	if msg.To != "me@example.com" || msg.From != "bot@example.com" || msg.Subject != "Daily reads" {
		t.Fatalf("unexpected envelope: %+v", msg)
	}
	for _, want := range []string{"<strong>bold</strong>", "A &lt;post&gt;", "https://example.com/b: status 500", "1 page(s) read, 1 failed."} {
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("digest missing %q:\n%s", want, msg.HTML)
		}
	}
}

func TestDigestSkipsEmptyRun(t *testing.T) {
	sender := &mock.Sender{}
	digest, _ := email.NewDigest("", "me@example.com", "s", sender)
	if err := digest.Deliver(context.Background(), &core.Run{}); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if len(sender.Messages) != 0 {
		t.Fatalf("expected no message for an empty run")
	}
}

func TestDigestPropagatesSendError(t *testing.T) {
	sender := &mock.Sender{Err: errors.New("smtp down")}
	digest, _ := email.NewDigest("", "me@example.com", "s", sender)
	run := &core.Run{Pages: []*core.Page{{Target: core.Target{URL: "https://x.example"}, Content: "x"}}}
	if err := digest.Deliver(context.Background(), run); err == nil || !strings.Contains(err.Error(), "smtp down") {
		t.Fatalf("expected send error, got %v", err)
	}
}

func TestNewDigestRequiresSenderAndRecipient(t *testing.T) {
	if _, err := email.NewDigest("", "me@example.com", "s", nil); err == nil {
		t.Fatalf("expected error without sender")
	}
	if _, err := email.NewDigest("", " ", "s", &mock.Sender{}); err == nil {
		t.Fatalf("expected error without recipient")
	}
}
