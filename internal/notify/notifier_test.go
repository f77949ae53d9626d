package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"econorise/internal/amqp"
	"econorise/internal/log"

	"github.com/jordan-wright/email"
)

func sampleEvent() *amqp.AssessmentCompletedMessage {
	return &amqp.AssessmentCompletedMessage{
		ID:              "5f0c8a8e-2d7b-4a57-9b55-0d6f1c3e9a11",
		Score:           82,
		ScoreLabel:      "Excellent",
		ApprovalStatus:  "Approved",
		RiskFactorCount: 1,
		RiskFactors:     []string{"Seasonal <income>"},
		Recommendation:  "Offer a **12-month** loan.",
		BusinessSummary: "Coffee roaster",
		Timestamp:       time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

type captureSender struct {
	got []Message
	err error
}

func (c *captureSender) Send(_ context.Context, msg Message) error {
	if c.err != nil {
		return c.err
	}
	c.got = append(c.got, msg)
	return nil
}

func TestCompose(t *testing.T) {
	msg := Compose(sampleEvent())

	if msg.Subject != "Loan application Approved: score 82/100 (Excellent)" {
		t.Fatalf("subject = %q", msg.Subject)
	}
	for _, want := range []string{"Coffee roaster", "Score: 82/100 (Excellent)", "  - Seasonal <income>", "Offer a **12-month** loan.", "5f0c8a8e"} {
		if !strings.Contains(msg.Text, want) {
			t.Fatalf("text missing %q:\n%s", want, msg.Text)
		}
	}
	if !strings.Contains(msg.HTML, "<strong>12-month</strong>") {
		t.Fatalf("recommendation not rendered: %s", msg.HTML)
	}
	if !strings.Contains(msg.HTML, "Seasonal &lt;income&gt;") {
		t.Fatalf("risk factor not escaped: %s", msg.HTML)
	}
}

func TestComposeWithoutRiskFactors(t *testing.T) {
	ev := sampleEvent()
	ev.RiskFactors = nil
	if msg := Compose(ev); !strings.Contains(msg.Text, "Risk factors: none identified") {
		t.Fatalf("text = %s", msg.Text)
	}
}

func TestNotifier(t *testing.T) {
	sender := &captureSender{}
	n := New(sender, nil)

	if err := n.Notify(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(sender.got) != 1 {
		t.Fatalf("sent %d messages", len(sender.got))
	}

	sender.err = errors.New("smtp down")
	err := n.Notify(context.Background(), sampleEvent())
	if err == nil || !strings.Contains(err.Error(), "smtp down") {
		t.Fatalf("Notify error = %v", err)
	}
}

func TestEmailSender(t *testing.T) {
	s := NewEmailSender("smtp.example.com", "587", "user", "secret", "noreply@example.com", []string{"lending@example.com"})

	var sent *email.Email
	var addr string
	s.send = func(e *email.Email, a string, _ smtp.Auth) error {
		sent, addr = e, a
		return nil
	}

	msg := Compose(sampleEvent())
	if err := s.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if addr != "smtp.example.com:587" {
		t.Fatalf("addr = %q", addr)
	}
	if sent.From != "noreply@example.com" || len(sent.To) != 1 || sent.Subject != msg.Subject {
		t.Fatalf("email = %+v", sent)
	}
	if string(sent.Text) != msg.Text || len(sent.HTML) == 0 {
		t.Fatal("email bodies not set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Send(ctx, msg); !errors.Is(err, context.Canceled) {
		t.Fatalf("Send with cancelled context = %v", err)
	}
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(log.NewText(&buf, slog.LevelInfo, log.ComponentApp))

	if err := s.Send(context.Background(), Message{Subject: "hello", Text: "body"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !strings.Contains(buf.String(), "subject=hello") || !strings.Contains(buf.String(), "component=notifier") {
		t.Fatalf("log = %s", buf.String())
	}
}
