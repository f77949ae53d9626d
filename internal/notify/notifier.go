// Package notify tells lenders about completed assessments.
package notify

import (
	"context"
	"fmt"
	"html"
	"net/smtp"
	"strings"
	"time"

	"econorise/internal/amqp"
	"econorise/internal/core"
	"econorise/internal/log"
	"econorise/internal/render"

	"github.com/jordan-wright/email"
)

// Message is one notification, with a plain-text and an HTML body.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a notification.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// EmailSender sends notifications over SMTP.
type EmailSender struct {
	from string
	to   []string
	addr string
	auth smtp.Auth
	send func(e *email.Email, addr string, a smtp.Auth) error
}

func NewEmailSender(host, port, username, password, from string, to []string) *EmailSender {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &EmailSender{
		from: from,
		to:   to,
		addr: fmt.Sprintf("%s:%s", host, port),
		auth: auth,
		send: (*email.Email).Send,
	}
}

func (s *EmailSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = s.from
	e.To = s.to
	e.Subject = msg.Subject
	e.Text = []byte(msg.Text)
	if msg.HTML != "" {
		e.HTML = []byte(msg.HTML)
	}

	if err := s.send(e, s.addr, s.auth); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// LogSender writes notifications to the log when no SMTP server is configured.
type LogSender struct {
	logger *log.Logger
}

func NewLogSender(logger *log.Logger) *LogSender {
	return &LogSender{logger: logger.WithComponent(log.ComponentNotifier)}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "Notification", "subject", msg.Subject, "body", msg.Text)
	return nil
}

// Notifier turns assessment events into lender notifications.
type Notifier struct {
	sender Sender
	logger *log.Logger
}

func New(sender Sender, logger *log.Logger) *Notifier {
	if logger == nil {
		logger = log.Discard()
	}
	return &Notifier{sender: sender, logger: logger.WithComponent(log.ComponentNotifier)}
}

// Notify composes and sends the notification for one event.
func (n *Notifier) Notify(ctx context.Context, ev *amqp.AssessmentCompletedMessage) error {
	msg := Compose(ev)
	if err := n.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify %s: %w", ev.ID, err)
	}
	n.logger.InfoContext(ctx, "Lender notified",
		log.FieldEventID, ev.ID,
		log.FieldOperation, log.OpNotify,
		log.FieldScore, ev.Score)
	return nil
}

// Compose builds the notification for an event.
func Compose(ev *amqp.AssessmentCompletedMessage) Message {
	subject := fmt.Sprintf("Loan application %s: score %d/100 (%s)", ev.ApprovalStatus, ev.Score, ev.ScoreLabel)

	var b strings.Builder
	fmt.Fprintf(&b, "A loan application was assessed on %s.\n\n", ev.Timestamp.UTC().Format(time.RFC1123))
	fmt.Fprintf(&b, "Business: %s\n", ev.BusinessSummary)
	fmt.Fprintf(&b, "Score: %d/100 (%s)\n", ev.Score, ev.ScoreLabel)
	fmt.Fprintf(&b, "Status: %s\n", ev.ApprovalStatus)
	if len(ev.RiskFactors) == 0 {
		b.WriteString("Risk factors: none identified\n")
	} else {
		b.WriteString("Risk factors:\n")
		for _, r := range ev.RiskFactors {
			fmt.Fprintf(&b, "  - %s\n", r)
		}
	}
	fmt.Fprintf(&b, "\nRecommendation:\n%s\n\nReference: %s\n", strings.TrimSpace(ev.Recommendation), ev.ID)

	var h strings.Builder
	fmt.Fprintf(&h, "<h2>%s</h2>", html.EscapeString(subject))
	fmt.Fprintf(&h, "<p><strong>Business:</strong> %s</p>", html.EscapeString(ev.BusinessSummary))
	fmt.Fprintf(&h, "<p><strong>Tier:</strong> %s</p>", core.ScoreTier(ev.Score))
	if len(ev.RiskFactors) > 0 {
		h.WriteString("<ul>")
		for _, r := range ev.RiskFactors {
			fmt.Fprintf(&h, "<li>%s</li>", html.EscapeString(r))
		}
		h.WriteString("</ul>")
	}
	h.WriteString(string(render.MarkdownOrText(ev.Recommendation)))
	fmt.Fprintf(&h, "<p><small>Reference %s</small></p>", html.EscapeString(ev.ID))

	return Message{Subject: subject, Text: b.String(), HTML: h.String()}
}
