// Package mailer delivers the confirmation e-mail sent to new applicants.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"text/template"

	"github.com/dmitrijs2005/candidates/internal/logging"
)

//go:embed templates/*.txt
var templateFS embed.FS

var confirmationTemplate = template.Must(template.ParseFS(templateFS, "templates/confirmation.txt"))

// Message is a plain-text e-mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends a single message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Confirmation is the data rendered into the confirmation e-mail.
type Confirmation struct {
	FirstName       string
	LastName        string
	Email           string
	Username        string
	Password        string
	RoundName       string
	ConfirmationURL string
}

// ConfirmationMessage renders the e-mail that hands out the login handle,
// the one-time password and the confirmation link.
func ConfirmationMessage(c Confirmation) (Message, error) {
	var body bytes.Buffer
	if err := confirmationTemplate.Execute(&body, c); err != nil {
		return Message{}, fmt.Errorf("render confirmation e-mail: %w", err)
	}
	return Message{
		To:      c.Email,
		Subject: fmt.Sprintf("Your application for round %s", c.RoundName),
		Body:    body.String(),
	}, nil
}

// LogMailer writes messages to the log instead of delivering them. It is
// used when no SMTP host is configured.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(logger logging.Logger) *LogMailer {
	return &LogMailer{logger: logger.With("module", "mailer")}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Info(ctx, "mail not delivered, no smtp host configured", "to", msg.To, "subject", msg.Subject)
	m.logger.Debug(ctx, "mail body", "body", msg.Body)
	return nil
}
