package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/candidates/internal/common"
	"github.com/dmitrijs2005/candidates/internal/logging"
)

var sendMail = smtp.SendMail

// SMTPConfig holds the relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// SMTPMailer delivers through an SMTP relay, authenticating with PLAIN when
// a user is configured.
type SMTPMailer struct {
	cfg    SMTPConfig
	logger logging.Logger
}

func NewSMTPMailer(cfg SMTPConfig, logger logging.Logger) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("%w: smtp host and sender address are required", common.ErrConfiguration)
	}
	if cfg.Port == 0 {
		cfg.Port = 25
	}
	return &SMTPMailer{cfg: cfg, logger: logger.With("module", "mailer")}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := sendMail(addr, auth, m.cfg.From, []string{msg.To}, m.compose(msg)); err != nil {
		m.logger.Error(ctx, "smtp send failed", "to", msg.To, "error", err)
		return fmt.Errorf("%w: %v", common.ErrMailDelivery, err)
	}

	m.logger.Info(ctx, "mail sent", "to", msg.To)
	return nil
}

func (m *SMTPMailer) compose(msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + m.cfg.From + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}
