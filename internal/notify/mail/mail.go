// Package mail sends templated notification emails over SMTP,
// adapted from the teacher's adapters/email SMTPSender to the
// wodbooker domain's booking-outcome triggers.
package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/smtp"

	"go.uber.org/zap"

	"wodbooker-go/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

// Message is a single outbound email, queued or sent directly.
type Message struct {
	To      string
	Subject string
	Body    string
	IsHTML  bool
}

// Sender delivers Messages over SMTP.
type Sender struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

// New creates a Sender.
func New(cfg config.SMTPConfig, logger *zap.Logger) *Sender {
	return &Sender{cfg: cfg, logger: logger}
}

// Enabled reports whether SMTP credentials are configured.
func (s *Sender) Enabled() bool {
	return s != nil && s.cfg.Host != "" && s.cfg.From != ""
}

// Send delivers msg over plain SMTP auth.
func (s *Sender) Send(msg Message) error {
	if !s.Enabled() {
		return nil
	}

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	contentType := "text/plain"
	if msg.IsHTML {
		contentType = "text/html"
	}

	body := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: %s; charset=UTF-8\r\n"+
		"\r\n"+
		"%s", s.cfg.From, msg.To, msg.Subject, contentType, msg.Body)

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{msg.To}, []byte(body)); err != nil {
		s.logger.Error("failed to send email", zap.Error(err), zap.String("to", msg.To))
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info("email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// BookingOutcomeData is the template data for the success/failure
// notification templates.
type BookingOutcomeData struct {
	WeekdayLabel string
	LocalTime    string
	Success      bool
	Reason       string
}

// RenderBookingOutcome executes the named HTML template against data.
// Templates are embedded into the binary, so rendering does not depend
// on the process's working directory.
func RenderBookingOutcome(templateName string, data BookingOutcomeData) (string, error) {
	tmpl, err := template.ParseFS(templateFS, fmt.Sprintf("templates/%s.html", templateName))
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}
