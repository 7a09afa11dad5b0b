// Package mail delivers report and alert messages over SMTP.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"regexp"
	"strings"
	"time"

	"github.com/systmms/kvreport/internal/report"
	"github.com/systmms/kvreport/internal/secure"
)

// headerPattern matches common email header injection patterns.
// This catches: Bcc:, Cc:, To:, From:, Subject:, Reply-To:, X-*: headers
var headerPattern = regexp.MustCompile(`(?i)\b(bcc|cc|to|from|subject|reply-to|x-[a-z0-9-]+)\s*:`)

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	// Host is the SMTP server hostname.
	Host string

	// Port is the SMTP server port.
	Port int

	// Username for SMTP authentication (optional).
	Username string

	// TLS enables TLS/STARTTLS for the connection.
	TLS bool
}

// Config holds sender configuration. The SMTP password is not part of
// it; the password travels separately in a secure buffer.
type Config struct {
	SMTP SMTPConfig

	// From is the sender address.
	From string

	// Subject overrides the default report subject when set.
	Subject string
}

// SMTPSendFunc is the function signature for sending mail via SMTP.
type SMTPSendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// Sender sends report and alert mail. At most one report send and one
// alert send happen per run, never a report and an alert both delivered.
type Sender struct {
	config     Config
	password   *secure.Buffer
	smtpSender SMTPSendFunc
}

// NewSender creates a sender. password may be nil when the SMTP server
// needs no authentication.
func NewSender(config Config, password *secure.Buffer) *Sender {
	return &Sender{
		config:     config,
		password:   password,
		smtpSender: smtp.SendMail,
	}
}

// Validate checks configuration completeness without touching the network.
func (s *Sender) Validate(ctx context.Context) error {
	if s.config.SMTP.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}

	if s.config.SMTP.Port == 0 {
		return fmt.Errorf("SMTP port is required")
	}

	if s.config.From == "" {
		return fmt.Errorf("from address is required")
	}

	if s.config.SMTP.Username != "" && s.password == nil {
		return fmt.Errorf("SMTP username is set but no password is available")
	}

	return nil
}

// SendReport delivers the rendered report to the primary recipient.
func (s *Sender) SendReport(ctx context.Context, recipient string, r *report.Report) error {
	subject := s.config.Subject
	if subject == "" {
		subject = fmt.Sprintf("Credential expiry report: %s", r.Source)
	}

	msg := buildMIMEMessage(s.config.From, recipient, subject, r.Text, r.HTML)
	if err := s.send(recipient, msg); err != nil {
		return fmt.Errorf("failed to send report: %w", err)
	}
	return nil
}

// SendAlert delivers the failure notification to the admin address,
// carrying the raw error detail verbatim.
func (s *Sender) SendAlert(ctx context.Context, admin string, alert Alert) error {
	subject := fmt.Sprintf("kvreport run failed: %s", alert.Source)

	msg := buildMIMEMessage(s.config.From, admin, subject, alert.textBody(), alert.htmlBody())
	if err := s.send(admin, msg); err != nil {
		return fmt.Errorf("failed to send alert: %w", err)
	}
	return nil
}

func (s *Sender) send(recipient, msg string) error {
	addr := fmt.Sprintf("%s:%d", s.config.SMTP.Host, s.config.SMTP.Port)

	auth, cleanup, err := s.smtpAuth()
	if err != nil {
		return err
	}
	defer cleanup()

	return s.smtpSender(addr, auth, s.config.From, []string{recipient}, []byte(msg))
}

// smtpAuth builds the auth object, opening the password buffer only for
// the duration of the send. The cleanup func wipes the plaintext.
func (s *Sender) smtpAuth() (smtp.Auth, func(), error) {
	if s.config.SMTP.Username == "" {
		return nil, func() {}, nil
	}

	if s.password == nil {
		return nil, nil, fmt.Errorf("SMTP username is set but no password is available")
	}

	locked, err := s.password.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open SMTP password: %w", err)
	}

	auth := smtp.PlainAuth("", s.config.SMTP.Username, locked.String(), s.config.SMTP.Host)
	return auth, func() { locked.Destroy() }, nil
}

// buildMIMEMessage creates a MIME multipart message with both plain-text
// and HTML parts.
func buildMIMEMessage(from, to, subject, textBody, htmlBody string) string {
	boundary := fmt.Sprintf("----=_Part_%d", time.Now().UnixNano())

	var buf bytes.Buffer

	// Headers
	buf.WriteString(fmt.Sprintf("From: %s\r\n", sanitizeHeader(from)))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", sanitizeHeader(to)))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", sanitizeHeader(subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary))
	buf.WriteString("\r\n")

	// Plain-text part
	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	buf.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(textBody)
	buf.WriteString("\r\n")

	// HTML part
	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	buf.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(htmlBody)
	buf.WriteString("\r\n")

	// End boundary
	buf.WriteString(fmt.Sprintf("--%s--\r\n", boundary))

	return buf.String()
}

// sanitizeHeader removes newlines and header injection patterns to
// prevent both SMTP header injection and confusing subject lines.
func sanitizeHeader(s string) string {
	// Replace newlines with spaces (preserve readability)
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")

	// Remove header-like patterns (e.g., "Bcc:", "X-Custom:")
	s = headerPattern.ReplaceAllString(s, "")

	// Collapse multiple spaces into single space
	s = strings.Join(strings.Fields(s), " ")

	return s
}
