package notifications

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"
	"strconv"
	"strings"
	texttemplate "text/template"
	"time"

	"cineplex/internal/shared/config"
	"cineplex/pkg/logger"
)

type EmailService interface {
	SendNotification(ctx context.Context, notification *EmailNotification) error
}

// SMTPEmailService sends multipart mail over STARTTLS.
type SMTPEmailService struct {
	cfg  config.EmailConfig
	html *template.Template
	text *texttemplate.Template
}

func NewSMTPEmailService(cfg config.EmailConfig) (*SMTPEmailService, error) {
	if err := validateSMTPConfig(cfg); err != nil {
		return nil, err
	}
	html, text := parseTemplates()
	return &SMTPEmailService{cfg: cfg, html: html, text: text}, nil
}

func validateSMTPConfig(cfg config.EmailConfig) error {
	if cfg.SMTPHost == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if cfg.SMTPPort <= 0 || cfg.SMTPPort > 65535 {
		return fmt.Errorf("SMTP port must be between 1 and 65535")
	}
	if cfg.FromEmail == "" {
		return fmt.Errorf("from email is required")
	}
	return nil
}

func (s *SMTPEmailService) SendNotification(ctx context.Context, n *EmailNotification) error {
	htmlBody, textBody, err := renderNotification(s.html, s.text, n)
	if err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}

	msg := s.buildMessage(n.RecipientEmail, n.Subject, htmlBody, textBody)
	addr := s.cfg.SMTPHost + ":" + strconv.Itoa(s.cfg.SMTPPort)

	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}

	done := make(chan error, 1)
	go func() { done <- s.sendWithSTARTTLS(addr, auth, n.RecipientEmail, msg) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SMTPEmailService) sendWithSTARTTLS(addr string, auth smtp.Auth, to string, message []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Quit()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err = client.StartTLS(&tls.Config{ServerName: s.cfg.SMTPHost}); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}
	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}
	if err = client.Mail(s.cfg.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return w.Close()
}

func (s *SMTPEmailService) buildMessage(to, subject, htmlBody, textBody string) []byte {
	boundary := "boundary_" + strconv.FormatInt(time.Now().UnixNano(), 10)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", s.cfg.FromName, s.cfg.FromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", boundary, textBody)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", boundary, htmlBody)
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}

const (
	confirmedHTML = `<h2>Your tickets are confirmed</h2>
<p>Hi {{.RecipientName}},</p>
<p>Booking <strong>{{.Booking.Reference}}</strong> for <strong>{{.Booking.MovieTitle}}</strong> is paid.</p>
<p>Showtime: {{.Booking.StartsAt.Format "Mon 02 Jan 2006 15:04"}}<br>Seats: {{join .Booking.Seats ", "}}<br>Total: {{printf "%.2f" .Booking.FinalAmount}}</p>
<p>Show the QR code in your booking history at the entrance.</p>
<p>Cineplex</p>`
	confirmedText = `Hi {{.RecipientName}},

Booking {{.Booking.Reference}} for {{.Booking.MovieTitle}} is paid.
Showtime: {{.Booking.StartsAt.Format "Mon 02 Jan 2006 15:04"}}
Seats: {{join .Booking.Seats ", "}}
Total: {{printf "%.2f" .Booking.FinalAmount}}

Cineplex`
	cancelledHTML = `<h2>Your booking was cancelled</h2>
<p>Hi {{.RecipientName}},</p>
<p>Booking <strong>{{.Booking.Reference}}</strong> for <strong>{{.Booking.MovieTitle}}</strong> was cancelled{{with .Booking.CancelReason}} ({{.}}){{end}}.</p>
<p>Seats {{join .Booking.Seats ", "}} have been released.</p>
<p>Cineplex</p>`
	cancelledText = `Hi {{.RecipientName}},

Booking {{.Booking.Reference}} for {{.Booking.MovieTitle}} was cancelled{{with .Booking.CancelReason}} ({{.}}){{end}}.
Seats {{join .Booking.Seats ", "}} have been released.

Cineplex`
)

func parseTemplates() (*template.Template, *texttemplate.Template) {
	html := template.New("html").Funcs(template.FuncMap{"join": strings.Join})
	template.Must(html.New(string(NotificationTypeBookingConfirmed)).Parse(confirmedHTML))
	template.Must(html.New(string(NotificationTypeBookingCancelled)).Parse(cancelledHTML))

	text := texttemplate.New("text").Funcs(texttemplate.FuncMap{"join": strings.Join})
	texttemplate.Must(text.New(string(NotificationTypeBookingConfirmed)).Parse(confirmedText))
	texttemplate.Must(text.New(string(NotificationTypeBookingCancelled)).Parse(cancelledText))
	return html, text
}

func renderNotification(html *template.Template, text *texttemplate.Template, n *EmailNotification) (string, string, error) {
	var htmlBuf, textBuf bytes.Buffer
	if err := html.ExecuteTemplate(&htmlBuf, string(n.Type), n); err != nil {
		return "", "", err
	}
	if err := text.ExecuteTemplate(&textBuf, string(n.Type), n); err != nil {
		return "", "", err
	}
	return htmlBuf.String(), textBuf.String(), nil
}

// LogEmailService renders mail and logs it instead of sending. Used when
// SMTP is not configured.
type LogEmailService struct {
	log  *logger.Logger
	html *template.Template
	text *texttemplate.Template
}

func NewLogEmailService(log *logger.Logger) *LogEmailService {
	html, text := parseTemplates()
	return &LogEmailService{log: log, html: html, text: text}
}

func (s *LogEmailService) SendNotification(ctx context.Context, n *EmailNotification) error {
	_, textBody, err := renderNotification(s.html, s.text, n)
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "email (not sent, SMTP disabled)",
		"to", n.RecipientEmail, "subject", n.Subject, "type", string(n.Type), "body", textBody)
	return nil
}
