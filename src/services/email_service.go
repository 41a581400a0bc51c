package services

import (
	"context"
	"fmt"
	"time"

	"github.com/khabaroff/eventdesk/src/logging"
	"github.com/khabaroff/eventdesk/src/templates"
	"github.com/mailgun/mailgun-go/v4"
)

// Mailer delivers transactional email
type Mailer interface {
	SendVerificationEmail(ctx context.Context, toEmail, toName, link string, expiryMinutes int) error
}

// EmailService handles transactional email sending via Mailgun
type EmailService struct {
	mg        *mailgun.MailgunImpl
	fromEmail string
	fromName  string
}

// NewEmailService creates a new email service with Mailgun configuration
func NewEmailService(domain, apiKey, fromEmail, fromName string) *EmailService {
	mg := mailgun.NewMailgun(domain, apiKey)
	mg.SetAPIBase(mailgun.APIBaseEU) // Use EU endpoint for GDPR compliance

	return &EmailService{
		mg:        mg,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// renderVerificationEmail returns subject, text and HTML bodies
func renderVerificationEmail(toName, link string, expiryMinutes int) (string, string, string, error) {
	config, err := templates.LoadEmailConfig()
	if err != nil {
		return "", "", "", err
	}

	displayName := toName
	if displayName == "" {
		displayName = "Felhasználó"
	}
	data := templates.NewVerifyEmailData(config, displayName, link, expiryMinutes)

	htmlBody, err := templates.RenderVerifyEmailHTML(data)
	if err != nil {
		return "", "", "", err
	}
	textBody, err := templates.RenderVerifyEmailText(data)
	if err != nil {
		return "", "", "", err
	}
	return config.Subjects.VerifyEmail, textBody, htmlBody, nil
}

// SendVerificationEmail sends the signed email verification link
func (s *EmailService) SendVerificationEmail(ctx context.Context, toEmail, toName, link string, expiryMinutes int) error {
	subject, textBody, htmlBody, err := renderVerificationEmail(toName, link, expiryMinutes)
	if err != nil {
		return fmt.Errorf("failed to render verification email: %w", err)
	}

	message := s.mg.NewMessage(
		fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail),
		subject,
		textBody,
		toEmail,
	)
	message.SetHtml(htmlBody)

	// Set timeout for sending
	ctxWithTimeout, cancel := context.WithTimeout(ctx, time.Second*30)
	defer cancel()

	_, _, err = s.mg.Send(ctxWithTimeout, message)
	if err != nil {
		return fmt.Errorf("failed to send verification email to %s: %w", toEmail, err)
	}

	return nil
}

// LogMailer writes outgoing email to the log instead of sending it.
// Used when Mailgun is not configured.
type LogMailer struct{}

// SendVerificationEmail logs the verification link
func (LogMailer) SendVerificationEmail(ctx context.Context, toEmail, toName, link string, expiryMinutes int) error {
	logger := logging.NewLogger("mailer")
	logger.Info().
		Str("to", toEmail).
		Str("link", link).
		Int("expiry_minutes", expiryMinutes).
		Msg("Verification email (not sent, mailer disabled)")
	return nil
}

var (
	_ Mailer = (*EmailService)(nil)
	_ Mailer = LogMailer{}
)
