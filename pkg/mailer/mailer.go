// Package mailer delivers account emails over SMTP.
package mailer

import (
	"fmt"
	"time"

	gomail "gopkg.in/gomail.v2"
)

// Config holds SMTP connection details.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// FrontendURL is the public base URL used to build verification links.
	FrontendURL string
}

// Mailer sends emails through an SMTP server.
type Mailer struct {
	dialer      *gomail.Dialer
	from        string
	frontendURL string
}

// New creates a Mailer from SMTP credentials.
func New(cfg Config) *Mailer {
	return &Mailer{
		dialer:      gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:        cfg.From,
		frontendURL: cfg.FrontendURL,
	}
}

// SendVerification sends the email-verification message containing the link
// that embeds the single-use token.
func (m *Mailer) SendVerification(email, token string) error {
	verificationURL := fmt.Sprintf("%s/verify-email/%s", m.frontendURL, token)
	body := fmt.Sprintf(`
    <div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto; border: 1px solid #eee; border-radius: 8px; padding: 24px;">
      <h2 style="color: #333;">Verify Your Email Address</h2>
      <p>Thank you for registering with Luxe!</p>
      <p>Please click the button below to verify your email address and complete your registration:</p>
      <a href="%s" style="display: inline-block; padding: 12px 24px; background-color: #007bff; color: #fff; text-decoration: none; border-radius: 4px; font-weight: bold;">Verify Email</a>
      <p style="margin-top: 24px; color: #888;">If you did not create an account, you can safely ignore this email.</p>
      <p style="margin-top: 24px; color: #888;">&copy; %d Luxe. All rights reserved.</p>
    </div>`, verificationURL, time.Now().Year())

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, "Luxe")
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", "Please verify your email to access Luxe")
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send verification email to %s: %w", email, err)
	}
	return nil
}
