// Package mail sends transactional email over SMTP with implicit TLS.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
)

// SMTPMailer sends mail through a single SMTP account (implicit TLS,
// typically port 465).
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
}

func NewSMTPMailer(host, port, username, password string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
	}
}

// Send delivers one HTML message. The context bounds the dial; SMTP
// conversation errors are returned as-is for the caller to wrap.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := []byte(
		fmt.Sprintf("From: %s\r\n", m.username) +
			fmt.Sprintf("To: %s\r\n", to) +
			fmt.Sprintf("Subject: %s\r\n", subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			htmlBody,
	)

	addr := m.host + ":" + m.port
	dialer := &tls.Dialer{Config: &tls.Config{ServerName: m.host}}
	rawConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	defer rawConn.Close()

	client, err := smtp.NewClient(rawConn, m.host)
	if err != nil {
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Quit()

	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := client.Mail(m.username); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	return w.Close()
}

// ResetMessage builds the password-reset mail. The link shape is load
// bearing: the reset form reads `token` and `email` from this query string.
func ResetMessage(baseURL, email, ticket string) (subject, htmlBody string) {
	link := fmt.Sprintf("%s/reset-password?token=%s&email=%s", baseURL, ticket, email)
	subject = "Ecovia Password Reset Link"
	htmlBody = fmt.Sprintf(`<div style="font-family: Arial, sans-serif; padding: 20px;">
  <h2>Password Reset Request</h2>
  <p>Click the button below to reset your password:</p>
  <a href="%s" style="background-color: #028a0f; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Reset Password</a>
  <p>This link expires in 1 hour.</p>
</div>`, link)
	return subject, htmlBody
}
