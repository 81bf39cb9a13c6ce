package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/domain"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/repository/ports"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// OTPMailer delivers one-time codes over SMTP.
type OTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
	useTLS   bool
	// send overrides the transport; nil picks one from useTLS.
	send sendFunc
}

func NewOTPMailer(host, port, username, password, from string, useTLS bool) *OTPMailer {
	return &OTPMailer{
		host:     strings.TrimSpace(host),
		port:     strings.TrimSpace(port),
		username: username,
		password: password,
		from:     strings.TrimSpace(from),
		useTLS:   useTLS,
	}
}

// sendImplicitTLS is smtp.SendMail for servers that expect TLS from the first
// byte (usually port 465).
func sendImplicitTLS(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12})
	if err != nil {
		return err
	}
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()
	if a != nil {
		if err := c.Auth(a); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func (m *OTPMailer) SendOTP(ctx context.Context, msg ports.OTPMessage) error {
	if m == nil {
		return errors.New("mailer not configured")
	}
	if m.host == "" || m.port == "" || m.from == "" {
		return errors.New("mailer missing configuration")
	}
	if msg.Email == "" {
		return errors.New("mail: user has no email address")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	addr := net.JoinHostPort(m.host, m.port)
	var auth smtp.Auth
	if m.username != "" || m.password != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	send := m.send
	if send == nil {
		send = smtp.SendMail
		if m.useTLS {
			send = sendImplicitTLS
		}
	}
	return send(addr, auth, m.from, []string{msg.Email}, m.compose(msg))
}

func (m *OTPMailer) compose(msg ports.OTPMessage) []byte {
	subject := "Your sign-in code"
	intro := "Use the following code to sign in"
	if msg.Purpose == domain.OTPPurposePasswordReset {
		subject = "Your password reset code"
		intro = "Use the following code to reset your password"
	}
	body := fmt.Sprintf("%s: %s\n\nThe code expires at %s. If you did not request this, ignore this email.",
		intro, msg.Code, msg.ExpiresAt.UTC().Format(time.RFC1123))

	message := strings.Builder{}
	message.WriteString(fmt.Sprintf("From: %s\r\n", m.from))
	message.WriteString(fmt.Sprintf("To: %s\r\n", msg.Email))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	message.WriteString("Content-Transfer-Encoding: 7bit\r\n\r\n")
	message.WriteString(body)
	message.WriteString("\r\n")
	return []byte(message.String())
}
