package email

import (
	"fmt"
	"net/smtp"

	"github.com/DKhorkov/FastApi/internal/config"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// sendFunc delivers a prepared message; tests replace it.
type sendFunc func(e *email.Email, addr string, auth smtp.Auth) error

func smtpSend(e *email.Email, addr string, auth smtp.Auth) error {
	return e.Send(addr, auth)
}

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   sendFunc
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send:   smtpSend,
	}
}

// welcomeMessage builds the registration mail
func (s *Sender) welcomeMessage(to, username string) *email.Email {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Welcome to %s", s.cfg.AppName)

	body := fmt.Sprintf("Dear %s,\n\n", username)
	body += fmt.Sprintf(
		"Your account %s has been created.\n"+
			"Sign in with this email address to start adding tasks.\n",
		to,
	)
	body += fmt.Sprintf("\nBest regards,\n%s", s.cfg.AppName)
	e.Text = []byte(body)
	return e
}

// SendWelcome sends the post-registration mail
func (s *Sender) SendWelcome(to, username string) error {
	e := s.welcomeMessage(to, username)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
