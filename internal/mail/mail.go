package mail

import (
	"log"

	"gopkg.in/gomail.v2"

	"nokshibox/internal/config"
)

type Message struct {
	To      string
	ReplyTo string
	Subject string
	Body    string // HTML
}

type Mailer interface {
	Send(m Message) error
}

// New returns an SMTP mailer when SMTP_HOST is set, otherwise a mailer that
// only logs, which is what development runs use.
func New(cfg config.Config) Mailer {
	if cfg.SMTPHost == "" {
		return LogMailer{}
	}
	return &SMTPMailer{
		From:   cfg.MailFrom,
		Dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
	}
}

type SMTPMailer struct {
	From   string
	Dialer *gomail.Dialer
}

func (s *SMTPMailer) Send(m Message) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.From)
	msg.SetHeader("To", m.To)
	if m.ReplyTo != "" {
		msg.SetHeader("Reply-To", m.ReplyTo)
	}
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/html", m.Body)

	if err := s.Dialer.DialAndSend(msg); err != nil {
		log.Printf("[mail] could not send to %s: %v", m.To, err)
		return err
	}
	return nil
}

type LogMailer struct{}

func (LogMailer) Send(m Message) error {
	log.Printf("[mail] DEV to=%s reply_to=%s subject=%q", m.To, m.ReplyTo, m.Subject)
	return nil
}
