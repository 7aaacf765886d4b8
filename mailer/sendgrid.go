package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridMailer struct {
	FromName string
	Client   *sendgrid.Client
}

func NewSendGridMailer(apiKey, fromName string) *SendGridMailer {
	return &SendGridMailer{
		FromName: fromName,
		Client:   sendgrid.NewSendClient(apiKey),
	}
}

func (s *SendGridMailer) Provider() string { return "sendgrid" }

func (s *SendGridMailer) Send(ctx context.Context, e Email) error {
	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(s.FromName, e.From))
	message.Subject = e.Subject

	p := mail.NewPersonalization()
	for _, to := range e.To {
		p.AddTos(mail.NewEmail("", to))
	}
	message.AddPersonalizations(p)

	if e.Text != "" {
		message.AddContent(mail.NewContent("text/plain", e.Text))
	}
	if e.HTML != "" {
		message.AddContent(mail.NewContent("text/html", e.HTML))
	}
	for k, v := range e.Headers {
		message.SetHeader(k, v)
	}
	if e.IdempotencyKey != "" {
		message.SetHeader("X-Idempotency-Key", e.IdempotencyKey)
	}

	resp, err := s.Client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid API error: %d %s", resp.StatusCode, resp.Body)
	}
	return nil
}
