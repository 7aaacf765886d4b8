package mailer

import (
	"context"
	"fmt"

	"pregador/config"

	"github.com/google/uuid"
)

// Mailer entrega um email a um provedor. Send faz uma única tentativa.
type Mailer interface {
	Send(ctx context.Context, e Email) error
	Provider() string
}

type Email struct {
	From           string            `json:"from"`
	To             []string          `json:"to"`
	Subject        string            `json:"subject"`
	Text           string            `json:"text"`
	HTML           string            `json:"html,omitempty"`
	IdempotencyKey string            `json:"idempotency_key"`
	Headers        map[string]string `json:"headers,omitempty"`
}

type EmailOption func(*Email)

// NewEmail monta um email com uma chave de idempotência nova.
func NewEmail(from string, to []string, opts ...EmailOption) Email {
	e := Email{
		From:           from,
		To:             to,
		IdempotencyKey: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

func WithSubject(sub string) EmailOption {
	return func(e *Email) {
		e.Subject = sub
	}
}

func WithText(text string) EmailOption {
	return func(e *Email) {
		e.Text = text
	}
}

func WithHTML(html string) EmailOption {
	return func(e *Email) {
		e.HTML = html
	}
}

func Header(key, value string) EmailOption {
	return func(e *Email) {
		if e.Headers == nil {
			e.Headers = make(map[string]string)
		}
		e.Headers[key] = value
	}
}

// Build escolhe o provedor configurado em mail.provider.
func Build(cfg config.Configuration) (Mailer, error) {
	switch cfg.Mail.Provider {
	case "sendgrid":
		if cfg.Mail.SendGridApiKey == "" {
			return nil, fmt.Errorf("missing sendgrid api key for mail provider")
		}
		return NewSendGridMailer(cfg.Mail.SendGridApiKey, cfg.Mail.FromName), nil
	case "kafka":
		if len(cfg.Mail.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("missing kafka brokers for mail provider")
		}
		return NewKafkaMailer(cfg.Mail.KafkaBrokers, cfg.Mail.KafkaTopic), nil
	case "log", "":
		return &LogMailer{}, nil
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s", cfg.Mail.Provider)
	}
}
