package mailer

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// LogMailer só registra o email. Usado em desenvolvimento.
type LogMailer struct{}

func (LogMailer) Provider() string { return "log" }

func (LogMailer) Send(_ context.Context, e Email) error {
	zap.L().Info("email (log mailer)",
		zap.String("to", strings.Join(e.To, ",")),
		zap.String("subject", e.Subject),
		zap.String("idempotency_key", e.IdempotencyKey),
	)
	return nil
}
