package notify

import (
	"context"
	"log/slog"
)

// LogMailer используется, когда почтовый провайдер не настроен
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.InfoContext(ctx, "email (not sent, no provider configured)",
		"to", msg.To, "subject", msg.Subject)
	return nil
}
