package mail

import (
	"context"
	"log/slog"
)

// LogSender writes messages to the log instead of sending them. It stands
// in for SMTP in local development.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	if err := msg.validate(); err != nil {
		return Receipt{}, err
	}
	s.logger.InfoContext(ctx, "mail not sent: smtp is not configured",
		"to", msg.To,
		"subject", msg.Subject,
	)
	s.logger.DebugContext(ctx, "mail body", "to", msg.To, "html", msg.HTML)
	return Receipt{}, nil
}
