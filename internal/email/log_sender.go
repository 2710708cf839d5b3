package email

import (
	"context"

	"go.uber.org/zap"
)

// LogSender is the fallback when no delivery endpoint is configured: messages
// are written to the log instead of being sent.
type LogSender struct {
	lg *zap.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(lg *zap.Logger) *LogSender {
	return &LogSender{lg: lg}
}

// Send logs the message and succeeds.
func (s *LogSender) Send(_ context.Context, m Message) error {
	s.lg.Info("email not sent, no delivery endpoint configured",
		zap.String("to", m.To),
		zap.String("subject", m.Subject),
	)
	return nil
}
