package notify

import (
	"context"
	"log/slog"
)

// LogSink writes notifications to the log; used when no chat session exists.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Send(_ context.Context, text string) error {
	s.Logger.Info("notification", "text", text)
	return nil
}
