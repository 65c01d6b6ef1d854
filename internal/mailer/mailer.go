package mailer

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Message is a plain-text email with optional file attachments given by path.
type Message struct {
	To          string
	Subject     string
	Body        string
	Attachments []string
}

// Sender delivers a message. Delivery is attempted once; there is no retry.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them. It is
// used when no SMTP server is configured.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.log.Info("mail not delivered, SMTP disabled",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.Body)),
		zap.String("attachments", strings.Join(msg.Attachments, ",")),
	)
	return nil
}
