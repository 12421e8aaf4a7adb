package email

import (
	"context"

	"github.com/rs/zerolog/log"
)

// LogSender writes messages to the log instead of delivering them.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	attachments := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		attachments = append(attachments, a.Filename)
	}
	log.Ctx(ctx).Info().
		Str("recipient", msg.To).
		Str("subject", msg.Subject).
		Strs("attachments", attachments).
		Msg("Email not delivered: log provider")
	return nil
}
