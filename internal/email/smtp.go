package email

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

// SMTPSender delivers through an SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	sender string
}

func NewSMTPSender(host string, port int, username, password, sender string) (*SMTPSender, error) {
	if host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if sender == "" {
		return nil, fmt.Errorf("smtp sender is required")
	}
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		sender: sender,
	}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := newGomailMessage(s.sender, msg)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			log.Error().
				Err(err).
				Str("recipient", msg.To).
				Str("subject", msg.Subject).
				Msg("Failed to send SMTP email")
			return fmt.Errorf("send smtp email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
