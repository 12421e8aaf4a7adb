package email

import "context"

// Attachment is a file carried alongside the message body.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is one outbound email. HTMLBody and TextBody are alternatives of
// the same content.
type Message struct {
	To          string
	Subject     string
	HTMLBody    string
	TextBody    string
	Attachments []Attachment
}

// Sender provides a testable abstraction over email delivery.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
