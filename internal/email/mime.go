package email

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"gopkg.in/gomail.v2"
)

func newGomailMessage(from string, msg Message) (*gomail.Message, error) {
	if strings.TrimSpace(msg.To) == "" {
		return nil, fmt.Errorf("recipient is required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("sender is required")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		m.SetBody("text/plain", msg.TextBody)
		m.AddAlternative("text/html", msg.HTMLBody)
	case msg.HTMLBody != "":
		m.SetBody("text/html", msg.HTMLBody)
	default:
		m.SetBody("text/plain", msg.TextBody)
	}

	for _, attachment := range msg.Attachments {
		data := attachment.Data
		contentType := attachment.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		m.Attach(attachment.Filename,
			gomail.SetHeader(map[string][]string{"Content-Type": {contentType}}),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		)
	}
	return m, nil
}

// BuildMIME renders msg as a raw RFC 5322 message.
func BuildMIME(from string, msg Message) ([]byte, error) {
	m, err := newGomailMessage(from, msg)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write mime message: %w", err)
	}
	return buf.Bytes(), nil
}
