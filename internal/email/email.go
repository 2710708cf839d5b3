// Package email sends transactional mail through a hosted delivery endpoint.
package email

import (
	"context"
)

// Message is one outbound e-mail.
type Message struct {
	To         string `json:"to"`
	Subject    string `json:"subject"`
	Text       string `json:"text,omitempty"`
	HTML       string `json:"html,omitempty"`
	Attachment string `json:"attachment,omitempty"`
}

// Sender delivers a message. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, m Message) error
}
