// Package mail delivers the transactional emails the API sends: password
// reset links, reporter invites and reporter credentials.
package mail

import (
	"context"
	"errors"
)

// Message is one outbound HTML email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	// ConfirmUserID names a pending account to activate once this message
	// has been handed to the SMTP server.
	ConfirmUserID string `json:"confirmUserId,omitempty"`
}

// Receipt describes what happened to a message handed to a Sender.
type Receipt struct {
	// Queued is true when the message was accepted for later delivery
	// rather than delivered inline.
	Queued bool
	ID     string
}

// Sender delivers or enqueues a message.
type Sender interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}

var ErrInvalidMessage = errors.New("mail: recipient, subject and body are required")

func (m Message) validate() error {
	if m.To == "" || m.Subject == "" || m.HTML == "" {
		return ErrInvalidMessage
	}
	return nil
}
