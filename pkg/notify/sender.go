// Package notify delivers transactional email. Delivery is best effort: the
// HTTP handlers fire messages asynchronously and never fail a request over a
// mail problem.
package notify

import (
	"context"
	"fmt"
)

// Message is a single outgoing email
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// RegistrationMessage builds the account confirmation email
func RegistrationMessage(to, confirmURL string) Message {
	return Message{
		To:      to,
		Subject: "Confirm your account",
		Body: fmt.Sprintf("Welcome!\r\n\r\n"+
			"Follow the link below to confirm your account. The link is valid for 48 hours and can be used once.\r\n\r\n%s\r\n", confirmURL),
	}
}

// PasswordResetMessage builds the password reset email
func PasswordResetMessage(to, resetURL string) Message {
	return Message{
		To:      to,
		Subject: "Reset your password",
		Body: fmt.Sprintf("A password reset was requested for your account.\r\n\r\n"+
			"Follow the link below to choose a new password. The link is valid for 48 hours and can be used once.\r\n\r\n%s\r\n\r\n"+
			"If you did not request this, ignore this message.\r\n", resetURL),
	}
}
