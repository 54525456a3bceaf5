package notify

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// AsyncSender wraps a Sender and delivers in the background. Dispatch never
// blocks the caller; failures are logged with the recipient redacted.
type AsyncSender struct {
	sender  Sender
	logger  *logrus.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAsyncSender creates an async wrapper around the given sender
func NewAsyncSender(sender Sender, logger *logrus.Logger) *AsyncSender {
	if logger == nil {
		logger = logrus.New()
	}
	return &AsyncSender{
		sender:  sender,
		logger:  logger,
		timeout: 30 * time.Second,
	}
}

// Dispatch queues a message for delivery and returns immediately. The
// delivery uses its own context so it survives the originating request.
func (a *AsyncSender) Dispatch(msg Message) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		if err := a.sender.Send(ctx, msg); err != nil {
			a.logger.WithFields(logrus.Fields{
				"recipient": RedactRecipient(msg.To),
				"subject":   msg.Subject,
			}).WithError(err).Error("mail delivery failed")
			return
		}
		a.logger.WithField("recipient", RedactRecipient(msg.To)).Debug("mail delivered")
	}()
}

// Wait blocks until all queued deliveries finish. Used during shutdown and
// in tests.
func (a *AsyncSender) Wait() {
	a.wg.Wait()
}

// RedactRecipient masks an email address for logging
func RedactRecipient(email string) string {
	if len(email) <= 4 {
		return "***"
	}
	return email[:4] + "***"
}

// NoopSender discards every message. Used when mail is disabled.
type NoopSender struct{}

// Send implements Sender
func (NoopSender) Send(ctx context.Context, msg Message) error { return nil }
