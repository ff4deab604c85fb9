package mail

import (
	"context"
	"log/slog"

	"github.com/newsroom-api/server/internal/mq"
)

// ConfirmFunc activates the pending account a delivered message was for.
type ConfirmFunc func(ctx context.Context, userID string) error

// Worker drains the mail channel and delivers each message with a direct
// sender.
type Worker struct {
	queue   *mq.MQ
	channel string
	sender  Sender
	confirm ConfirmFunc
	logger  *slog.Logger
}

func NewWorker(queue *mq.MQ, channel string, sender Sender, confirm ConfirmFunc, logger *slog.Logger) *Worker {
	return &Worker{
		queue:   queue,
		channel: channel,
		sender:  sender,
		confirm: confirm,
		logger:  logger,
	}
}

// Run blocks until ctx is cancelled or the subscription fails.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("mail worker started", "channel", w.channel)
	return w.queue.Subscribe(ctx, w.channel, w.Handle)
}

// Handle delivers one queued message. A returned error nacks the message.
func (w *Worker) Handle(ctx context.Context, raw mq.Message) error {
	var msg Message
	if err := raw.Decode(&msg); err != nil {
		// Undecodable payloads will never succeed; drop them.
		w.logger.Error("discarding malformed mail message", "id", raw.ID, "err", err)
		return nil
	}

	receipt, err := w.sender.Send(ctx, msg)
	if err != nil {
		w.logger.Error("mail delivery failed", "id", raw.ID, "to", msg.To, "err", err)
		return err
	}
	w.logger.Info("mail delivered", "id", raw.ID, "to", msg.To, "messageId", receipt.ID)

	if msg.ConfirmUserID != "" && w.confirm != nil {
		if err := w.confirm(ctx, msg.ConfirmUserID); err != nil {
			// Redelivery would resend the mail; keep the message acked and
			// leave the account pending for the next invite acceptance.
			w.logger.Error("confirm account failed", "user", msg.ConfirmUserID, "err", err)
			return nil
		}
	}
	return nil
}
