package mail

import (
	"context"
	"fmt"

	"github.com/newsroom-api/server/internal/mq"
)

// QueueSender hands messages to the broker; the worker delivers them.
type QueueSender struct {
	queue   *mq.MQ
	channel string
}

func NewQueueSender(queue *mq.MQ, channel string) *QueueSender {
	return &QueueSender{queue: queue, channel: channel}
}

func (s *QueueSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	if err := msg.validate(); err != nil {
		return Receipt{}, err
	}
	id, err := s.queue.PublishJSON(ctx, s.channel, msg)
	if err != nil {
		return Receipt{}, fmt.Errorf("enqueue mail: %w", err)
	}
	return Receipt{Queued: true, ID: id}, nil
}
