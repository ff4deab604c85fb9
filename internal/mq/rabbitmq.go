package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newsroom-api/server/config"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	deadLetterSuffix   = ".dead"
	contentTypeAttr    = "content-type"
	defaultContentType = "application/octet-stream"
)

var errRabbitNack = errors.New("rabbitmq: broker refused the message")

// RabbitBroker publishes to and consumes from queues on the default
// exchange. Every work queue gets a "<name>.dead" sibling that receives
// messages which failed twice.
type RabbitBroker struct {
	conn      *amqp.Connection
	publishCh *amqp.Channel
	consumeCh *amqp.Channel
	durable   bool
	autoDel   bool

	mu       sync.Mutex
	declared map[string]bool
}

// DialRabbit connects to cfg.URL and opens a confirm-mode publishing channel
// plus a consuming channel limited to cfg.PrefetchCount unacked deliveries.
func DialRabbit(cfg config.RabbitMQConfig) (*RabbitBroker, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	broker := &RabbitBroker{
		conn:     conn,
		durable:  cfg.QueueDurable,
		autoDel:  cfg.QueueAutoDelete,
		declared: map[string]bool{},
	}

	if broker.publishCh, err = conn.Channel(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open publish channel: %w", err)
	}
	if err := broker.publishCh.Confirm(false); err != nil {
		_ = broker.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}

	if broker.consumeCh, err = conn.Channel(); err != nil {
		_ = broker.Close()
		return nil, fmt.Errorf("open consume channel: %w", err)
	}
	if cfg.PrefetchCount > 0 {
		if err := broker.consumeCh.Qos(cfg.PrefetchCount, 0, false); err != nil {
			_ = broker.Close()
			return nil, fmt.Errorf("set prefetch: %w", err)
		}
	}
	return broker, nil
}

// Publish returns once the broker has confirmed the message, so a queued
// mail is never reported as sent while it only sits in a client buffer.
func (r *RabbitBroker) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("rabbitmq channel is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureQueue(channel); err != nil {
		return "", err
	}

	msg := r.publishing(data, attrs)
	confirm, err := r.publishCh.PublishWithDeferredConfirmWithContext(ctx, "", channel, false, false, msg)
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", channel, err)
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return "", err
	}
	if !acked {
		return "", errRabbitNack
	}
	return msg.MessageId, nil
}

func (r *RabbitBroker) publishing(data []byte, attrs map[string]string) amqp.Publishing {
	msg := amqp.Publishing{
		ContentType:  defaultContentType,
		DeliveryMode: amqp.Transient,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Headers:      amqp.Table{},
		Body:         data,
	}
	if r.durable {
		msg.DeliveryMode = amqp.Persistent
	}
	for key, value := range attrs {
		if key == contentTypeAttr {
			msg.ContentType = value
			continue
		}
		msg.Headers[key] = value
	}
	return msg
}

// Subscribe blocks, handing deliveries to handler until ctx ends. A failed
// message is requeued once; a second failure moves it to the dead queue.
func (r *RabbitBroker) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("rabbitmq channel is required")
	}

	r.mu.Lock()
	err := r.ensureQueue(channel)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	tag := "mail-worker-" + uuid.NewString()
	deliveries, err := r.consumeCh.Consume(channel, tag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", channel, err)
	}
	defer func() {
		_ = r.consumeCh.Cancel(tag, false)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			if err := handler(ctx, toMessage(delivery)); err != nil {
				_ = delivery.Nack(false, !delivery.Redelivered)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

func (r *RabbitBroker) Close() error {
	var err error
	for _, ch := range []*amqp.Channel{r.consumeCh, r.publishCh} {
		if ch != nil {
			err = errors.Join(err, ignoreClosed(ch.Close()))
		}
	}
	if r.conn != nil {
		err = errors.Join(err, ignoreClosed(r.conn.Close()))
	}
	return err
}

// ensureQueue declares name and its dead-letter queue once per process.
// Callers hold r.mu.
func (r *RabbitBroker) ensureQueue(name string) error {
	if r.declared[name] {
		return nil
	}

	dead := name + deadLetterSuffix
	if _, err := r.publishCh.QueueDeclare(dead, r.durable, r.autoDel, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", dead, err)
	}
	args := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": dead,
	}
	if _, err := r.publishCh.QueueDeclare(name, r.durable, r.autoDel, false, false, args); err != nil {
		return fmt.Errorf("declare %s: %w", name, err)
	}
	r.declared[name] = true
	return nil
}

func toMessage(d amqp.Delivery) Message {
	attrs := make(map[string]string, len(d.Headers)+1)
	for key, value := range d.Headers {
		switch typed := value.(type) {
		case string:
			attrs[key] = typed
		case []byte:
			attrs[key] = string(typed)
		default:
			attrs[key] = fmt.Sprint(value)
		}
	}
	if d.ContentType != "" {
		attrs[contentTypeAttr] = d.ContentType
	}
	return Message{ID: d.MessageId, Data: d.Body, Attributes: attrs}
}

func ignoreClosed(err error) error {
	if errors.Is(err, amqp.ErrClosed) {
		return nil
	}
	return err
}
