package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	appID          = "workspace-service"
	publishTimeout = 3 * time.Second
)

// ErrNacked is returned when the broker refused to take an event.
var ErrNacked = errors.New("queue: event nacked by broker")

// RabbitPublisher publishes account events on a topic exchange with publisher
// confirms: Publish returns once the broker has taken responsibility for the
// event.
type RabbitPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel

	// one outstanding confirm at a time keeps delivery tags in order
	mu sync.Mutex
}

func NewRabbit(url, exchange string) (Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbit dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbit channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("confirm mode: %w", err)
	}
	return &RabbitPublisher{conn: conn, ch: ch}, nil
}

func (p *RabbitPublisher) Close() error {
	if p == nil {
		return nil
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	return nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, exchange, key string, event any, reqID string) error {
	if p == nil || p.ch == nil {
		return nil
	}
	msg, err := envelope(key, event, reqID, time.Now())
	if err != nil {
		return err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, publishTimeout)
		defer cancel()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	dc, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, msg)
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	if dc == nil {
		return nil
	}
	acked, err := dc.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("confirm %s: %w", key, err)
	}
	if !acked {
		return fmt.Errorf("%w: %s", ErrNacked, key)
	}
	return nil
}

// envelope wraps an event in the message layout the notifier consumes. The
// routing key doubles as the message type.
func envelope(key string, event any, reqID string, at time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode %s: %w", key, err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
		MessageId:    uuid.NewString(),
		Timestamp:    at.UTC(),
		Type:         key,
		AppId:        appID,
		Headers:      amqp.Table{},
	}
	if reqID != "" {
		msg.Headers["X-Request-ID"] = reqID
		msg.CorrelationId = reqID
	}
	return msg, nil
}
