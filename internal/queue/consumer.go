package queue

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/tazhibayda/workspace-service/internal/log"
)

// Message is one delivery handed to a consumer handler.
type Message struct {
	Key       string
	MessageID string
	RequestID string
	Body      []byte
}

type Handler func(ctx context.Context, m Message) error

type Consumer struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	q    string
}

// NewConsumer declares exchange and queue and binds them with key
// (a topic pattern such as "user.*").
func NewConsumer(url, exchange, queue, key string) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbit: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	qd, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(qd.Name, key, exchange, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	return &Consumer{conn: conn, ch: ch, q: qd.Name}, nil
}

func (c *Consumer) Close() {
	if c == nil {
		return
	}
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// Consume runs workers goroutines until ctx is done. A handler error nacks
// the delivery with requeue.
func (c *Consumer) Consume(ctx context.Context, workers int, handle Handler) error {
	if c == nil || c.ch == nil {
		return fmt.Errorf("consumer is not initialized")
	}
	if workers <= 0 {
		workers = 1
	}

	if err := c.ch.Qos(50, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}
	msgs, err := c.ch.Consume(c.q, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case d, ok := <-msgs:
					if !ok {
						return
					}
					Dispatch(ctx, d, handle)
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	<-ctx.Done()
	wg.Wait()
	return nil
}

// Acknowledger is the part of amqp.Delivery Dispatch settles.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Dispatch hands one delivery to handle and settles it.
func Dispatch(ctx context.Context, d amqp.Delivery, handle Handler) {
	settle(ctx, d, messageOf(d), handle)
}

func messageOf(d amqp.Delivery) Message {
	reqID, _ := d.Headers["X-Request-ID"].(string)
	return Message{Key: d.RoutingKey, MessageID: d.MessageId, RequestID: reqID, Body: d.Body}
}

func settle(ctx context.Context, ack Acknowledger, m Message, handle Handler) {
	if err := handle(ctx, m); err != nil {
		log.L().Warn("handler failed, requeue",
			zap.String("key", m.Key), zap.String("message_id", m.MessageID), zap.Error(err))
		_ = ack.Nack(false, true)
		return
	}
	_ = ack.Ack(false)
}
