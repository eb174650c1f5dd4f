package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"wealthflow/internal/log"
)

const maxBackoff = 30 * time.Second

var errDeliveriesClosed = errors.New("delivery channel closed")

// Handler processes one decoded event. A returned error requeues the message.
type Handler func(ctx context.Context, e *TransactionEvent) error

// consumeChannel is the part of *amqp091.Channel the consumer needs.
type consumeChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp091.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error)
	Close() error
}

type ConsumerConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
	Queue      string
}

type Consumer struct {
	conn    *amqp091.Connection
	channel consumeChannel
	cfg     ConsumerConfig
	logger  *log.Logger
}

// DialConsumer connects and binds a durable queue to the event exchange.
func DialConsumer(cfg ConsumerConfig, logger *log.Logger) (*Consumer, error) {
	conn, err := amqp091.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	c, err := newConsumer(ch, cfg, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func newConsumer(ch consumeChannel, cfg ConsumerConfig, logger *log.Logger) (*Consumer, error) {
	if logger == nil {
		logger = log.Discard()
	}
	c := &Consumer{channel: ch, cfg: cfg, logger: logger.WithComponent(log.ComponentEvents)}
	if err := c.setup(); err != nil {
		ch.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return c, nil
}

func (c *Consumer) setup() error {
	err := c.channel.ExchangeDeclare(
		c.cfg.Exchange, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.cfg.Queue, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := c.channel.QueueBind(c.cfg.Queue, c.cfg.RoutingKey, c.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Consume delivers events to handler until ctx ends or the broker closes
// the delivery channel. Undecodable messages are dropped; handler errors
// requeue.
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	msgs, err := c.channel.Consume(
		c.cfg.Queue, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.InfoContext(ctx, "Started consuming transaction events", "queue", c.cfg.Queue)

	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errDeliveriesClosed
			}

			e, err := EventFromJSON(delivery.Body)
			if err != nil {
				c.logger.ErrorContext(ctx, "Failed to unmarshal event", log.FieldError, err)
				_ = delivery.Nack(false, false)
				continue
			}

			if err := handler(ctx, e); err != nil {
				c.logger.ErrorContext(ctx, "Failed to handle event",
					log.FieldError, err,
					"kind", e.Kind,
					log.FieldTxID, e.ID.String())
				_ = delivery.Nack(false, true)
				continue
			}

			_ = delivery.Ack(false)
		}
	}
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Subscribe consumes until ctx ends, redialing with exponential backoff
// whenever the broker connection is lost.
func Subscribe(ctx context.Context, cfg ConsumerConfig, logger *log.Logger, handler Handler) error {
	return subscribe(ctx, func() (*Consumer, error) { return DialConsumer(cfg, logger) }, logger, handler)
}

func subscribe(ctx context.Context, dial func() (*Consumer, error), logger *log.Logger, handler Handler) error {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentEvents)

	for attempt := 0; ; attempt++ {
		c, err := dial()
		if err == nil {
			attempt = 0
			err = c.Consume(ctx, handler)
			c.Close()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isConnectionError(err) {
			return err
		}

		wait := exponentialBackoff(attempt)
		logger.WarnContext(ctx, "AMQP connection lost, retrying",
			log.FieldError, err,
			"attempt", attempt+1,
			"backoff", wait.String())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func exponentialBackoff(attempt int) time.Duration {
	if attempt > 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) || errors.Is(err, errDeliveriesClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection refused", "connection reset", "connection closed", "channel closed", "eof", "no such host"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
