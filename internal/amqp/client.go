package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"splitter/internal/gateway"
	"splitter/internal/log"

	"github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/singleflight"
)

const (
	publishTimeout = 5 * time.Second
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	maxBackoff     = 30 * time.Second
)

// Handler processes one decoded notification. Returning an error asks for a redelivery.
type Handler func(ctx context.Context, msg *NotificationMessage) error

// Client publishes notifications to, and consumes them from, a durable
// direct exchange bound to a single queue.
type Client struct {
	url          string
	exchangeName string
	queueName    string
	logger       *log.Logger

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	breaker *breaker
	redials singleflight.Group
	dial    func() error
}

var _ gateway.Gateway = (*Client)(nil)

func NewClient(url, exchangeName, queueName string, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Discard()
	}
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       logger.WithComponent(log.ComponentAMQP),
		breaker:      newBreaker(maxFailures, openTimeout),
	}
	client.dial = client.connect
	if err := client.connect(); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *Client) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()

	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := setup(channel, c.exchangeName, c.queueName); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}
	c.conn = conn
	c.channel = channel
	return nil
}

func setup(ch *amqp091.Channel, exchange, queue string) error {
	err := ch.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// routing key is the queue name
	if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// openChannel returns the current channel, or nil when it is unusable.
func (c *Client) openChannel() *amqp091.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel == nil || c.channel.IsClosed() {
		return nil
	}
	return c.channel
}

// reopen redials the broker unless another caller already restored the
// channel. Concurrent callers share one dial.
func (c *Client) reopen() error {
	_, err, _ := c.redials.Do("dial", func() (any, error) {
		if c.openChannel() != nil {
			return nil, nil
		}
		dial := c.dial
		if dial == nil {
			dial = c.connect
		}
		return nil, dial()
	})
	return err
}

// discard drops ch if it is still the current channel, leaving a channel
// another caller has since reopened untouched.
func (c *Client) discard(ch *amqp091.Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel == ch {
		c.closeLocked()
	}
}

func (c *Client) currentChannel() (*amqp091.Channel, error) {
	if ch := c.openChannel(); ch != nil {
		return ch, nil
	}
	if err := c.reopen(); err != nil {
		return nil, err
	}
	if ch := c.openChannel(); ch != nil {
		return ch, nil
	}
	return nil, amqp091.ErrClosed
}

// Deliver publishes one notification as a persistent JSON message.
func (c *Client) Deliver(ctx context.Context, title, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := NewNotificationMessage(title, body)
	payload, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if !c.breaker.allow() {
		return fmt.Errorf("publish notification: %w", ErrCircuitOpen)
	}

	ch, err := c.currentChannel()
	if err != nil {
		c.breaker.failure()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    msg.ID,
			Timestamp:    msg.Timestamp,
			Body:         payload,
		},
	)
	if err != nil {
		c.breaker.failure()
		if isConnectionError(err) {
			c.discard(ch)
		}
		return fmt.Errorf("publish message: %w", err)
	}
	c.breaker.success()

	c.logger.InfoContext(ctx, "Published notification",
		log.FieldMessageID, msg.ID,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// ConsumeNotifications reads the queue with manual acknowledgement until
// ctx is done or the channel closes.
func (c *Client) ConsumeNotifications(ctx context.Context, handler Handler) error {
	ch, err := c.currentChannel()
	if err != nil {
		return err
	}
	msgs, err := ch.Consume(
		c.queueName, // queue
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

	c.logger.InfoContext(ctx, "Started consuming notifications", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return amqp091.ErrClosed
			}
			c.handleDelivery(ctx, delivery, handler)
		}
	}
}

// ConsumeWithReconnect keeps ConsumeNotifications running across broker
// restarts, backing off exponentially between attempts.
func (c *Client) ConsumeWithReconnect(ctx context.Context, handler Handler) error {
	attempt := 0
	for {
		err := c.ConsumeNotifications(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isConnectionError(err) {
			return err
		}

		wait := exponentialBackoff(attempt)
		c.logger.WarnContext(ctx, "Consumer lost connection, retrying",
			log.FieldError, err, "attempt", attempt+1, "backoff", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		if err := c.reopen(); err != nil {
			c.logger.WarnContext(ctx, "Reconnect failed", log.FieldError, err)
			attempt++
			continue
		}
		attempt = 0
	}
}

// handleDelivery acks processed messages, drops malformed ones and gives a
// failed message exactly one more try.
func (c *Client) handleDelivery(ctx context.Context, d amqp091.Delivery, handler Handler) {
	msg, err := NotificationMessageFromJSON(d.Body)
	if err != nil {
		c.logger.LogError(ctx, "Dropping malformed message", err, log.OpParse)
		_ = d.Nack(false, false)
		return
	}

	if err := handler(ctx, msg); err != nil {
		requeue := !d.Redelivered
		c.logger.LogError(ctx, "Failed to handle notification", err, log.OpConsume,
			log.FieldMessageID, msg.ID,
			"requeue", requeue)
		_ = d.Nack(false, requeue)
		return
	}

	_ = d.Ack(false)
	c.logger.DebugContext(ctx, "Notification processed", log.FieldMessageID, msg.ID)
}

func exponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 5 {
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
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	s := err.Error()
	for _, marker := range []string{"connection", "EOF", "broken pipe", "closed network"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

func (c *Client) closeLocked() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var err error
	if c.channel != nil {
		err = c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		if cerr := c.conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
		c.conn = nil
	}
	return err
}
