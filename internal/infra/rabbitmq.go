// README: RabbitMQ publisher for domain events consumed by the Discord bot.
package infra

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange = "scumfare.events"

	maxDialTimeout = 5 * time.Second
)

// AMQPPublisher publishes persistent JSON messages to a topic exchange with publisher
// confirms. A broken connection is redialled on the next Publish. Publishes are
// serialised on one channel; callers waiting their turn give up when ctx ends.
type AMQPPublisher struct {
	url    string
	logger *slog.Logger

	sem  chan struct{}
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url string, logger *slog.Logger) (*AMQPPublisher, error) {
	p := &AMQPPublisher{url: url, logger: logger, sem: make(chan struct{}, 1)}
	ctx, cancel := context.WithTimeout(context.Background(), maxDialTimeout)
	defer cancel()
	if err := p.acquire(ctx); err != nil {
		return nil, err
	}
	defer p.release()
	if err := p.connectLocked(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	if err := p.acquire(ctx); err != nil {
		return fmt.Errorf("rabbitmq publish %s: %w", routingKey, err)
	}
	defer p.release()

	if p.conn == nil || p.conn.IsClosed() || p.ch == nil {
		if err := p.connectLocked(ctx); err != nil {
			return err
		}
	}

	confirm, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, EventsExchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		p.resetLocked()
		return fmt.Errorf("rabbitmq publish %s: %w", routingKey, err)
	}
	// An unconfirmed delivery leaves the channel's confirm sequence unknown; start over
	// on a fresh channel next time.
	ok, err := confirm.WaitContext(ctx)
	if err != nil {
		p.resetLocked()
		return fmt.Errorf("rabbitmq confirm %s: %w", routingKey, err)
	}
	if !ok {
		p.resetLocked()
		return fmt.Errorf("rabbitmq publish %s: broker nack", routingKey)
	}
	return nil
}

func (p *AMQPPublisher) Close() {
	p.sem <- struct{}{}
	defer p.release()
	p.resetLocked()
}

func (p *AMQPPublisher) acquire(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *AMQPPublisher) release() { <-p.sem }

// dialTimeout caps the connect at maxDialTimeout or whatever is left of ctx.
func dialTimeout(ctx context.Context) (time.Duration, error) {
	timeout := maxDialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		left := time.Until(deadline)
		if left <= 0 {
			return 0, context.DeadlineExceeded
		}
		if left < timeout {
			timeout = left
		}
	}
	return timeout, nil
}

func (p *AMQPPublisher) connectLocked(ctx context.Context) error {
	p.resetLocked()

	timeout, err := dialTimeout(ctx)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(EventsExchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("rabbitmq declare exchange: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("rabbitmq enable confirms: %w", err)
	}
	p.conn, p.ch = conn, ch
	p.logger.Info("rabbitmq publisher connected", "exchange", EventsExchange)
	return nil
}

func (p *AMQPPublisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
