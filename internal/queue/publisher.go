package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Publisher dial limits.
const (
	DefaultDialTimeout = 2 * time.Second
	DefaultCooldown    = 15 * time.Second
)

// ErrBrokerCooling is returned while the publisher waits out the cooldown
// that follows a failed connection attempt.
var ErrBrokerCooling = errors.New("rabbitmq: broker unavailable, retry later")

// Publisher sends activity events to a durable RabbitMQ queue.  The
// connection is dialled lazily and re-dialled after a failure, so a broker
// outage only costs the events published while it lasts.  A dial is bounded
// by DialTimeout and by the caller's context; after a failed dial no new
// attempt is made for Cooldown.
type Publisher struct {
	url   string
	queue string
	log   logrus.FieldLogger

	DialTimeout time.Duration
	Cooldown    time.Duration

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	failedAt time.Time
}

// NewPublisher returns a publisher for url routing to queue.
func NewPublisher(url, queue string, log logrus.FieldLogger) *Publisher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &Publisher{
		url:         url,
		queue:       queue,
		log:         log,
		DialTimeout: DefaultDialTimeout,
		Cooldown:    DefaultCooldown,
	}
}

// Publish sends ev as a persistent JSON message.  Errors are logged and
// returned; callers are free to ignore them.
func (p *Publisher) Publish(ctx context.Context, ev ActivityEvent) error {
	if ev.OccurredAt == "" {
		ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureChannel(ctx); err != nil {
		p.log.WithError(err).WithField("event", ev.Type).Warn("rabbitmq: channel unavailable")
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.log.WithError(err).WithField("event", ev.Type).Warn("rabbitmq: publish failed")
		p.reset()
		return err
	}
	return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

func (p *Publisher) ensureChannel(ctx context.Context) error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.reset()
	if !p.failedAt.IsZero() && time.Since(p.failedAt) < p.Cooldown {
		return ErrBrokerCooling
	}
	if err := p.open(ctx); err != nil {
		p.failedAt = time.Now()
		return err
	}
	p.failedAt = time.Time{}
	return nil
}

func (p *Publisher) open(ctx context.Context) error {
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      p.dialer(ctx),
	})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("channel open: %w", err)
	}
	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

// dialer connects within DialTimeout and the deadline of ctx.  The same
// deadline covers the AMQP handshake; the library clears it once the
// connection is open.
func (p *Publisher) dialer(ctx context.Context) func(network, addr string) (net.Conn, error) {
	return func(network, addr string) (net.Conn, error) {
		timeout := p.DialTimeout
		if timeout <= 0 {
			timeout = DefaultDialTimeout
		}
		deadline := time.Now().Add(timeout)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		d := net.Dialer{Deadline: deadline}
		conn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		if err := conn.SetDeadline(deadline); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return conn, nil
	}
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// NopPublisher drops every event.  It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ActivityEvent) error { return nil }
