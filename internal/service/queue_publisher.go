// Package service holds the application logic between the HTTP handlers and
// the repositories: registration, the movie catalog and the catalog events
// published to RabbitMQ after each change.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/iliyamo/movie-catalog-api/internal/queue"
)

// EventPublisher delivers catalog events.  Callers log failures and carry
// on; an unreachable broker never fails a request.
type EventPublisher interface {
	Publish(ctx context.Context, ev q.CatalogEvent) error
}

// NopPublisher drops every event.  Used when EVENTS_ENABLED is false.
type NopPublisher struct{}

// Publish discards ev.
func (NopPublisher) Publish(context.Context, q.CatalogEvent) error { return nil }

// AMQPPublisher publishes CatalogEvents to the "catalog.changed" queue.
// Each call dials its own connection; catalog writes are rare enough that a
// pooled channel is not worth the reconnect bookkeeping.
type AMQPPublisher struct {
	URL string
	// DialTimeout bounds the TCP connect and AMQP handshake when the
	// caller's context carries no earlier deadline.
	DialTimeout time.Duration
}

// NewAMQPPublisher returns a publisher for the broker at url.
func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{URL: url, DialTimeout: 2 * time.Second}
}

// Publish marks messages persistent and declares the queue durable so events
// survive a broker restart.  Errors are returned unlogged; the caller decides
// how loud a lost event is.
func (p *AMQPPublisher) Publish(ctx context.Context, ev q.CatalogEvent) error {
	conn, err := amqp.DialConfig(p.URL, amqp.Config{Dial: p.dial(ctx)})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		q.CatalogQueueName, // name
		true,               // durable
		false,              // autoDelete
		false,              // exclusive
		false,              // noWait
		nil,                // args
	); err != nil {
		return fmt.Errorf("rabbitmq declare %s: %w", q.CatalogQueueName, err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",                 // default exchange
		q.CatalogQueueName, // routing key = queue name
		false,              // mandatory
		false,              // immediate
		pub,
	); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

// dial connects under ctx and leaves a deadline on the socket that covers
// the handshake.  The amqp client clears it once the connection is open.
func (p *AMQPPublisher) dial(ctx context.Context) func(network, addr string) (net.Conn, error) {
	timeout := p.DialTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return func(network, addr string) (net.Conn, error) {
		deadline := time.Now().Add(timeout)
		if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
			deadline = dl
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
