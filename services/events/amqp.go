package eventsvc

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/trezcool/partnerships/core"
)

const exchangeKind = "topic"

// channel is the subset of *amqp.Channel used to publish events.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes events as JSON on a topic exchange, routed by event type.
type AMQPPublisher struct {
	mu       sync.Mutex // amqp channels are not safe for concurrent publishing
	conn     *amqp.Connection
	ch       channel
	exchange string
}

var _ core.EventPublisher = (*AMQPPublisher)(nil)

// NewAMQPPublisher connects to the broker and declares the durable topic exchange.
func NewAMQPPublisher(conf core.AMQPConfig) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(conf.URL)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to broker")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "opening channel")
	}
	err = ch.ExchangeDeclare(
		conf.Exchange,
		exchangeKind,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errors.Wrapf(err, "declaring exchange %q", conf.Exchange)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: conf.Exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, evt core.Event) error {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "encoding event")
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.New().String(),
		Timestamp:    evt.OccurredAt,
		Type:         evt.Type,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err = p.ch.PublishWithContext(ctx, p.exchange, evt.Type, false, false, msg); err != nil {
		return errors.Wrapf(err, "publishing %s", evt.Type)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		return errors.Wrap(err, "closing channel")
	}
	if p.conn != nil {
		return errors.Wrap(p.conn.Close(), "closing connection")
	}
	return nil
}
