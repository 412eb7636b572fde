package eventsvc

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/trezcool/shule/core"
)

// RabbitMQPublisher publishes events as JSON to a durable queue.
type RabbitMQPublisher struct {
	mu      sync.Mutex // amqp channels are not safe for concurrent publishing
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

var _ core.EventPublisher = (*RabbitMQPublisher)(nil)

func NewRabbitMQPublisher(conf core.RabbitMQConfig) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(conf.URL)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to rabbitmq")
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "opening channel")
	}

	_, err = channel.QueueDeclare(
		conf.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, errors.Wrapf(err, "declaring queue %s", conf.Queue)
	}

	return &RabbitMQPublisher{conn: conn, channel: channel, queue: conf.Queue}, nil
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, evt core.Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", evt.Name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(
		ctx,
		"",      // exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         evt.Name,
			Timestamp:    evt.OccurredAt,
			Body:         body,
		},
	)
	return errors.Wrapf(err, "publishing %s", evt.Name)
}

func (p *RabbitMQPublisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// LogPublisher writes events to the logger. Used when no broker is configured.
type LogPublisher struct {
	logger core.Logger
}

var _ core.EventPublisher = (*LogPublisher)(nil)

func NewLogPublisher(logger core.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, evt core.Event) error {
	p.logger.Debug("event "+evt.Name, map[string]interface{}{
		"occurred_at": core.FormatTimestamp(evt.OccurredAt),
		"payload":     evt.Payload,
	})
	return nil
}
