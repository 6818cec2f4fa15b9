package mailer

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitSink publishes mail as JSON to a topic exchange; a separate
// delivery worker consumes and sends it.
type RabbitSink struct {
	conn       *amqp091.Connection
	channel    *amqp091.Channel
	exchange   string
	routingKey string
	logger     *zap.Logger
}

// NewRabbitSink connects to RabbitMQ and declares the exchange.
func NewRabbitSink(url, exchange, routingKey string, logger *zap.Logger) (*RabbitSink, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dial rabbitmq")
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "declare exchange %s", exchange)
	}
	return &RabbitSink{conn: conn, channel: ch, exchange: exchange, routingKey: routingKey, logger: logger}, nil
}

// Send publishes one persistent message. The mail id doubles as the AMQP
// message id so consumers can drop redeliveries.
func (s *RabbitSink) Send(ctx context.Context, mail Mail) error {
	body, err := json.Marshal(mail)
	if err != nil {
		return errors.WithStack(err)
	}
	err = s.channel.PublishWithContext(ctx, s.exchange, s.routingKey+"."+mail.EventType, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    mail.ID,
		Timestamp:    mail.CreatedAt,
		Body:         body,
	})
	return errors.Wrapf(err, "publish mail %s", mail.ID)
}

// Close terminates the connection.
func (s *RabbitSink) Close() error {
	if s == nil {
		return nil
	}
	if err := s.channel.Close(); err != nil {
		s.logger.Warn("close channel", zap.Error(err))
	}
	return s.conn.Close()
}

// Ping reports whether the broker connection and channel are still open.
func (s *RabbitSink) Ping(context.Context) error {
	if s == nil || s.conn == nil {
		return errors.New("rabbitmq sink not configured")
	}
	if s.conn.IsClosed() {
		return errors.New("rabbitmq connection closed")
	}
	if s.channel.IsClosed() {
		return errors.New("rabbitmq channel closed")
	}
	return nil
}
