// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/samber/oops"

	"github.com/agrisetu/agrisetu/internal/config"
)

// Message is the JSON document published for the notification gateway.
type Message struct {
	Channel   string    `json:"channel"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// publisher is the part of *amqp.Channel the notifier uses.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier publishes messages to a durable queue on the default exchange.
type AMQPNotifier struct {
	ch     publisher
	queue  string
	close  func() error
	now    func() time.Time
	logger *slog.Logger
}

// DialAMQP connects to the broker and declares the queue.
func DialAMQP(cfg config.AMQPConfig, logger *slog.Logger) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, oops.Code("NOTIFY_CONNECT_FAILED").With("driver", config.DriverAMQP).Wrap(err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close() //nolint:errcheck // channel error takes precedence
		return nil, oops.Code("NOTIFY_CONNECT_FAILED").With("driver", config.DriverAMQP).Wrap(err)
	}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		_ = conn.Close() //nolint:errcheck // declare error takes precedence
		return nil, oops.Code("NOTIFY_CONNECT_FAILED").
			With("driver", config.DriverAMQP).
			With("queue", cfg.Queue).
			Wrap(err)
	}

	logger.Info("notification queue ready", "queue", cfg.Queue)
	return &AMQPNotifier{
		ch:    ch,
		queue: cfg.Queue,
		close: func() error {
			_ = ch.Close() //nolint:errcheck // connection close reports the failure
			return conn.Close()
		},
		now:    time.Now,
		logger: logger,
	}, nil
}

// Send publishes one persistent email message.
func (n *AMQPNotifier) Send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(Message{
		Channel:   "email",
		To:        to,
		Subject:   subject,
		Body:      body,
		CreatedAt: n.now().UTC(),
	})
	if err != nil {
		return oops.Code("NOTIFY_DELIVERY_FAILED").With("driver", config.DriverAMQP).Wrap(err)
	}

	err = n.ch.PublishWithContext(ctx, "", n.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    n.now().UTC(),
		Body:         payload,
	})
	if err != nil {
		return oops.Code("NOTIFY_DELIVERY_FAILED").
			With("driver", config.DriverAMQP).
			With("queue", n.queue).
			Wrap(err)
	}
	n.logger.DebugContext(ctx, "notification published", "queue", n.queue)
	return nil
}

// Close releases the channel and connection.
func (n *AMQPNotifier) Close() error {
	if n.close == nil {
		return nil
	}
	if err := n.close(); err != nil {
		return oops.Code("NOTIFY_CLOSE_FAILED").With("driver", config.DriverAMQP).Wrap(err)
	}
	return nil
}
