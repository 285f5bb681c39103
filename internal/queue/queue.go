package queue

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/OFFIS-RIT/citegraph/internal/util"
	"github.com/OFFIS-RIT/citegraph/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

const (
	AuditQueue     = "audit_queue"
	PubSubExchange = "pubsub_exchange"
	CompletedTopic = "audit.completed"

	MaxRetries   = 10
	RetryDelayMs = 10000
)

// ConnURL builds the broker URL from the RABBITMQ_* variables.
func ConnURL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(util.GetEnvString("RABBITMQ_USER", "guest"), util.GetEnvString("RABBITMQ_PASSWORD", "guest")),
		Host:   util.GetEnvString("RABBITMQ_HOST", "localhost") + ":" + util.GetEnvString("RABBITMQ_PORT", "5672"),
		Path:   "/",
	}
	return u.String()
}

// Init dials RabbitMQ, retrying for a while so the worker can start before
// the broker is ready.
func Init(ctx context.Context) (*amqp091.Connection, error) {
	var conn *amqp091.Connection
	err := util.RetryErrWithDelay(ctx, 10, 2*time.Second, func(ctx context.Context) error {
		c, err := amqp091.Dial(ConnURL())
		if err != nil {
			logger.Warn("[Queue] RabbitMQ not reachable yet", "err", err)
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

type declarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
}

// SetupQueues declares the topic exchange and, per work queue, a dead
// letter queue and a retry queue whose expired messages flow back into the
// work queue.
func SetupQueues(ch declarer, queueNames []string) error {
	if err := ch.ExchangeDeclare(PubSubExchange, "topic", false, true, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", PubSubExchange, err)
	}

	for _, name := range queueNames {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", name, err)
		}

		dlqName := name + "_dlq"
		if _, err := ch.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", dlqName, err)
		}

		retryName := name + "_retry"
		_, err := ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(RetryDelayMs),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", retryName, err)
		}
	}

	return nil
}

type publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

func PublishFIFO(ch publisher, queueName string, data []byte) error {
	return ch.Publish(
		"",
		queueName,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         data,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
		},
	)
}

func PublishTopic(ch publisher, topic string, data []byte) error {
	return ch.Publish(
		PubSubExchange,
		topic,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         data,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
		},
	)
}
