package queue

import (
	"errors"

	"github.com/OFFIS-RIT/citegraph/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// retryCount reads x-retries. The broker hands integers back with whatever
// width they were encoded in.
func retryCount(headers amqp091.Table) int {
	switch v := headers["x-retries"].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	case int16:
		return int(v)
	}
	return 0
}

// nextHop decides where a failed message goes: the retry queue with an
// incremented counter, or the dead letter queue.
func nextHop(queueName string, headers amqp091.Table, permanent bool) (string, amqp091.Table) {
	retries := retryCount(headers)
	out := amqp091.Table{}
	for k, v := range headers {
		out[k] = v
	}
	if permanent || retries >= MaxRetries {
		return queueName + "_dlq", out
	}
	out["x-retries"] = int32(retries + 1)
	return queueName + "_retry", out
}

// HandleProcessingError moves msg to its retry or dead letter queue and acks
// the original. If republishing fails the message is requeued instead.
func HandleProcessingError(ch publisher, msg amqp091.Delivery, queueName string, procErr error) {
	var permanent *PermanentError
	target, headers := nextHop(queueName, msg.Headers, errors.As(procErr, &permanent))
	logger.Info("[Queue] rerouting failed message", "queue", queueName, "target", target)

	err := ch.Publish(
		"",
		target,
		false,
		false,
		amqp091.Publishing{
			ContentType:  msg.ContentType,
			Body:         msg.Body,
			Headers:      headers,
			DeliveryMode: amqp091.Persistent,
		},
	)
	if err != nil {
		logger.Error("[Queue] failed to reroute message", "target", target, "err", err)
		_ = msg.Nack(false, true)
		return
	}
	if err := msg.Ack(false); err != nil {
		logger.Error("[Queue] failed to ack message", "err", err)
	}
}
