package queue

import (
	"errors"

	"github.com/rabbitmq/amqp091-go"

	"github.com/chembl/compound-target-pairs-dataset/internal/config"
	"github.com/chembl/compound-target-pairs-dataset/pkg/aggregate"
	"github.com/chembl/compound-target-pairs-dataset/pkg/enrich"
	"github.com/chembl/compound-target-pairs-dataset/pkg/invariant"
	"github.com/chembl/compound-target-pairs-dataset/pkg/logger"
	"github.com/chembl/compound-target-pairs-dataset/pkg/subset"
)

// MaxRetries is the number of redeliveries before a message is dead-lettered.
const MaxRetries = 10

const retriesHeader = "x-retries"

// Retries returns how often msg has been redelivered.
func Retries(msg amqp091.Delivery) int {
	switch v := msg.Headers[retriesHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// Permanent reports whether err fails the same way on every attempt. The
// build is deterministic for a given database, so broken requests and data
// anomalies are never retried.
func Permanent(err error) bool {
	var violation *invariant.Violation
	switch {
	case errors.As(err, &violation),
		errors.Is(err, enrich.ErrIdentityResolution),
		errors.Is(err, aggregate.ErrSubsetNotContained),
		errors.Is(err, subset.ErrThreshold),
		errors.Is(err, config.ErrInvalid),
		errors.Is(err, ErrInvalidRequest):
		return true
	}
	return false
}

// HandleProcessingError routes a message that failed with err to the retry
// queue, or to the dead-letter queue when err is permanent or the message
// has been retried MaxRetries times. The received delivery is acked after
// the copy is published and requeued when publishing fails.
func HandleProcessingError(ch Publisher, msg amqp091.Delivery, queueName string, err error) {
	retries := Retries(msg)

	target := queueName + "_retry"
	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	if Permanent(err) || retries >= MaxRetries {
		target = queueName + "_dlq"
		logger.Info("[Queue] Sending message to DLQ", "dlq", target, "permanent", Permanent(err))
	} else {
		headers[retriesHeader] = int32(retries + 1)
	}

	pubErr := ch.Publish(
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
	if pubErr != nil {
		logger.Error("[Queue] Failed to republish message", "queue", target, "err", pubErr)
		_ = msg.Nack(false, true)
		return
	}
	if err := msg.Ack(false); err != nil {
		logger.Error("[Queue] Failed to ack message", "err", err)
	}
}
