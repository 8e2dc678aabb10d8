// Package consumer wraps the franz-go client for group consumption.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is one consumed Kafka record, decoupled from the client library so
// handlers stay testable.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
}

// Handler processes consumed messages. Returning nil commits the record;
// returning an error leaves it uncommitted for redelivery.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// Consumer polls a topic set as part of a consumer group and dispatches each
// record to the handler.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  *slog.Logger
}

// New joins the consumer group for the given topics.
func New(brokers []string, group string, topics []string, handler Handler, logger *slog.Logger) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topics...),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{client: client, handler: handler, logger: logger}, nil
}

// Run polls until ctx is cancelled or the client is closed.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			if errors.Is(err, context.Canceled) {
				return
			}
			c.logger.Error("kafka fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		fetches.EachRecord(func(record *kgo.Record) {
			msg := &Message{
				Topic:     record.Topic,
				Partition: record.Partition,
				Offset:    record.Offset,
				Key:       record.Key,
				Value:     record.Value,
				Timestamp: record.Timestamp,
			}
			if err := c.handler.Handle(ctx, msg); err != nil {
				c.logger.Error("message handling failed, leaving uncommitted",
					"topic", record.Topic,
					"offset", record.Offset,
					"error", err,
				)
				return
			}
			if err := c.client.CommitRecords(ctx, record); err != nil {
				c.logger.Error("commit failed",
					"topic", record.Topic,
					"offset", record.Offset,
					"error", err,
				)
			}
		})
	}
}

// Close leaves the group and releases the client.
func (c *Consumer) Close() {
	c.client.Close()
}
