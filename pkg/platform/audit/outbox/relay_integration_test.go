//go:build integration

package outbox_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	kafkaconsumer "claimcheck/internal/platform/kafka/consumer"
	kafkaproducer "claimcheck/internal/platform/kafka/producer"
	audit "claimcheck/pkg/platform/audit"
	auditconsumer "claimcheck/pkg/platform/audit/consumer"
	"claimcheck/pkg/platform/audit/outbox"
	auditpg "claimcheck/pkg/platform/audit/store/postgres"
	"claimcheck/pkg/testutil/containers"
)

type RelaySuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	redpanda *containers.RedpandaContainer
	store    *auditpg.Store
	logger   *slog.Logger
}

func TestRelaySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.redpanda = mgr.GetRedpanda(s.T())
	s.store = auditpg.New(s.postgres.DB)
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *RelaySuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "outbox", "audit_events")
	s.Require().NoError(err)
}

// topicFor gives every test its own topic and consumer group so runs on the
// shared broker never see each other's records.
func topicFor(name string) string {
	return fmt.Sprintf("claimcheck.audit.%s.%d", name, time.Now().UnixNano())
}

func (s *RelaySuite) newProducer(ctx context.Context, topic string) *kafkaproducer.Producer {
	producer, err := kafkaproducer.New([]string{s.redpanda.Broker}, "relay-test")
	s.Require().NoError(err)
	s.T().Cleanup(producer.Close)
	s.Require().NoError(producer.EnsureTopic(ctx, topic, 1, 1))
	return producer
}

func (s *RelaySuite) appendEvent(ctx context.Context, sessionID, action string) {
	err := s.store.Append(ctx, audit.Event{
		Category:  audit.CategoryCompliance,
		Timestamp: time.Now().UTC(),
		UserID:    "user-rev-1",
		SessionID: sessionID,
		ReceiptID: "r_1a2b3c4d",
		Action:    action,
		Decision:  "recorded",
		RequestID: "req-relay",
		Payload:   json.RawMessage(`{"total":"42.10"}`),
	})
	s.Require().NoError(err)
}

func (s *RelaySuite) unpublishedCount(ctx context.Context) int {
	var count int
	err := s.postgres.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`).Scan(&count)
	s.Require().NoError(err)
	return count
}

func (s *RelaySuite) TestRelayOncePublishesAndMarksRows() {
	ctx := context.Background()
	topic := topicFor("marks")
	producer := s.newProducer(ctx, topic)

	s.appendEvent(ctx, "sess-relay-1", "field_edited")
	s.appendEvent(ctx, "sess-relay-1", "validation_completed")
	s.appendEvent(ctx, "sess-relay-1", "submission_recorded")
	s.Equal(3, s.unpublishedCount(ctx))

	relay := outbox.NewRelay(s.postgres.DB, producer, topic, outbox.WithLogger(s.logger))

	n, err := relay.RelayOnce(ctx)
	s.Require().NoError(err)
	s.Equal(3, n)
	s.Zero(s.unpublishedCount(ctx))

	// Nothing left to claim on the next pass.
	n, err = relay.RelayOnce(ctx)
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *RelaySuite) TestRelayHonorsBatchSize() {
	ctx := context.Background()
	topic := topicFor("batch")
	producer := s.newProducer(ctx, topic)

	for i := 0; i < 5; i++ {
		s.appendEvent(ctx, "sess-batch", fmt.Sprintf("field_edited_%d", i))
	}

	relay := outbox.NewRelay(s.postgres.DB, producer, topic,
		outbox.WithLogger(s.logger),
		outbox.WithBatchSize(2),
	)

	for _, want := range []int{2, 2, 1, 0} {
		n, err := relay.RelayOnce(ctx)
		s.Require().NoError(err)
		s.Equal(want, n)
	}
}

// TestRelayedEventsMaterialize runs the full pipeline: outbox rows are
// relayed to the broker, consumed, and written back as queryable rows in
// audit_events.
func (s *RelaySuite) TestRelayedEventsMaterialize() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	topic := topicFor("materialize")
	producer := s.newProducer(ctx, topic)

	s.appendEvent(ctx, "sess-mat-1", "justification_recorded")
	s.appendEvent(ctx, "sess-mat-1", "submission_recorded")

	relay := outbox.NewRelay(s.postgres.DB, producer, topic, outbox.WithLogger(s.logger))
	n, err := relay.RelayOnce(ctx)
	s.Require().NoError(err)
	s.Equal(2, n)

	handler := auditconsumer.NewMaterializeHandler(s.store, s.logger)
	consumer, err := kafkaconsumer.New([]string{s.redpanda.Broker}, topic+".group", []string{topic}, handler, s.logger)
	s.Require().NoError(err)
	defer consumer.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = consumer.Run(ctx)
	}()

	s.Require().Eventually(func() bool {
		var count int
		if err := s.postgres.DB.QueryRowContext(context.Background(),
			`SELECT COUNT(*) FROM audit_events`).Scan(&count); err != nil {
			return false
		}
		return count == 2
	}, 30*time.Second, 250*time.Millisecond, "relayed events never materialized")

	events, err := s.store.ListBySession(context.Background(), "sess-mat-1")
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	for _, event := range events {
		s.Equal("user-rev-1", string(event.UserID))
		s.Equal("r_1a2b3c4d", event.ReceiptID)
	}

	cancel()
	<-done
}

// TestMaterializeIsIdempotent replays the same records twice; the second
// delivery must not duplicate rows.
func (s *RelaySuite) TestMaterializeIsIdempotent() {
	ctx := context.Background()
	topic := topicFor("idempotent")
	producer := s.newProducer(ctx, topic)

	s.appendEvent(ctx, "sess-idem", "field_edited")

	relay := outbox.NewRelay(s.postgres.DB, producer, topic, outbox.WithLogger(s.logger))
	_, err := relay.RelayOnce(ctx)
	s.Require().NoError(err)

	var (
		eventID string
		payload []byte
	)
	err = s.postgres.DB.QueryRowContext(ctx,
		`SELECT id, payload FROM outbox LIMIT 1`).Scan(&eventID, &payload)
	s.Require().NoError(err)

	handler := auditconsumer.NewMaterializeHandler(s.store, s.logger)
	msg := &kafkaconsumer.Message{Key: []byte(eventID), Value: payload}

	s.Require().NoError(handler.Handle(ctx, msg))
	s.Require().NoError(handler.Handle(ctx, msg))

	var count int
	err = s.postgres.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_events`).Scan(&count)
	s.Require().NoError(err)
	s.Equal(1, count)
}
