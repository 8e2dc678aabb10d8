package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "claimcheck/pkg/domain"
	audit "claimcheck/pkg/platform/audit"
	"claimcheck/pkg/platform/audit/store/memory"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	userID := id.UserID("reviewer-1")
	event := audit.Event{
		UserID: userID,
		Action: string(audit.EventSessionStarted),
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	events, err := pub.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventSessionStarted), events[0].Action)
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))
	defer pub.Close()

	userID := id.UserID("reviewer-2")
	event := audit.Event{
		UserID: userID,
		Action: string(audit.EventExpenseSubmitted),
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	// Wait for async processing
	time.Sleep(100 * time.Millisecond)

	events, err := pub.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventExpenseSubmitted), events[0].Action)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	userID := id.UserID("reviewer-3")

	// Emit multiple events
	for range 10 {
		event := audit.Event{
			UserID: userID,
			Action: string(audit.EventFieldEdited),
		}
		err := pub.Emit(context.Background(), event)
		require.NoError(t, err)
	}

	// Close should drain all events
	pub.Close()

	events, err := store.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_BufferFull_DropsEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	userID := id.UserID("reviewer-4")

	// Fill the buffer with concurrent writes
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			event := audit.Event{
				UserID: userID,
				Action: string(audit.EventFieldEdited),
			}
			_ = pub.Emit(context.Background(), event)
		}()
	}
	wg.Wait()

	// Some events should have been dropped (buffer size 1)
	// Just verify no panic and publisher still works
}

func TestPublisher_SetsTimestampAndCategory(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	userID := id.UserID("reviewer-5")
	event := audit.Event{
		UserID: userID,
		Action: string(audit.EventExpenseSubmitted),
		// Timestamp and Category not set
	}

	before := time.Now()
	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)
	after := time.Now()

	events, err := pub.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.True(t, !events[0].Timestamp.Before(before), "timestamp should be >= before")
	assert.True(t, !events[0].Timestamp.After(after), "timestamp should be <= after")
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	userID := id.UserID("reviewer-6")
	customTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	event := audit.Event{
		UserID:    userID,
		Action:    string(audit.EventSessionStarted),
		Timestamp: customTime,
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	events, err := pub.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, customTime, events[0].Timestamp)
}

func TestPublisher_ContextCancellation(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	// Fill buffer first
	_ = pub.Emit(context.Background(), audit.Event{
		UserID: id.UserID("reviewer-7"),
		Action: string(audit.EventFieldEdited),
	})

	// Wait for the event to be processed
	time.Sleep(50 * time.Millisecond)

	// Fill buffer again
	_ = pub.Emit(context.Background(), audit.Event{
		UserID: id.UserID("reviewer-7"),
		Action: string(audit.EventFieldEdited),
	})

	// Try to emit with cancelled context when buffer is full
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pub.Emit(ctx, audit.Event{
		UserID: id.UserID("reviewer-7"),
		Action: string(audit.EventFieldEdited),
	})

	// Should either succeed (buffer not full) or return context error or buffer full error
	if err != nil {
		assert.True(t, err == context.Canceled || err == ErrBufferFull,
			"expected context.Canceled or buffer full error, got: %v", err)
	}
}

func TestPublisher_EmitAfterCloseFails(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))
	pub.Close()

	err := pub.Emit(context.Background(), audit.Event{
		UserID: id.UserID("reviewer-8"),
		Action: string(audit.EventSessionCleared),
	})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPublisher_MultipleEvents(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	userID := id.UserID("reviewer-9")

	events := []audit.Event{
		{UserID: userID, Action: string(audit.EventSessionStarted)},
		{UserID: userID, Action: string(audit.EventValidationRequested)},
		{UserID: userID, Action: string(audit.EventExpenseSubmitted)},
	}

	for _, event := range events {
		err := pub.Emit(context.Background(), event)
		require.NoError(t, err)
	}

	result, err := pub.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, result, 3)

	assert.Equal(t, string(audit.EventSessionStarted), result[0].Action)
	assert.Equal(t, string(audit.EventValidationRequested), result[1].Action)
	assert.Equal(t, string(audit.EventExpenseSubmitted), result[2].Action)
}

func TestPublisher_DifferentUsers(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	userID1 := id.UserID("reviewer-a")
	userID2 := id.UserID("reviewer-b")

	err := pub.Emit(context.Background(), audit.Event{
		UserID: userID1,
		Action: string(audit.EventSessionStarted),
	})
	require.NoError(t, err)

	err = pub.Emit(context.Background(), audit.Event{
		UserID: userID2,
		Action: string(audit.EventExpenseSubmitted),
	})
	require.NoError(t, err)

	events1, err := pub.List(context.Background(), userID1)
	require.NoError(t, err)
	require.Len(t, events1, 1)
	assert.Equal(t, string(audit.EventSessionStarted), events1[0].Action)

	events2, err := pub.List(context.Background(), userID2)
	require.NoError(t, err)
	require.Len(t, events2, 1)
	assert.Equal(t, string(audit.EventExpenseSubmitted), events2[0].Action)
}
