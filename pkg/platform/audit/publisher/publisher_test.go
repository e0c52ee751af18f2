package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "certguard/pkg/platform/audit"
	"certguard/pkg/platform/audit/store/memory"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.Event{
		Type:     audit.EventDuplicateDetected,
		IssuerID: "issuer-1",
	})
	require.NoError(t, err)

	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventDuplicateDetected, events[0].Type)
	assert.NotEmpty(t, events[0].ID)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	for range 10 {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{Type: audit.EventOverrideRequested}))
	}

	pub.Close()

	events, err := store.ListByType(context.Background(), audit.EventOverrideRequested)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_EmitAfterClose(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(1))
	pub.Close()
	pub.Close()

	err := pub.Emit(context.Background(), audit.Event{Type: audit.EventOverrideApproved})
	assert.ErrorIs(t, err, ErrClosed)
}

type blockingStore struct {
	release chan struct{}
	mu      sync.Mutex
	events  []audit.Event
}

func (b *blockingStore) Append(_ context.Context, e audit.Event) error {
	<-b.release
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
	return nil
}

func TestPublisher_BufferFull(t *testing.T) {
	store := &blockingStore{release: make(chan struct{})}
	pub := NewPublisher(store, WithAsyncBuffer(1))

	// The worker takes the first event and blocks in Append; the second fills
	// the buffer; the third has nowhere to go.
	require.NoError(t, pub.Emit(context.Background(), audit.Event{Type: audit.EventDuplicateDetected}))
	require.Eventually(t, func() bool {
		return pub.Emit(context.Background(), audit.Event{Type: audit.EventDuplicateDetected}) == nil
	}, time.Second, 5*time.Millisecond)

	err := pub.Emit(context.Background(), audit.Event{Type: audit.EventDuplicateDetected})
	assert.ErrorIs(t, err, ErrBufferFull)

	close(store.release)
	pub.Close()
	assert.Len(t, store.events, 2)
}

func TestPublisher_Timestamps(t *testing.T) {
	fixed := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithClock(func() time.Time { return fixed }))
	defer pub.Close()

	custom := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, pub.Emit(context.Background(), audit.Event{Type: audit.EventOverrideRequested}))
	require.NoError(t, pub.Emit(context.Background(), audit.Event{Type: audit.EventOverrideRejected, Timestamp: custom}))

	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, fixed, events[0].Timestamp)
	assert.Equal(t, custom, events[1].Timestamp)
}

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error { return errors.New("sink down") }

func TestPublisher_SyncPropagatesStoreError(t *testing.T) {
	pub := NewPublisher(failingStore{})
	defer pub.Close()
	err := pub.Emit(context.Background(), audit.Event{Type: audit.EventOverrideApproved})
	assert.EqualError(t, err, "sink down")
}
