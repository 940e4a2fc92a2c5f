package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/wordle-cup/internal/domain/cup"
	"github.com/alem-hub/wordle-cup/internal/domain/shared"
)

func testEvent() shared.Event {
	return cup.NewCupEndedEvent(cup.CupResult{Cup: "2024-3", Points: 21}, "Anna")
}

func TestInMemoryEventBus_SyncDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: false})
	defer bus.Close()

	var typed, all int
	require.NoError(t, bus.Subscribe(shared.EventCupEnded, func(shared.Event) error { typed++; return nil }))
	require.NoError(t, bus.Subscribe(shared.EventScoreRecorded, func(shared.Event) error {
		t.Fatal("wrong handler called")
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { all++; return nil }))

	require.NoError(t, bus.Publish(testEvent()))
	assert.Equal(t, 1, typed)
	assert.Equal(t, 1, all)
}

func TestInMemoryEventBus_HandlerFailuresAreContained(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: false})
	defer bus.Close()

	called := false
	require.NoError(t, bus.Subscribe(shared.EventCupEnded, func(shared.Event) error { panic("boom") }))
	require.NoError(t, bus.Subscribe(shared.EventCupEnded, func(shared.Event) error { return errors.New("fail") }))
	require.NoError(t, bus.Subscribe(shared.EventCupEnded, func(shared.Event) error { called = true; return nil }))

	assert.NoError(t, bus.Publish(testEvent()))
	assert.True(t, called)
}

func TestInMemoryEventBus_ExecuteRecoversPanic(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: false})
	err := bus.execute(testEvent(), func(shared.Event) error { panic("boom") })
	assert.ErrorIs(t, err, ErrHandlerPanic)
}

func TestInMemoryEventBus_AsyncDeliveryAndClose(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 2})

	var count int32
	require.NoError(t, bus.Subscribe(shared.EventCupEnded, func(shared.Event) error {
		atomic.AddInt32(&count, 1)
		return nil
	}))

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(testEvent()))
	}
	require.NoError(t, bus.Close())
	assert.Equal(t, int32(10), atomic.LoadInt32(&count), "close drains queued events")

	assert.ErrorIs(t, bus.Publish(testEvent()), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventCupEnded, func(shared.Event) error { return nil }), ErrEventBusClosed)
	assert.NoError(t, bus.Close())
}

func TestInMemoryEventBus_OrderedTypesKeepPublishOrder(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 4,
		Ordered:        []shared.EventType{shared.EventCupEnded},
	})

	var mu sync.Mutex
	var seen []string
	require.NoError(t, bus.Subscribe(shared.EventCupEnded, func(e shared.Event) error {
		// The first event is the slowest; a pool would let the others pass it.
		if e.AggregateID() == "2024-1" {
			time.Sleep(30 * time.Millisecond)
		}
		mu.Lock()
		seen = append(seen, e.AggregateID())
		mu.Unlock()
		return nil
	}))

	keys := []cup.CupKey{"2024-1", "2024-2", "2024-3", "2024-4"}
	for _, k := range keys {
		require.NoError(t, bus.Publish(cup.NewCupEndedEvent(cup.CupResult{Cup: k}, "")))
	}
	require.NoError(t, bus.Close())

	assert.Equal(t, []string{"2024-1", "2024-2", "2024-3", "2024-4"}, seen)
	assert.ErrorIs(t, bus.Publish(testEvent()), ErrEventBusClosed)
}

func TestInMemoryEventBus_RejectsNil(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{})
	defer bus.Close()

	assert.Error(t, bus.Publish(nil))
	assert.Error(t, bus.Subscribe(shared.EventCupEnded, nil))
	assert.Error(t, bus.SubscribeAll(nil))
}

// fakeRedis loops published messages back to its subscribers.
type fakeRedis struct {
	mu        sync.Mutex
	ch        chan RedisMessage
	published [][]byte
	failPub   bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{ch: make(chan RedisMessage, 16)}
}

func (f *fakeRedis) Publish(_ context.Context, channel string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPub {
		return errors.New("redis down")
	}
	f.published = append(f.published, payload)
	f.ch <- RedisMessage{Channel: channel, Payload: string(payload)}
	return nil
}

func (f *fakeRedis) Subscribe(context.Context, ...string) (<-chan RedisMessage, error) {
	return f.ch, nil
}

func (f *fakeRedis) Close() error { return nil }

func (f *fakeRedis) inject(t *testing.T, env eventEnvelope) {
	t.Helper()
	data, err := json.Marshal(env)
	require.NoError(t, err)
	f.ch <- RedisMessage{Payload: string(data)}
}

func TestRedisEventBus_OwnMessagesDeliveredOnce(t *testing.T) {
	client := newFakeRedis()
	bus, err := NewRedisEventBus(RedisEventBusConfig{
		Client:         client,
		InstanceID:     "bot",
		LocalBusConfig: InMemoryEventBusConfig{AsyncMode: false},
	})
	require.NoError(t, err)

	var count int32
	require.NoError(t, bus.Subscribe(shared.EventCupEnded, func(shared.Event) error {
		atomic.AddInt32(&count, 1)
		return nil
	}))

	require.NoError(t, bus.Publish(testEvent()))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, bus.Close())

	assert.Equal(t, int32(1), atomic.LoadInt32(&count))
	assert.Len(t, client.published, 1)
}

func TestRedisEventBus_RemoteEventReconstructed(t *testing.T) {
	client := newFakeRedis()
	bus, err := NewRedisEventBus(RedisEventBusConfig{
		Client:         client,
		InstanceID:     "bot",
		LocalBusConfig: InMemoryEventBusConfig{AsyncMode: false},
	})
	require.NoError(t, err)

	got := make(chan shared.Event, 1)
	require.NoError(t, bus.Subscribe(shared.EventCupEnded, func(e shared.Event) error {
		got <- e
		return nil
	}))

	client.inject(t, eventEnvelope{
		InstanceID:  "worker",
		EventType:   shared.EventCupEnded,
		AggregateID: "2024-3",
		OccurredAt:  time.Now(),
		Payload:     testEvent().Payload(),
	})

	select {
	case e := <-got:
		assert.Equal(t, "2024-3", e.AggregateID())
		assert.Equal(t, "Anna", shared.PayloadString(e.Payload(), "winner_name"))
		points, ok := shared.PayloadInt64(e.Payload(), "points")
		assert.True(t, ok)
		assert.Equal(t, int64(21), points)
	case <-time.After(time.Second):
		t.Fatal("remote event not delivered")
	}
	require.NoError(t, bus.Close())
}

func TestRedisEventBus_PublishFailureStillDeliversLocally(t *testing.T) {
	client := newFakeRedis()
	client.failPub = true
	bus, err := NewRedisEventBus(RedisEventBusConfig{
		Client:         client,
		LocalBusConfig: InMemoryEventBusConfig{AsyncMode: false},
	})
	require.NoError(t, err)
	defer bus.Close()

	called := false
	require.NoError(t, bus.Subscribe(shared.EventCupEnded, func(shared.Event) error { called = true; return nil }))
	assert.NoError(t, bus.Publish(testEvent()))
	assert.True(t, called)
}

func TestNewRedisEventBus_RequiresClient(t *testing.T) {
	_, err := NewRedisEventBus(RedisEventBusConfig{})
	assert.Error(t, err)
}
