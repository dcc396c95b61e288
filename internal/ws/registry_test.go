package ws

import (
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
)

type fakeChannel struct {
	mu       sync.Mutex
	received [][]byte
	sendErr  error
}

func (c *fakeChannel) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.received = append(c.received, payload)
	return nil
}

func (c *fakeChannel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.received)
}

func TestRegistryBroadcastToAllUserChannels(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(zap.NewNop())

	first := &fakeChannel{}
	second := &fakeChannel{}
	other := &fakeChannel{}

	registry.Register(7, first)
	registry.Register(7, second)
	registry.Register(8, other)

	registry.Broadcast(7, []byte(`{"status":"sent"}`))

	if first.count() != 1 {
		t.Fatalf("first channel received %d payloads, want 1", first.count())
	}
	if second.count() != 1 {
		t.Fatalf("second channel received %d payloads, want 1", second.count())
	}
	if other.count() != 0 {
		t.Fatalf("other user's channel received %d payloads, want 0", other.count())
	}
}

func TestRegistryBroadcastNoChannelsIsNoOp(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(zap.NewNop())

	// Must not panic or error.
	registry.Broadcast(42, []byte("payload"))
}

func TestRegistryUnregisterLeavesOtherChannels(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(zap.NewNop())

	first := &fakeChannel{}
	second := &fakeChannel{}

	h1 := registry.Register(7, first)
	registry.Register(7, second)

	registry.Unregister(h1)
	registry.Broadcast(7, []byte("payload"))

	if first.count() != 0 {
		t.Fatalf("unregistered channel received %d payloads, want 0", first.count())
	}
	if second.count() != 1 {
		t.Fatalf("remaining channel received %d payloads, want 1", second.count())
	}
}

func TestRegistryUnregisterIsIdempotent(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(zap.NewNop())

	h := registry.Register(7, &fakeChannel{})
	registry.Unregister(h)
	registry.Unregister(h)

	if got := registry.ConnectionCount(7); got != 0 {
		t.Fatalf("ConnectionCount(7) = %d, want 0", got)
	}
}

func TestRegistryBroadcastFailureDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(zap.NewNop())

	broken := &fakeChannel{sendErr: errors.New("remote disconnected")}
	healthy := &fakeChannel{}

	registry.Register(7, broken)
	registry.Register(7, healthy)

	registry.Broadcast(7, []byte("payload"))

	if healthy.count() != 1 {
		t.Fatalf("healthy channel received %d payloads, want 1", healthy.count())
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h := registry.Register(userID, &fakeChannel{})
				registry.Broadcast(userID, []byte("payload"))
				registry.Unregister(h)
			}
		}(int64(i % 4))
	}
	wg.Wait()

	if got := registry.TotalConnections(); got != 0 {
		t.Fatalf("TotalConnections() = %d, want 0 after all unregisters", got)
	}
}

func TestRegistryCounts(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(zap.NewNop())

	registry.Register(1, &fakeChannel{})
	registry.Register(1, &fakeChannel{})
	registry.Register(2, &fakeChannel{})

	if got := registry.ConnectionCount(1); got != 2 {
		t.Fatalf("ConnectionCount(1) = %d, want 2", got)
	}
	if got := registry.TotalConnections(); got != 3 {
		t.Fatalf("TotalConnections() = %d, want 3", got)
	}
}
