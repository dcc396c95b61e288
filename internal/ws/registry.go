package ws

import (
	"sync"

	"go.uber.org/zap"
)

// Channel is one live client connection able to receive pushed payloads.
// Implementations must be safe for concurrent Send calls.
type Channel interface {
	Send(payload []byte) error
}

// Handle identifies one registered connection.
type Handle struct {
	userID int64
	id     uint64
}

// Registry tracks live client channels keyed by user identity. All
// membership mutations and broadcasts go through a single mutex; the
// underlying membership set is never exposed.
type Registry struct {
	logger *zap.Logger

	mu     sync.RWMutex
	nextID uint64
	// members maps user id to that user's open connections. Multiple
	// connections per user (multiple devices) are allowed; each receives
	// the same broadcasts independently.
	members map[int64]map[uint64]Channel
}

func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Registry{
		logger:  logger,
		members: make(map[int64]map[uint64]Channel),
	}
}

// Register adds a channel for a user and returns its handle.
func (r *Registry) Register(userID int64, ch Channel) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	handle := Handle{userID: userID, id: r.nextID}

	conns, ok := r.members[userID]
	if !ok {
		conns = make(map[uint64]Channel)
		r.members[userID] = conns
	}
	conns[handle.id] = ch

	return handle
}

// Unregister removes the exact entry for the handle. It is idempotent:
// unregistering an already-removed handle is a no-op.
func (r *Registry) Unregister(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.members[h.userID]
	if !ok {
		return
	}

	delete(conns, h.id)
	if len(conns) == 0 {
		delete(r.members, h.userID)
	}
}

// Broadcast delivers the payload to every currently-registered channel for
// the user. No registered channels is a silent no-op. A failing channel
// never prevents delivery to the others; send failures are swallowed and
// only logged, so a broken connection can never fail the caller.
func (r *Registry) Broadcast(userID int64, payload []byte) {
	r.mu.RLock()
	conns := r.members[userID]
	// Snapshot under the lock so a connection closing mid-broadcast cannot
	// corrupt iteration.
	snapshot := make([]Channel, 0, len(conns))
	for _, ch := range conns {
		snapshot = append(snapshot, ch)
	}
	r.mu.RUnlock()

	for _, ch := range snapshot {
		if err := ch.Send(payload); err != nil {
			r.logger.Debug("live channel send failed",
				zap.Int64("userId", userID),
				zap.Error(err),
			)
		}
	}
}

// ConnectionCount reports the number of open connections for a user.
func (r *Registry) ConnectionCount(userID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members[userID])
}

// TotalConnections reports the number of open connections across all users.
func (r *Registry) TotalConnections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, conns := range r.members {
		total += len(conns)
	}
	return total
}
