// Package presence tracks which users hold a live push connection and
// delivers events to them. It replaces the usual ambient socket map with an
// injectable registry.
package presence

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"lingochat/internal/chat"
	"lingochat/internal/metrics"
)

const defaultBuffer = 16

// Conn is one live connection. Events are consumed from Events until the
// channel is closed by Disconnect or by a newer connection for the same
// user.
type Conn struct {
	userID uuid.UUID
	events chan chat.Event
}

// Events returns the connection's event stream.
func (c *Conn) Events() <-chan chat.Event { return c.events }

// Registry maps user ids to their single live connection. All methods are
// safe for concurrent use.
type Registry struct {
	logger *slog.Logger

	mu    sync.RWMutex
	conns map[uuid.UUID]*Conn
}

// NewRegistry constructs an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger,
		conns:  make(map[uuid.UUID]*Conn),
	}
}

// Connect registers a live connection for the user. A previous connection
// for the same user is closed; each user has at most one.
func (r *Registry) Connect(userID uuid.UUID) *Conn {
	conn := &Conn{
		userID: userID,
		events: make(chan chat.Event, defaultBuffer),
	}

	r.mu.Lock()
	if old, ok := r.conns[userID]; ok {
		close(old.events)
	}
	r.conns[userID] = conn
	r.mu.Unlock()

	r.logger.Debug("user connected", slog.String("user_id", userID.String()))
	return conn
}

// Disconnect removes the connection and closes its event stream. A stale
// handle that was already superseded is ignored.
func (r *Registry) Disconnect(conn *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.conns[conn.userID]
	if !ok || current != conn {
		return
	}
	delete(r.conns, conn.userID)
	close(conn.events)
	r.logger.Debug("user disconnected", slog.String("user_id", conn.userID.String()))
}

// Online reports whether the user currently has a live connection.
func (r *Registry) Online(userID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[userID]
	return ok
}

// DeliverIfOnline pushes an event to the user's connection if one exists.
// It reports whether the user was online. A connection whose buffer is full
// drops the event; the recipient catches up on the next conversation fetch.
func (r *Registry) DeliverIfOnline(userID uuid.UUID, ev chat.Event) bool {
	// The lock is held across the send: Connect and Disconnect close the
	// channel under the write lock, so the send can never race a close. The
	// send itself never blocks.
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[userID]
	if !ok {
		metrics.PushDeliveries.WithLabelValues("offline").Inc()
		return false
	}

	select {
	case conn.events <- ev:
		metrics.PushDeliveries.WithLabelValues("delivered").Inc()
	default:
		metrics.PushDeliveries.WithLabelValues("dropped").Inc()
		r.logger.Warn("push buffer full, dropping event",
			slog.String("user_id", userID.String()),
			slog.String("event", ev.Name),
		)
	}
	return true
}
