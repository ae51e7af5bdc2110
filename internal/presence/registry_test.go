package presence

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"lingochat/internal/chat"
)

func newTestRegistry() *Registry {
	return NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegistryDeliverToConnectedUser(t *testing.T) {
	reg := newTestRegistry()
	userID := uuid.New()

	conn := reg.Connect(userID)
	require.True(t, reg.Online(userID))

	delivered := reg.DeliverIfOnline(userID, chat.Event{Name: "newMessage", Data: "hi"})
	require.True(t, delivered)

	ev := <-conn.Events()
	require.Equal(t, "newMessage", ev.Name)
	require.Equal(t, "hi", ev.Data)
}

func TestRegistryOfflineUserIsNoOp(t *testing.T) {
	reg := newTestRegistry()

	delivered := reg.DeliverIfOnline(uuid.New(), chat.Event{Name: "newMessage"})
	require.False(t, delivered)
}

func TestRegistryDisconnectClosesStream(t *testing.T) {
	reg := newTestRegistry()
	userID := uuid.New()

	conn := reg.Connect(userID)
	reg.Disconnect(conn)

	require.False(t, reg.Online(userID))
	_, open := <-conn.Events()
	require.False(t, open)

	// disconnecting twice is harmless
	reg.Disconnect(conn)
}

func TestRegistryReconnectSupersedesOldConnection(t *testing.T) {
	reg := newTestRegistry()
	userID := uuid.New()

	old := reg.Connect(userID)
	replacement := reg.Connect(userID)

	_, open := <-old.Events()
	require.False(t, open)

	// disconnecting the stale handle must not tear down the replacement
	reg.Disconnect(old)
	require.True(t, reg.Online(userID))

	delivered := reg.DeliverIfOnline(userID, chat.Event{Name: "newMessage"})
	require.True(t, delivered)
	ev := <-replacement.Events()
	require.Equal(t, "newMessage", ev.Name)
}

func TestRegistryDeliverDuringReconnectNeverPanics(t *testing.T) {
	reg := newTestRegistry()
	userID := uuid.New()

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					reg.DeliverIfOnline(userID, chat.Event{Name: "newMessage"})
				}
			}
		}()
	}

	// churn the receiver's connection while senders push
	for i := 0; i < 500; i++ {
		conn := reg.Connect(userID)
		reg.Disconnect(conn)
	}

	close(done)
	wg.Wait()
	require.False(t, reg.Online(userID))
}

func TestRegistryFullBufferDropsEvent(t *testing.T) {
	reg := newTestRegistry()
	userID := uuid.New()
	reg.Connect(userID)

	for i := 0; i < defaultBuffer+5; i++ {
		delivered := reg.DeliverIfOnline(userID, chat.Event{Name: "newMessage"})
		require.True(t, delivered, "sender must never block or fail on push")
	}
}
