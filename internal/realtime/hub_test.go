package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient создаёт клиента без реального соединения; очередь читается напрямую.
func newTestClient(hub *Hub, userID string, queue int) *Client {
	return &Client{id: userID + "-conn", userID: userID, hub: hub, send: make(chan Message, queue)}
}

func TestHub_RegisterRouteUnregister(t *testing.T) {
	hub := NewHub()
	c := newTestClient(hub, "u1", 4)

	assert.False(t, hub.Route("u1"))
	require.True(t, hub.Register(c))
	assert.True(t, hub.Route("u1"))
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unregister(c)
	hub.Unregister(c) // повторный вызов безопасен
	assert.False(t, hub.Route("u1"))
	assert.Equal(t, 0, hub.ClientCount())

	_, open := <-c.send
	assert.False(t, open, "send queue must be closed")
}

func TestHub_PushReachesEveryConnectionOfUser(t *testing.T) {
	hub := NewHub()
	tab1 := newTestClient(hub, "u1", 4)
	tab2 := newTestClient(hub, "u1", 4)
	other := newTestClient(hub, "u2", 4)
	for _, c := range []*Client{tab1, tab2, other} {
		require.True(t, hub.Register(c))
	}

	ok := hub.Push(context.Background(), "u1", "receiveNotification", map[string]string{"id": "n1"})
	assert.True(t, ok)

	for _, c := range []*Client{tab1, tab2} {
		select {
		case msg := <-c.send:
			assert.Equal(t, "receiveNotification", msg.Type)
		default:
			t.Fatal("expected message")
		}
	}
	assert.Empty(t, other.send)
}

func TestHub_PushToOfflineUser(t *testing.T) {
	hub := NewHub()
	assert.False(t, hub.Push(context.Background(), "nobody", "receiveNotification", nil))
}

func TestHub_FullQueueDropsWithoutBlocking(t *testing.T) {
	hub := NewHub()
	c := newTestClient(hub, "u1", 1)
	require.True(t, hub.Register(c))

	assert.True(t, hub.Push(context.Background(), "u1", "e", 1))

	done := make(chan bool)
	go func() { done <- hub.Push(context.Background(), "u1", "e", 2) }()
	select {
	case delivered := <-done:
		assert.False(t, delivered)
	case <-time.After(time.Second):
		t.Fatal("push blocked on full queue")
	}
}

func TestHub_PreservesOrderPerRecipient(t *testing.T) {
	hub := NewHub()
	c := newTestClient(hub, "u1", 100)
	require.True(t, hub.Register(c))

	for i := 0; i < 50; i++ {
		hub.Push(context.Background(), "u1", "e", i)
	}
	for i := 0; i < 50; i++ {
		msg := <-c.send
		assert.Equal(t, i, msg.Data)
	}
}

func TestHub_ConcurrentRegisterAndPush(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c := newTestClient(hub, "u1", 8)
			if hub.Register(c) {
				hub.Unregister(c)
			}
		}()
		go func() {
			defer wg.Done()
			hub.Push(ctx, "u1", "e", nil)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_ServeClosesClientsOnShutdown(t *testing.T) {
	hub := NewHub()
	c := newTestClient(hub, "u1", 1)
	require.True(t, hub.Register(c))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- hub.Serve(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	assert.Equal(t, 0, hub.ClientCount())
	assert.False(t, hub.Register(newTestClient(hub, "u2", 1)))
}

type failingPublisher struct{ calls int }

func (p *failingPublisher) Publish(ctx context.Context, userID, event string, payload any) error {
	p.calls++
	return assert.AnError
}

func TestHub_RelayFailureKeepsLocalResult(t *testing.T) {
	hub := NewHub()
	pub := &failingPublisher{}
	hub.SetRelay(pub)

	assert.False(t, hub.Push(context.Background(), "u1", "e", nil))
	c := newTestClient(hub, "u1", 1)
	require.True(t, hub.Register(c))
	assert.True(t, hub.Push(context.Background(), "u1", "e", nil))
	assert.Equal(t, 2, pub.calls)
}
