package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelay_DeliversAcrossInstances(t *testing.T) {
	ns, err := StartEmbeddedNATS("127.0.0.1", -1)
	require.NoError(t, err)
	t.Cleanup(ns.Shutdown)

	connect := func() *nats.Conn {
		nc, err := nats.Connect(ns.ClientURL())
		require.NoError(t, err)
		t.Cleanup(nc.Close)
		return nc
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hubA, hubB := NewHub(), NewHub()
	relayA := NewRelay(connect(), hubA, RelayConfig{Prefix: "test.notifications"})
	relayB := NewRelay(connect(), hubB, RelayConfig{Prefix: "test.notifications"})
	hubA.SetRelay(relayA)
	hubB.SetRelay(relayB)
	go func() { _ = relayA.Serve(ctx) }()
	go func() { _ = relayB.Serve(ctx) }()

	local := newTestClient(hubA, "u1", 4)
	remote := newTestClient(hubB, "u1", 4)
	require.True(t, hubA.Register(local))
	require.True(t, hubB.Register(remote))

	// Ждём, пока обе подписки дойдут до сервера
	require.Eventually(t, func() bool {
		return ns.NumSubscriptions() >= 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.True(t, hubA.Push(ctx, "u1", "receiveNotification", map[string]string{"id": "n1"}))

	select {
	case msg := <-remote.send:
		assert.Equal(t, "receiveNotification", msg.Type)
		raw, ok := msg.Data.(json.RawMessage)
		require.True(t, ok)
		assert.JSONEq(t, `{"id":"n1"}`, string(raw))
	case <-time.After(2 * time.Second):
		t.Fatal("remote instance did not receive the event")
	}

	// Локальный клиент получает событие один раз, без эха из NATS
	require.Len(t, local.send, 1)
	<-local.send
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, local.send)
}

func TestRelay_BreakerOpensAfterFailures(t *testing.T) {
	ns, err := StartEmbeddedNATS("127.0.0.1", -1)
	require.NoError(t, err)

	nc, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	nc.Close()
	ns.Shutdown()

	relay := NewRelay(nc, NewHub(), RelayConfig{MaxFailures: 2, OpenTimeout: time.Minute})
	for i := 0; i < 2; i++ {
		assert.Error(t, relay.Publish(context.Background(), "u1", "e", nil))
	}
	assert.Equal(t, "open", relay.State())

	err = relay.Publish(context.Background(), "u1", "e", nil)
	assert.ErrorContains(t, err, "relay unavailable")
}
