package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHubRegisterAndBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop())

	first := hub.Register("client-1")
	second := hub.Register("client-2")
	assert.Equal(t, 2, hub.ClientCount())

	hub.Broadcast([]byte(`{"members":[]}`))

	require.Len(t, first.Events, 1)
	require.Len(t, second.Events, 1)
	assert.Equal(t, `{"members":[]}`, string(<-first.Events))
}

func TestHubUnregisterClosesChannel(t *testing.T) {
	hub := NewHub(zap.NewNop())

	client := hub.Register("client-1")
	hub.Unregister("client-1")
	assert.Equal(t, 0, hub.ClientCount())

	_, ok := <-client.Events
	assert.False(t, ok)

	// Unregistering twice is a no-op
	hub.Unregister("client-1")
}

func TestHubBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(zap.NewNop())

	client := hub.Register("slow-client")
	for i := 0; i < 70; i++ {
		hub.Broadcast([]byte("snapshot"))
	}

	// Buffer capacity is 64; the rest were dropped rather than blocking
	assert.Equal(t, 64, len(client.Events))
}
