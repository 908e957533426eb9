package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func readMsg(t *testing.T, c *websocket.Conn) Msg {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, b, err := c.ReadMessage()
	require.NoError(t, err)
	var m Msg
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestBroadcastReachesClient(t *testing.T) {
	h := NewHub(zerolog.Nop())
	c := dial(t, h)
	require.Eventually(t, func() bool { return h.Clients() == 1 }, time.Second, 5*time.Millisecond)

	h.Broadcast("top", map[string]int64{"bid_price": 99})
	m := readMsg(t, c)
	assert.Equal(t, "top", m.Type)
	assert.Equal(t, map[string]any{"bid_price": float64(99)}, m.Data)
}

func TestUnsubscribeMutesType(t *testing.T) {
	h := NewHub(zerolog.Nop())
	c := dial(t, h)
	require.Eventually(t, func() bool { return h.Clients() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.WriteJSON(map[string]string{"action": "unsubscribe", "type": "trade"}))
	require.Eventually(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		for cc := range h.conns {
			return cc.muted["trade"]
		}
		return false
	}, time.Second, 5*time.Millisecond)

	h.Broadcast("trade", 1)
	h.Broadcast("top", 2)
	m := readMsg(t, c)
	assert.Equal(t, "top", m.Type)
}

func TestDisconnectRemovesClient(t *testing.T) {
	h := NewHub(zerolog.Nop())
	c := dial(t, h)
	require.Eventually(t, func() bool { return h.Clients() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Close())
	require.Eventually(t, func() bool { return h.Clients() == 0 }, time.Second, 5*time.Millisecond)

	// no panic on a closed send channel
	h.Broadcast("top", 1)
}
