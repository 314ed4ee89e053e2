package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub(8)
	transport := NewWSTransport(hub)
	transport.RegisterRoutes()

	srv := httptest.NewServer(transport.Handler())
	t.Cleanup(srv.Close)

	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func waitForSubscribers(t *testing.T, hub *Hub, channel string, n int) {
	t.Helper()

	require.Eventually(t, func() bool {
		return hub.Subscribers(channel) == n
	}, 2*time.Second, 10*time.Millisecond)
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))

	return msg
}

func TestWSTransport_ForwardsHubMessages(t *testing.T) {
	hub, srv := newTestServer(t)

	conn := dial(t, srv, "/ws/vendor/v-1")
	waitForSubscribers(t, hub, "vendor:v-1", 1)

	hub.Publish("vendor:v-1", []byte(`{"type":"new_order","order_number":"ORD-1-AAAA"}`))

	msg := readJSON(t, conn)
	assert.Equal(t, "new_order", msg["type"])
	assert.Equal(t, "ORD-1-AAAA", msg["order_number"])
}

func TestWSTransport_RebroadcastsLocationUpdates(t *testing.T) {
	hub, srv := newTestServer(t)

	driver := dial(t, srv, "/ws/orders/o-1")
	customer := dial(t, srv, "/ws/orders/o-1")
	waitForSubscribers(t, hub, "order:o-1", 2)

	require.NoError(t, driver.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.NoError(t, driver.WriteMessage(websocket.TextMessage, []byte(`{"type":"chat","body":"hi"}`)))
	require.NoError(t, driver.WriteJSON(map[string]any{
		"type":      "location_update",
		"latitude":  12.97,
		"longitude": 77.59,
		"timestamp": "2026-10-18T10:00:00Z",
		"secret":    "dropped",
	}))

	for _, conn := range []*websocket.Conn{customer, driver} {
		msg := readJSON(t, conn)
		assert.Equal(t, "location_update", msg["type"])
		assert.InDelta(t, 12.97, msg["latitude"], 1e-9)
		assert.NotContains(t, msg, "secret")
	}
}

func TestWSTransport_VendorChannelIgnoresClientMessages(t *testing.T) {
	hub, srv := newTestServer(t)

	vendor := dial(t, srv, "/ws/vendor/v-2")
	waitForSubscribers(t, hub, "vendor:v-2", 1)

	payload, err := json.Marshal(map[string]any{"type": "location_update", "latitude": 1})
	require.NoError(t, err)
	require.NoError(t, vendor.WriteMessage(websocket.TextMessage, payload))

	hub.Publish("vendor:v-2", []byte(`{"type":"new_order"}`))
	assert.Equal(t, "new_order", readJSON(t, vendor)["type"])
}

func TestWSTransport_UnsubscribesOnDisconnect(t *testing.T) {
	hub, srv := newTestServer(t)

	conn := dial(t, srv, "/ws/orders/o-2")
	waitForSubscribers(t, hub, "order:o-2", 1)

	require.NoError(t, conn.Close())
	waitForSubscribers(t, hub, "order:o-2", 0)
}

func TestOriginChecker(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://shop.example.com")

	assert.True(t, originChecker(nil)(req))
	assert.True(t, originChecker([]string{"*"})(req))
	assert.True(t, originChecker([]string{"https://shop.example.com"})(req))
	assert.False(t, originChecker([]string{"https://admin.example.com"})(req))
}
