package progress

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/ws", WSHandler(hub, nil))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	return ws
}

func readJSON(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := ws.ReadMessage()
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(msg, &out))
	return out
}

// TestHub_PublishReachesClient verifies a connected client receives the
// welcome message and then published events as JSON.
func TestHub_PublishReachesClient(t *testing.T) {
	hub := NewHub()
	ws := dialHub(t, hub)

	welcome := readJSON(t, ws)
	assert.Equal(t, "welcome", welcome["type"])
	assert.Equal(t, 1, hub.Stats().WSClients)

	hub.Publish(map[string]any{"type": "item.saved", "title": "Jane's Novel"})

	event := readJSON(t, ws)
	assert.Equal(t, "item.saved", event["type"])
	assert.Equal(t, "Jane's Novel", event["title"])
}

// TestHub_DropsDeadClients verifies that a closed client is evicted on
// the next broadcast instead of wedging the hub.
func TestHub_DropsDeadClients(t *testing.T) {
	hub := NewHub()
	ws := dialHub(t, hub)

	// welcome proves the connection is registered
	readJSON(t, ws)
	require.Equal(t, 1, hub.Stats().WSClients)

	require.NoError(t, ws.Close())

	// the write error may take one broadcast to surface
	deadline := time.Now().Add(2 * time.Second)
	for hub.Stats().WSClients > 0 && time.Now().Before(deadline) {
		hub.Publish(map[string]any{"type": "ping"})
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 0, hub.Stats().WSClients)
}

func TestHub_PublishWithNoClients(t *testing.T) {
	hub := NewHub()
	// must not panic or block
	hub.Publish(map[string]any{"type": "run.started"})
	assert.Equal(t, 0, hub.Stats().WSClients)
}
