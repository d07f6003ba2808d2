package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voicechat-service/internal/models"
)

// wsPair opens a real websocket and returns both ends.
func wsPair(t *testing.T) (serverSide, clientSide *websocket.Conn) {
	t.Helper()
	connCh := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up := websocket.Upgrader{}
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		connCh <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	clientSide, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { clientSide.Close() })

	serverSide = <-connCh
	t.Cleanup(func() { serverSide.Close() })
	return serverSide, clientSide
}

func TestHubAttachDetach(t *testing.T) {
	hub := NewHub(zap.NewNop())
	serverSide, _ := wsPair(t)

	hub.Attach("a", &Client{conn: serverSide})
	assert.True(t, hub.IsConnected("a"))
	assert.Equal(t, 1, hub.Count())

	hub.Detach("a")
	assert.False(t, hub.IsConnected("a"))
	assert.Equal(t, 0, hub.Count())
}

func TestHubSendDeliversEvent(t *testing.T) {
	hub := NewHub(zap.NewNop())
	serverSide, clientSide := wsPair(t)
	hub.Attach("a", &Client{conn: serverSide})

	sent := models.NewEvent("stats:update", models.StatsPayload{OnlineUsers: 3})
	require.True(t, hub.Send("a", sent))

	var got models.Event
	require.NoError(t, clientSide.ReadJSON(&got))
	assert.Equal(t, sent.Type, got.Type)
	assert.JSONEq(t, string(sent.Payload), string(got.Payload))
}

func TestHubSendUnknownParticipant(t *testing.T) {
	hub := NewHub(zap.NewNop())
	assert.False(t, hub.Send("missing", models.NewEvent("connected", nil)))
}

func TestHubSendEvictsDeadConnection(t *testing.T) {
	hub := NewHub(zap.NewNop())
	serverSide, _ := wsPair(t)
	hub.Attach("a", &Client{conn: serverSide})

	serverSide.Close()
	assert.False(t, hub.Send("a", models.NewEvent("connected", nil)))
	assert.False(t, hub.IsConnected("a"))
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop())
	serverA, clientA := wsPair(t)
	serverB, clientB := wsPair(t)
	hub.Attach("a", &Client{conn: serverA})
	hub.Attach("b", &Client{conn: serverB})

	hub.Broadcast(models.NewEvent("stats:update", models.StatsPayload{OnlineUsers: 2}))

	for _, side := range []*websocket.Conn{clientA, clientB} {
		var got models.Event
		require.NoError(t, side.ReadJSON(&got))
		assert.Equal(t, "stats:update", got.Type)
	}
}
