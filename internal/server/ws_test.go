package server_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinkerloft/frontdesk/internal/bus"
)

func dialWS(t *testing.T, e *env) (*websocket.Conn, func()) {
	t.Helper()
	ts := httptest.NewServer(e.srv)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, func() {
		conn.Close()
		ts.Close()
	}
}

func TestWS_HeartbeatEcho(t *testing.T) {
	e := newEnv(t)
	conn, cleanup := dialWS(t, e)
	defer cleanup()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var reply map[string]string
	require.NoError(t, json.Unmarshal(msg, &reply))
	assert.Equal(t, "heartbeat", reply["type"])
	assert.Equal(t, "ok", reply["status"])
}

func TestWS_ReceivesBusEvents(t *testing.T) {
	e := newEnv(t)
	conn, cleanup := dialWS(t, e)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := e.bus.Subscribe()
	go e.srv.Hub().Run(ctx, sub)

	// Wait for the client registration before publishing.
	require.Eventually(t, func() bool { return e.srv.Hub().ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	e.bus.Publish(bus.Event{
		Type:       bus.EventNewHelpRequest,
		RequestID:  "req-1",
		Question:   "Do you offer wedding packages?",
		CustomerID: "cust-1",
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev bus.Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, bus.EventNewHelpRequest, ev.Type)
	assert.Equal(t, "req-1", ev.RequestID)
}

func TestWS_ClientCountTracksDisconnects(t *testing.T) {
	e := newEnv(t)
	conn, cleanup := dialWS(t, e)

	require.Eventually(t, func() bool { return e.srv.Hub().ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return e.srv.Hub().ClientCount() == 0 },
		2*time.Second, 10*time.Millisecond)
	cleanup()
}
