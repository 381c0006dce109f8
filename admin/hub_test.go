package admin_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cadence/admin"
	"github.com/teranos/cadence/execution"
)

func TestHub_BroadcastsEmittedExecutions(t *testing.T) {
	queue := execution.NewQueue()
	hub := admin.NewHub(queue, nil)
	go hub.Run()
	defer hub.Close()

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// give the server goroutine a moment to register the client
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, queue.Emit(t.Context(), execution.Execution{ID: "E1", Namespace: "a", FlowID: "f1"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var received execution.Execution
	require.NoError(t, conn.ReadJSON(&received))
	require.Equal(t, "E1", received.ID)
}
