package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"carpool/internal/utils"
	"carpool/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(logger.Discard(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func readMessage(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message")
		return Message{}
	}
}

func TestNotifyReservationChanged(t *testing.T) {
	hub := startHub(t)

	passenger := NewClient(hub, nil, "u1", "passenger")
	other := NewClient(hub, nil, "u2", "passenger")
	require.True(t, hub.Register(passenger))
	require.True(t, hub.Register(other))

	assert.Equal(t, "welcome", readMessage(t, passenger).Type)
	assert.Equal(t, "welcome", readMessage(t, other).Type)

	hub.NotifyReservationChanged([]string{"u1", "u1", "", "u3"}, "r1", "cancelled")

	msg := readMessage(t, passenger)
	assert.Equal(t, "reservation.changed", msg.Type)
	assert.Equal(t, "user_u1", msg.RoomID)
	assert.Equal(t, "r1", msg.Data["reservation_id"])
	assert.Equal(t, "cancelled", msg.Data["display_status"])

	assert.Empty(t, passenger.send, "duplicate ids notify once")
	assert.Empty(t, other.send)
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := startHub(t)

	slow := NewClient(hub, nil, "u1", "passenger")
	require.True(t, hub.Register(slow))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	for i := 0; i < sendBuffer+1; i++ {
		hub.SendToUser("u1", Message{Type: "reservation.changed"})
	}

	assert.Equal(t, 0, hub.ClientCount())

	// drain: the channel must end closed
	for range slow.send {
	}
}

func TestUnregister(t *testing.T) {
	hub := startHub(t)

	c := NewClient(hub, nil, "u1", "driver")
	require.True(t, hub.Register(c))
	hub.Unregister(c)
	hub.Unregister(c)

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	hub.SendToUser("u1", Message{Type: "noop"})
}

func TestRegisterAfterStop(t *testing.T) {
	hub := NewHub(logger.Discard(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	assert.False(t, hub.Register(NewClient(hub, nil, "u1", "")))
}

func TestHandleWebSocket(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := startHub(t)
	handler := NewHandler(hub, []string{"*"})

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		c.Set(utils.ContextUserIDKey, c.Query("as"))
		c.Set(utils.ContextUserRoleKey, "passenger")
	}, handler.HandleWebSocket)

	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?as=u1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var welcome Message
	require.NoError(t, conn.ReadJSON(&welcome))
	assert.Equal(t, "welcome", welcome.Type)
	assert.Equal(t, "u1", welcome.UserID)

	hub.NotifyReservationChanged([]string{"u1"}, "r9", "accepted")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var changed Message
	require.NoError(t, conn.ReadJSON(&changed))
	assert.Equal(t, "reservation.changed", changed.Type)
	assert.Equal(t, "r9", changed.Data["reservation_id"])

	require.NoError(t, conn.WriteJSON(Message{Type: "ping"}))
	var pong Message
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, "pong", pong.Type)
}

func TestHandleWebSocketOrigins(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := startHub(t)

	cases := []struct {
		name    string
		allowed []string
		origin  func(srvURL string) string
		ok      bool
	}{
		{"same host without list", nil, func(u string) string { return u }, true},
		{"foreign origin without list", nil, func(string) string { return "https://evil.example.com" }, false},
		{"listed origin", []string{"https://app.example.com"}, func(string) string { return "https://app.example.com" }, true},
		{"wildcard", []string{"*"}, func(string) string { return "https://evil.example.com" }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewHandler(hub, tc.allowed)
			r := gin.New()
			r.GET("/ws", func(c *gin.Context) { c.Set(utils.ContextUserIDKey, "u1") }, handler.HandleWebSocket)
			srv := httptest.NewServer(r)
			defer srv.Close()

			wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
			conn, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {tc.origin(srv.URL)}})
			if tc.ok {
				require.NoError(t, err)
				conn.Close()
				return
			}
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}

func TestHandleWebSocketRequiresUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(startHub(t), nil)

	r := gin.New()
	r.GET("/ws", handler.HandleWebSocket)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
