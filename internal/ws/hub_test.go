package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crickarena/auction-api/internal/domain"
	"github.com/crickarena/auction-api/pkg/logger"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()

	hub := NewHub(DefaultConfig(), logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Start(ctx)

	r := chi.NewRouter()
	r.Get("/leagues/{leagueID}/ws", hub.Serve)
	srv := httptest.NewServer(r)

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, baseURL, leagueID string) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(baseURL+"/leagues/"+leagueID+"/ws", nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_PushesStateToSubscribers(t *testing.T) {
	hub, baseURL := startHub(t)
	conn := dial(t, baseURL, "league-1")

	require.Eventually(t, func() bool {
		return hub.ConnectionCount("league-1") == 1
	}, time.Second, 10*time.Millisecond)

	hub.NotifyState("league-1", &domain.StateResponse{Notice: "round complete"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, EventTypeState, event.Type)
	assert.Equal(t, "league-1", event.LeagueID)
}

func TestHub_LeaguesIsolated(t *testing.T) {
	hub, baseURL := startHub(t)
	conn := dial(t, baseURL, "league-1")

	require.Eventually(t, func() bool {
		return hub.ConnectionCount("league-1") == 1
	}, time.Second, 10*time.Millisecond)

	hub.NotifyState("league-2", &domain.StateResponse{})

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}

func TestHub_NotifyWithoutSubscribers(t *testing.T) {
	hub := NewHub(DefaultConfig(), logger.NewNop())

	// No Start loop draining: pushes beyond the buffer are dropped, never
	// blocking the caller.
	for i := 0; i < 300; i++ {
		hub.NotifyState("league-1", &domain.StateResponse{})
	}

	assert.Zero(t, hub.ConnectionCount("league-1"))
}

func TestHub_DisconnectPrunesLeague(t *testing.T) {
	hub, baseURL := startHub(t)
	conn := dial(t, baseURL, "league-1")

	require.Eventually(t, func() bool {
		return hub.ConnectionCount("league-1") == 1
	}, time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		return hub.ConnectionCount("league-1") == 0
	}, time.Second, 10*time.Millisecond)
}
