package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"explainit-service/internal/domain"
	"github.com/gorilla/websocket"
)

func TestWebSocketStreamsLeaderboard(t *testing.T) {
	env := newTestEnv(t)

	u := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws/leaderboard?period=weekly"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The current board arrives first, empty for a fresh store.
	msgType, entries := readNext(conn, t, "leaderboard")
	if msgType != "leaderboard" || len(entries) != 0 {
		t.Fatalf("expected empty initial board, got %s %v", msgType, entries)
	}

	session := signup(t, env, "alex@example.com", "Alex")
	if resp := env.do(t, http.MethodPost, "/api/quiz/001/result", session.Token, map[string]int{"score": 3, "total": 3}); resp.StatusCode != http.StatusOK {
		t.Fatalf("submit result: %d", resp.StatusCode)
	}

	_, entries = readNext(conn, t, "leaderboard")
	if len(entries) != 1 || entries[0].Points != 100 || entries[0].User.DisplayName != "Alex" {
		t.Fatalf("unexpected pushed board %+v", entries)
	}

	if err := conn.WriteJSON(map[string]any{"type": "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	var pong struct {
		Type    string `json:"type"`
		Payload string `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if pong.Type != "pong" || pong.Payload != "weekly" {
		t.Fatalf("unexpected pong %+v", pong)
	}
}

func TestWebSocketHandlerReturnsWhenPeerStopsReading(t *testing.T) {
	env := newTestEnv(t)
	ws := NewWSHandler(env.leaderboard)
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer close(done)
		ws.ServeWS(w, r)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	readNext(conn, t, "leaderboard")

	// Flood pings without reading the pongs, then drop the connection.
	for i := 0; i < 256; i++ {
		if err := conn.WriteJSON(map[string]any{"type": "ping"}); err != nil {
			break
		}
	}
	conn.UnderlyingConn().Close()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("expected the handler to return after the peer went away")
	}
}

func signup(t *testing.T, env *testEnv, email, name string) domain.Session {
	t.Helper()
	resp := env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"name": name, "email": email, "password": "secret",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup: %d", resp.StatusCode)
	}
	return decodeBody[domain.Session](t, resp)
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, []domain.LeaderboardEntry) {
	t.Helper()
	var msg struct {
		Type    string                    `json:"type"`
		Payload []domain.LeaderboardEntry `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}
