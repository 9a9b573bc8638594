package transport

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"codearena/internal/catalog"
	"codearena/internal/exec"
	"codearena/internal/game"
	apperr "codearena/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type passEngine struct{}

func (passEngine) Execute(ctx context.Context, req exec.Request) exec.Verdict {
	return exec.Verdict{Passed: true}
}

func newTestServer(t *testing.T) (*httptest.Server, *game.Registry) {
	t.Helper()
	cat, err := catalog.New([]catalog.Template{{
		ID:         "sum",
		Title:      "Sum",
		EntryPoint: "sum",
		Tests:      []exec.TestCase{{Input: []any{1, 2}, Expected: 3}},
	}})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	registry := game.NewRegistry(game.DefaultConfig(), cat, passEngine{})
	hub := NewHub(registry)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws", hub.ServeWS)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, registry
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendEnvelope(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := conn.WriteJSON(Envelope{Type: typ, Payload: raw}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// awaitEvent reads until an envelope of the wanted type arrives, skipping
// unrelated broadcasts.
func awaitEvent(t *testing.T, conn *websocket.Conn, typ string) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		if env.Type == typ {
			return env
		}
	}
}

func join(t *testing.T, conn *websocket.Conn, username, room string) (playerID, roomCode string) {
	t.Helper()
	sendEnvelope(t, conn, TypeJoin, JoinRequest{Username: username, Room: room})
	env := awaitEvent(t, conn, game.EventJoined)

	var payload struct {
		Room     string `json:"room"`
		PlayerID string `json:"playerId"`
	}
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("decode joined payload: %v", err)
	}
	return payload.PlayerID, payload.Room
}

func TestJoinCreatesRoom(t *testing.T) {
	srv, registry := newTestServer(t)
	conn := dialWS(t, srv)

	playerID, room := join(t, conn, "alice", "")
	if playerID == "" {
		t.Fatal("empty player id")
	}
	if len(room) != 6 {
		t.Fatalf("room code = %q, want 6 characters", room)
	}
	if registry.Get(room) == nil {
		t.Fatal("session not registered")
	}
}

func TestJoinBroadcastsToRoom(t *testing.T) {
	srv, _ := newTestServer(t)
	alice := dialWS(t, srv)
	bob := dialWS(t, srv)

	_, room := join(t, alice, "alice", "")
	bobID, _ := join(t, bob, "bob", room)

	// The first player_joined alice sees may be her own announcement.
	for {
		env := awaitEvent(t, alice, game.EventPlayerJoined)
		var payload struct {
			PlayerID string `json:"playerId"`
			Username string `json:"username"`
		}
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if payload.PlayerID != bobID {
			continue
		}
		if payload.Username != "bob" {
			t.Fatalf("payload = %+v", payload)
		}
		return
	}
}

func TestStartGameReachesEveryone(t *testing.T) {
	srv, _ := newTestServer(t)
	alice := dialWS(t, srv)
	bob := dialWS(t, srv)

	_, room := join(t, alice, "alice", "")
	join(t, bob, "bob", room)

	sendEnvelope(t, alice, TypeStart, struct{}{})

	for _, conn := range []*websocket.Conn{alice, bob} {
		env := awaitEvent(t, conn, game.EventGameStarted)
		var payload struct {
			Players []json.RawMessage `json:"players"`
		}
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(payload.Players) != 2 {
			t.Fatalf("players = %d, want 2", len(payload.Players))
		}
	}
}

func TestNonHostStartGetsError(t *testing.T) {
	srv, _ := newTestServer(t)
	alice := dialWS(t, srv)
	bob := dialWS(t, srv)

	_, room := join(t, alice, "alice", "")
	join(t, bob, "bob", room)

	sendEnvelope(t, bob, TypeStart, struct{}{})

	env := awaitEvent(t, bob, TypeError)
	var payload ErrorPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Code != int(apperr.NotHost) {
		t.Fatalf("code = %d, want %d", payload.Code, int(apperr.NotHost))
	}
}

func TestUnknownMessageTypeGetsError(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dialWS(t, srv)
	join(t, conn, "alice", "")

	sendEnvelope(t, conn, "no_such_type", struct{}{})

	env := awaitEvent(t, conn, TypeError)
	var payload ErrorPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Code != int(apperr.InvalidParams) {
		t.Fatalf("code = %d, want %d", payload.Code, int(apperr.InvalidParams))
	}
}

func TestMessagesBeforeJoinGetRoomNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dialWS(t, srv)

	sendEnvelope(t, conn, TypeStart, struct{}{})

	env := awaitEvent(t, conn, TypeError)
	var payload ErrorPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Code != int(apperr.RoomNotFound) {
		t.Fatalf("code = %d, want %d", payload.Code, int(apperr.RoomNotFound))
	}
}

func TestDisconnectRemovesEmptyRoom(t *testing.T) {
	srv, registry := newTestServer(t)
	conn := dialWS(t, srv)
	_, room := join(t, conn, "alice", "")

	conn.Close()

	deadline := time.Now().Add(3 * time.Second)
	for registry.Get(room) != nil {
		if time.Now().After(deadline) {
			t.Fatal("empty room not removed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDisconnectBroadcastsPlayerLeft(t *testing.T) {
	srv, _ := newTestServer(t)
	alice := dialWS(t, srv)
	bob := dialWS(t, srv)

	_, room := join(t, alice, "alice", "")
	bobID, _ := join(t, bob, "bob", room)

	bob.Close()

	env := awaitEvent(t, alice, game.EventPlayerLeft)
	var payload struct {
		PlayerID string `json:"playerId"`
	}
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.PlayerID != bobID {
		t.Fatalf("left player = %q, want %q", payload.PlayerID, bobID)
	}
}

func TestRequestStateIsPrivate(t *testing.T) {
	srv, _ := newTestServer(t)
	alice := dialWS(t, srv)
	bob := dialWS(t, srv)

	_, room := join(t, alice, "alice", "")
	join(t, bob, "bob", room)

	sendEnvelope(t, alice, TypeGetState, struct{}{})

	env := awaitEvent(t, alice, game.EventGameState)
	var payload struct {
		Room    string            `json:"room"`
		Phase   string            `json:"phase"`
		Players []json.RawMessage `json:"players"`
	}
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Room != room || payload.Phase != "lobby" || len(payload.Players) != 2 {
		t.Fatalf("payload = %+v", payload)
	}
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	cat, err := catalog.New([]catalog.Template{{
		ID:         "sum",
		Title:      "Sum",
		EntryPoint: "sum",
		Tests:      []exec.TestCase{{Input: []any{1, 2}, Expected: 3}},
	}})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	registry := game.NewRegistry(game.DefaultConfig(), cat, passEngine{})
	return NewHub(registry)
}

// Broadcasts racing a teardown must not write to the torn-down client's
// channel after it closes.
func TestBroadcastDuringDisconnect(t *testing.T) {
	h := newTestHub(t)
	ctx := context.Background()
	events := []game.Event{{Type: game.EventGameState, Payload: struct{}{}}}

	for i := 0; i < 200; i++ {
		c := newClient(h, nil)
		c.room = "ROOM01"
		c.playerID = "p1"
		h.mu.Lock()
		h.rooms[c.room] = map[string]*Client{c.playerID: c}
		h.mu.Unlock()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			h.deliver(ctx, "ROOM01", events)
		}()
		go func() {
			defer wg.Done()
			h.disconnect(ctx, c)
		}()
		wg.Wait()
	}
}

func TestSlowClientTornDown(t *testing.T) {
	h := newTestHub(t)
	c := newClient(h, nil)

	for i := 0; i < sendBuffer+1; i++ {
		c.enqueue(Envelope{Type: TypeError})
	}

	drained := 0
	for range c.send {
		drained++
	}
	if drained != sendBuffer {
		t.Fatalf("drained %d envelopes, want %d", drained, sendBuffer)
	}

	// the client is dead now; further enqueues are ignored
	c.enqueue(Envelope{Type: TypeError})
	c.closeSend()
}
