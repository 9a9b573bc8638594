// Package transport bridges websocket connections to game sessions. The
// hub fans session events out to room members and translates inbound
// envelopes into session transitions.
package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"codearena/internal/game"
	apperr "codearena/pkg/errors"
	"codearena/pkg/utils/contextkey"
	"codearena/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// sweepInterval drives deadline expiry checks across all rooms.
const sweepInterval = time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks are delegated to the CORS layer in front.
		return true
	},
}

// Hub routes events between sessions and their connected clients.
type Hub struct {
	registry *game.Registry

	mu    sync.RWMutex
	rooms map[string]map[string]*Client // room -> playerID -> client
}

// NewHub creates a hub over the session registry.
func NewHub(registry *game.Registry) *Hub {
	return &Hub{
		registry: registry,
		rooms:    make(map[string]map[string]*Client),
	}
}

// ServeWS upgrades the HTTP request and starts the client pumps.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(c.Request.Context(), "websocket upgrade failed", zap.Error(err))
		return
	}
	// The request context dies with the handler; the connection outlives
	// it. Carry only the trace id forward.
	ctx := context.Background()
	if traceID := c.Request.Context().Value(contextkey.TraceID); traceID != nil {
		ctx = context.WithValue(ctx, contextkey.TraceID, traceID)
	}

	client := newClient(h, conn)
	go client.writeLoop()
	go client.readLoop(ctx)
}

// Run drives the periodic deadline sweep until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.sweep(ctx)
		}
	}
}

func (h *Hub) sweep(ctx context.Context) {
	h.mu.RLock()
	codes := make([]string, 0, len(h.rooms))
	for code := range h.rooms {
		codes = append(codes, code)
	}
	h.mu.RUnlock()

	for _, code := range codes {
		s := h.registry.Get(code)
		if s == nil {
			continue
		}
		if events := s.SweepExpired(); len(events) > 0 {
			h.deliver(ctx, code, events)
		}
	}
}

// dispatch routes one inbound envelope to the matching session
// transition. Transition errors go back to the sender as a private
// error event; they never close the connection.
func (h *Hub) dispatch(ctx context.Context, c *Client, env Envelope) {
	if c.room != "" {
		ctx = context.WithValue(ctx, contextkey.RoomID, c.room)
	}
	if c.playerID != "" {
		ctx = context.WithValue(ctx, contextkey.PlayerID, c.playerID)
	}

	var (
		events []game.Event
		err    error
	)

	switch env.Type {
	case TypeJoin:
		h.handleJoin(ctx, c, env.Payload)
		return

	case TypeStart:
		s := h.session(c)
		if s == nil {
			err = apperr.New(apperr.RoomNotFound)
			break
		}
		events, err = s.Start(c.playerID)

	case TypeSelectCard:
		var req SelectCardRequest
		if err = decodePayload(env.Payload, &req); err != nil {
			break
		}
		s := h.session(c)
		if s == nil {
			err = apperr.New(apperr.RoomNotFound)
			break
		}
		events, err = s.SelectCard(c.playerID, req.CardID)

	case TypeSubmit:
		var req SubmitRequest
		if err = decodePayload(env.Payload, &req); err != nil {
			break
		}
		s := h.session(c)
		if s == nil {
			err = apperr.New(apperr.RoomNotFound)
			break
		}
		// Runs the sandbox; the session drops the lock while it does.
		events, err = s.Submit(ctx, c.playerID, req.CardID, req.Code)

	case TypeEliminated:
		s := h.session(c)
		if s == nil {
			err = apperr.New(apperr.RoomNotFound)
			break
		}
		events, err = s.ReportElimination(c.playerID)

	case TypeTimerSync:
		var req TimerSyncRequest
		if err = decodePayload(env.Payload, &req); err != nil {
			break
		}
		s := h.session(c)
		if s == nil {
			err = apperr.New(apperr.RoomNotFound)
			break
		}
		events, err = s.TimerSync(c.playerID, req.TimeRemaining)

	case TypeGetState:
		s := h.session(c)
		if s == nil {
			err = apperr.New(apperr.RoomNotFound)
			break
		}
		ev := s.Snapshot(c.playerID)
		h.deliver(ctx, c.room, []game.Event{ev})
		return

	default:
		err = apperr.Newf(apperr.InvalidParams, "unknown message type %q", env.Type)
	}

	if err != nil {
		h.sendError(ctx, c, err)
		return
	}
	h.deliver(ctx, c.room, events)
}

func (h *Hub) handleJoin(ctx context.Context, c *Client, payload json.RawMessage) {
	var req JoinRequest
	if err := decodePayload(payload, &req); err != nil {
		h.sendError(ctx, c, err)
		return
	}
	if c.playerID != "" {
		h.sendError(ctx, c, apperr.Newf(apperr.InvalidParams, "already joined room %s", c.room))
		return
	}

	room := req.Room
	if room == "" {
		room = h.registry.NewRoomCode()
	}
	_, playerID, events, err := h.registry.Join(room, req.Username)
	if err != nil {
		h.sendError(ctx, c, err)
		return
	}

	c.room = room
	c.playerID = playerID
	h.mu.Lock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[room] = members
	}
	members[playerID] = c
	h.mu.Unlock()

	logger.Info(ctx, "player joined",
		zap.String("room", room),
		zap.String("player_id", playerID),
		zap.String("username", req.Username))
	h.deliver(ctx, room, events)
}

// disconnect tears down the client's room membership and applies the
// departure to the session. Empty rooms are removed.
func (h *Hub) disconnect(ctx context.Context, c *Client) {
	c.closeSend()
	if c.room == "" {
		return
	}

	h.mu.Lock()
	if members, ok := h.rooms[c.room]; ok {
		delete(members, c.playerID)
		if len(members) == 0 {
			delete(h.rooms, c.room)
		}
	}
	h.mu.Unlock()

	s := h.registry.Get(c.room)
	if s == nil {
		return
	}
	events := s.Disconnect(c.playerID)
	h.registry.RemoveIfEmpty(c.room)
	h.deliver(ctx, c.room, events)

	logger.Info(ctx, "player disconnected",
		zap.String("room", c.room),
		zap.String("player_id", c.playerID))
}

// deliver fans events out to the room: events with To set go to that
// player only, the rest broadcast.
func (h *Hub) deliver(ctx context.Context, room string, events []game.Event) {
	if len(events) == 0 {
		return
	}

	h.mu.RLock()
	members := h.rooms[room]
	clients := make(map[string]*Client, len(members))
	for id, cl := range members {
		clients[id] = cl
	}
	h.mu.RUnlock()

	for _, ev := range events {
		env, err := encodeEvent(ev)
		if err != nil {
			logger.Error(ctx, "encode event failed",
				zap.String("event", ev.Type), zap.Error(err))
			continue
		}
		if ev.To != "" {
			if cl, ok := clients[ev.To]; ok {
				cl.enqueue(env)
			}
			continue
		}
		for _, cl := range clients {
			cl.enqueue(env)
		}
	}
}

func (h *Hub) session(c *Client) *game.Session {
	if c.room == "" {
		return nil
	}
	return h.registry.Get(c.room)
}

func (h *Hub) sendError(ctx context.Context, c *Client, err error) {
	code := apperr.GetCode(err)
	logger.Warn(ctx, "request rejected",
		zap.Int("code", int(code)), zap.Error(err))

	payload, mErr := json.Marshal(ErrorPayload{
		Code:    int(code),
		Message: err.Error(),
	})
	if mErr != nil {
		return
	}
	c.enqueue(Envelope{Type: TypeError, Payload: payload})
}

func encodeEvent(ev game.Event) (Envelope, error) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: ev.Type, Payload: payload}, nil
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return apperr.New(apperr.RequiredFieldEmpty)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperr.Wrap(err, apperr.InvalidParams)
	}
	return nil
}
