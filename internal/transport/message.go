package transport

import "encoding/json"

// Inbound message types accepted over the websocket.
const (
	TypeJoin       = "join"
	TypeStart      = "start"
	TypeSelectCard = "select_card"
	TypeSubmit     = "submit_solution"
	TypeEliminated = "player_eliminated"
	TypeTimerSync  = "timer_sync"
	TypeGetState   = "get_state"

	// TypeError is the private outbound error event.
	TypeError = "error"
)

// Envelope frames every message in both directions: a type tag and a
// type-specific payload.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JoinRequest asks to join a room; an empty room code means "create one".
type JoinRequest struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

// SelectCardRequest picks a card from the player's hand.
type SelectCardRequest struct {
	CardID string `json:"cardId"`
}

// SubmitRequest carries a solution attempt for the selected card.
type SubmitRequest struct {
	CardID string `json:"cardId"`
	Code   string `json:"code"`
}

// TimerSyncRequest relays a client-side countdown reading.
type TimerSyncRequest struct {
	TimeRemaining float64 `json:"timeRemaining"`
}

// ErrorPayload is the body of a TypeError event.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
