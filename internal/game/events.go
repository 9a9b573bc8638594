package game

import (
	"codearena/internal/catalog"
	"codearena/internal/exec"
)

// Event names emitted by session transitions. Names match the websocket
// protocol one-to-one.
const (
	EventJoined           = "joined"
	EventPlayerJoined     = "player_joined"
	EventGameStarted      = "game_started"
	EventCardSelected     = "card_selected"
	EventSolutionPassed   = "solution_passed"
	EventSolutionFailed   = "solution_failed"
	EventRewardApplied    = "reward_applied"
	EventPlayerEliminated = "player_eliminated"
	EventPlayerLeft       = "player_left"
	EventGameEnded        = "game_ended"
	EventGameState        = "game_state"
	EventTimerUpdate      = "timer_update"
)

// Event is one outbound announcement produced by a transition. To names
// the sole recipient player; empty To means broadcast to the room.
// Transitions return events in delivery order; the transport layer is
// responsible for actually sending them.
type Event struct {
	Type    string
	To      string
	Payload any
}

// JoinedPayload is the private acknowledgment for a successful join.
type JoinedPayload struct {
	Room     string     `json:"room"`
	PlayerID string     `json:"playerId"`
	Hand     []CardView `json:"hand"`
}

// PlayerJoinedPayload announces a new roster member.
type PlayerJoinedPayload struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
}

// GameStartedPayload is the full roster snapshot sent on start.
type GameStartedPayload struct {
	Players []PlayerView `json:"players"`
}

// CardSelectedPayload carries the challenge statement, never the tests.
type CardSelectedPayload struct {
	PlayerID string        `json:"playerId"`
	CardID   string        `json:"cardId"`
	Problem  StatementView `json:"problem"`
}

// SolutionPassedPayload announces a solved card.
type SolutionPassedPayload struct {
	PlayerID string              `json:"playerId"`
	CardID   string              `json:"cardId"`
	Verdict  exec.Verdict        `json:"verdict"`
	Reward   *catalog.EffectSpec `json:"reward,omitempty"`
	NewCard  CardView            `json:"newCard"`
}

// SolutionFailedPayload carries the verdict of a failed submission.
type SolutionFailedPayload struct {
	PlayerID string       `json:"playerId"`
	CardID   string       `json:"cardId"`
	Verdict  exec.Verdict `json:"verdict"`
}

// RewardAppliedPayload announces an applied effect.
type RewardAppliedPayload struct {
	PlayerID   string `json:"playerId"`
	Effect     string `json:"effect"`
	Value      int    `json:"value"`
	FromPlayer string `json:"fromPlayer,omitempty"`
}

// PlayerEliminatedPayload announces an elimination.
type PlayerEliminatedPayload struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
}

// PlayerLeftPayload announces a departure from the roster.
type PlayerLeftPayload struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
}

// GameEndedPayload announces the terminal phase. Winner fields are empty
// when everyone was eliminated.
type GameEndedPayload struct {
	Winner     string `json:"winner,omitempty"`
	WinnerName string `json:"winnerName,omitempty"`
}

// TimerUpdatePayload relays a client-reported countdown; advisory only.
type TimerUpdatePayload struct {
	PlayerID      string  `json:"playerId"`
	TimeRemaining float64 `json:"timeRemaining"`
}

// StatePayload is the private full-session snapshot for get_state.
type StatePayload struct {
	Room    string       `json:"room"`
	Phase   string       `json:"phase"`
	Winner  string       `json:"winner,omitempty"`
	Players []PlayerView `json:"players"`
}
