// Package game implements the per-room session state machine: roster,
// phases, card play, sandboxed submissions, reward resolution and win
// detection. Transitions are pure with respect to delivery: they mutate
// session state atomically and return the events to announce, leaving
// transport concerns to the caller.
package game

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"codearena/internal/catalog"
	"codearena/internal/exec"
	apperr "codearena/pkg/errors"

	"github.com/google/uuid"
)

// Phase is the session lifecycle stage. It only moves forward.
type Phase string

const (
	PhaseLobby   Phase = "lobby"
	PhasePlaying Phase = "playing"
	PhaseEnded   Phase = "ended"
)

// Config holds session tuning.
type Config struct {
	// SessionDuration is the starting countdown for every player.
	SessionDuration time.Duration
	// HandSize is the number of cards dealt on start.
	HandSize int
}

// DefaultConfig mirrors the classic five-minute, five-card game.
func DefaultConfig() Config {
	return Config{
		SessionDuration: 5 * time.Minute,
		HandSize:        5,
	}
}

// Session owns one room's complete game state. All exported methods are
// safe for concurrent use; each applies exactly one atomic transition.
type Session struct {
	mu sync.Mutex

	id      string
	cfg     Config
	catalog *catalog.Catalog
	engine  exec.Engine
	rng     *rand.Rand
	now     func() time.Time

	players []*Player // insertion order; players[0] is host
	phase   Phase
	winner  *Player
}

// NewSession creates a session in the lobby phase.
func NewSession(id string, cfg Config, cat *catalog.Catalog, engine exec.Engine) *Session {
	if cfg.SessionDuration <= 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	if cfg.HandSize <= 0 {
		cfg.HandSize = DefaultConfig().HandSize
	}
	return &Session{
		id:      id,
		cfg:     cfg,
		catalog: cat,
		engine:  engine,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
		phase:   PhaseLobby,
	}
}

// ID returns the room identifier.
func (s *Session) ID() string {
	return s.id
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Empty reports whether the roster is empty.
func (s *Session) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players) == 0
}

// Join admits a new player while the session is still in the lobby.
func (s *Session) Join(name string) (string, []Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" {
		return "", nil, apperr.New(apperr.UsernameRequired)
	}
	if s.phase != PhaseLobby {
		return "", nil, apperr.New(apperr.GameAlreadyActive)
	}

	p := &Player{
		ID:   uuid.NewString(),
		Name: name,
	}
	s.players = append(s.players, p)

	events := []Event{
		{Type: EventJoined, To: p.ID, Payload: JoinedPayload{
			Room:     s.id,
			PlayerID: p.ID,
			Hand:     cardViews(p.Hand),
		}},
		{Type: EventPlayerJoined, Payload: PlayerJoinedPayload{
			PlayerID: p.ID,
			Username: p.Name,
		}},
	}
	return p.ID, events, nil
}

// Start moves the session to the playing phase: deadlines are set and
// every player is dealt a starting hand. Host only.
func (s *Session) Start(playerID string) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseLobby {
		return nil, apperr.New(apperr.GameAlreadyActive)
	}
	if len(s.players) == 0 {
		return nil, apperr.New(apperr.RoomEmpty)
	}
	if s.players[0].ID != playerID {
		return nil, apperr.New(apperr.NotHost)
	}

	deadline := s.now().Add(s.cfg.SessionDuration)
	for _, p := range s.players {
		p.Deadline = deadline
		p.Hand = NewHand(s.catalog, s.rng, s.cfg.HandSize)
	}
	s.phase = PhasePlaying

	return []Event{
		{Type: EventGameStarted, Payload: GameStartedPayload{Players: s.playerViews()}},
	}, nil
}

// SelectCard records a player's selected card and broadcasts the problem
// statement.
func (s *Session) SelectCard(playerID, cardID string) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.playingPlayer(playerID)
	if err != nil {
		return nil, err
	}
	idx := p.cardIndex(cardID)
	if idx < 0 {
		return nil, apperr.New(apperr.CardNotInHand)
	}
	p.Selected = cardID

	return []Event{
		{Type: EventCardSelected, Payload: CardSelectedPayload{
			PlayerID: p.ID,
			CardID:   cardID,
			Problem:  p.Hand[idx].Statement(),
		}},
	}, nil
}

// Submit runs the player's code against the selected card's hidden tests.
// The session lock is released while the sandbox runs; the verdict is
// applied only after re-validating that the selection is still current.
// A stale verdict is discarded silently.
func (s *Session) Submit(ctx context.Context, playerID, cardID, source string) ([]Event, error) {
	s.mu.Lock()
	p, err := s.playingPlayer(playerID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if p.Eliminated {
		s.mu.Unlock()
		return nil, apperr.New(apperr.PlayerEliminated)
	}
	if p.Selected == "" {
		s.mu.Unlock()
		return nil, apperr.New(apperr.CardNotSelected)
	}
	if p.Selected != cardID {
		s.mu.Unlock()
		return nil, apperr.New(apperr.CardNotSelected)
	}
	idx := p.cardIndex(cardID)
	if idx < 0 {
		s.mu.Unlock()
		return nil, apperr.New(apperr.CardNotInHand)
	}
	card := p.Hand[idx]
	s.mu.Unlock()

	verdict := s.engine.Execute(ctx, exec.Request{
		Source:     source,
		EntryPoint: card.Template.EntryPoint,
		Tests:      card.Template.Tests,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-validate: the world may have moved on while the sandbox ran.
	p = s.findPlayer(playerID)
	if s.phase != PhasePlaying || p == nil || p.Eliminated || p.Selected != cardID || p.cardIndex(cardID) < 0 {
		return nil, nil
	}

	if !verdict.Passed {
		return []Event{
			{Type: EventSolutionFailed, Payload: SolutionFailedPayload{
				PlayerID: p.ID,
				CardID:   cardID,
				Verdict:  verdict,
			}},
		}, nil
	}

	idx = p.cardIndex(cardID)
	p.Hand = append(p.Hand[:idx], p.Hand[idx+1:]...)
	p.Selected = ""

	rewardEvents := s.applyReward(p, card.Template.Reward)

	replacement := NewHand(s.catalog, s.rng, 1)[0]
	p.Hand = append(p.Hand, replacement)

	events := []Event{
		{Type: EventSolutionPassed, Payload: SolutionPassedPayload{
			PlayerID: p.ID,
			CardID:   cardID,
			Verdict:  verdict,
			Reward:   card.Template.Reward,
			NewCard:  replacement.View(),
		}},
	}
	return append(events, rewardEvents...), nil
}

// ReportElimination marks the player eliminated. Idempotent: repeating
// the report produces no further events. Win evaluation always runs.
func (s *Session) ReportElimination(playerID string) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhasePlaying {
		return nil, apperr.New(apperr.GameNotStarted)
	}
	p := s.findPlayer(playerID)
	if p == nil {
		return nil, apperr.New(apperr.PlayerNotFound)
	}

	var events []Event
	if !p.Eliminated {
		p.Eliminated = true
		events = append(events, Event{
			Type: EventPlayerEliminated,
			Payload: PlayerEliminatedPayload{
				PlayerID: p.ID,
				Username: p.Name,
			},
		})
	}
	return append(events, s.evaluateWin()...), nil
}

// Disconnect removes the player from the roster entirely. Rejoining later
// means a brand-new identity.
func (s *Session) Disconnect(playerID string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, p := range s.players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	p := s.players[idx]
	s.players = append(s.players[:idx], s.players[idx+1:]...)

	events := []Event{
		{Type: EventPlayerLeft, Payload: PlayerLeftPayload{
			PlayerID: p.ID,
			Username: p.Name,
		}},
	}
	if s.phase == PhasePlaying {
		events = append(events, s.evaluateWin()...)
	}
	return events
}

// TimerSync relays a client-reported countdown to the other players. It
// never touches the authoritative deadline.
func (s *Session) TimerSync(playerID string, remaining float64) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findPlayer(playerID) == nil {
		return nil, apperr.New(apperr.PlayerNotFound)
	}
	return []Event{
		{Type: EventTimerUpdate, Payload: TimerUpdatePayload{
			PlayerID:      playerID,
			TimeRemaining: remaining,
		}},
	}, nil
}

// SweepExpired eliminates every player whose deadline has passed, frozen
// players excepted, then evaluates the win condition. It is driven by a
// periodic ticker outside the session.
func (s *Session) SweepExpired() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhasePlaying {
		return nil
	}
	now := s.now()

	var events []Event
	for _, p := range s.players {
		if p.Eliminated || !p.expired(now) {
			continue
		}
		p.Eliminated = true
		events = append(events, Event{
			Type: EventPlayerEliminated,
			Payload: PlayerEliminatedPayload{
				PlayerID: p.ID,
				Username: p.Name,
			},
		})
	}
	if len(events) == 0 {
		return nil
	}
	return append(events, s.evaluateWin()...)
}

// Snapshot returns the private full-state event for the requester.
func (s *Session) Snapshot(playerID string) Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload := StatePayload{
		Room:    s.id,
		Phase:   string(s.phase),
		Players: s.playerViews(),
	}
	if s.winner != nil {
		payload.Winner = s.winner.ID
	}
	return Event{Type: EventGameState, To: playerID, Payload: payload}
}

// applyReward resolves a reward effect for the acting player. Callers
// hold the session lock.
func (s *Session) applyReward(actor *Player, spec *catalog.EffectSpec) []Event {
	effect, ok := parseEffect(spec)
	if !ok {
		return nil
	}
	now := s.now()

	switch effect.Kind {
	case EffectAddTime:
		actor.Deadline = actor.Deadline.Add(effect.Duration())
		return []Event{{Type: EventRewardApplied, Payload: RewardAppliedPayload{
			PlayerID: actor.ID,
			Effect:   effect.Kind.String(),
			Value:    effect.Seconds,
		}}}

	case EffectRemoveTime:
		target := s.randomActiveOther(actor)
		if target == nil {
			return nil
		}
		// Clamp: the penalty may park the deadline at now, never before.
		reduced := target.Deadline.Add(-effect.Duration())
		if reduced.Before(now) {
			reduced = now
		}
		target.Deadline = reduced
		return []Event{{Type: EventRewardApplied, Payload: RewardAppliedPayload{
			PlayerID:   target.ID,
			Effect:     effect.Kind.String(),
			Value:      effect.Seconds,
			FromPlayer: actor.ID,
		}}}

	case EffectFreezeTime:
		actor.FrozenUntil = now.Add(effect.Duration())
		return []Event{{Type: EventRewardApplied, Payload: RewardAppliedPayload{
			PlayerID: actor.ID,
			Effect:   effect.Kind.String(),
			Value:    effect.Seconds,
		}}}
	}
	return nil
}

// randomActiveOther picks a uniformly random non-eliminated player other
// than the actor, or nil when none exists.
func (s *Session) randomActiveOther(actor *Player) *Player {
	var candidates []*Player
	for _, p := range s.players {
		if p.ID != actor.ID && !p.Eliminated {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[s.rng.Intn(len(candidates))]
}

// evaluateWin ends the game when at most one active player remains.
// Callers hold the session lock.
func (s *Session) evaluateWin() []Event {
	if s.phase != PhasePlaying {
		return nil
	}
	var active []*Player
	for _, p := range s.players {
		if !p.Eliminated {
			active = append(active, p)
		}
	}

	switch len(active) {
	case 1:
		s.phase = PhaseEnded
		s.winner = active[0]
		return []Event{{Type: EventGameEnded, Payload: GameEndedPayload{
			Winner:     active[0].ID,
			WinnerName: active[0].Name,
		}}}
	case 0:
		s.phase = PhaseEnded
		return []Event{{Type: EventGameEnded, Payload: GameEndedPayload{}}}
	default:
		return nil
	}
}

func (s *Session) playingPlayer(playerID string) (*Player, error) {
	if s.phase != PhasePlaying {
		if s.phase == PhaseEnded {
			return nil, apperr.New(apperr.GameAlreadyEnded)
		}
		return nil, apperr.New(apperr.GameNotStarted)
	}
	p := s.findPlayer(playerID)
	if p == nil {
		return nil, apperr.New(apperr.PlayerNotFound)
	}
	return p, nil
}

func (s *Session) findPlayer(playerID string) *Player {
	for _, p := range s.players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

func (s *Session) playerViews() []PlayerView {
	views := make([]PlayerView, 0, len(s.players))
	for _, p := range s.players {
		views = append(views, p.view())
	}
	return views
}
