package game

import "time"

// Player is the per-participant state owned by its session. It is only
// mutated through session transitions, under the session lock.
type Player struct {
	ID          string
	Name        string
	Hand        []Card
	Selected    string // card id, "" when nothing selected
	Deadline    time.Time
	Eliminated  bool
	FrozenUntil time.Time
}

// PlayerView is the client-facing roster entry.
type PlayerView struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	TimerEndTime int64      `json:"timerEndTime,omitempty"` // unix ms, 0 before start
	IsEliminated bool       `json:"isEliminated"`
	FrozenUntil  int64      `json:"frozenUntil,omitempty"` // unix ms
	SelectedCard string     `json:"selectedCard,omitempty"`
	Cards        []CardView `json:"cards"`
}

func (p *Player) view() PlayerView {
	v := PlayerView{
		ID:           p.ID,
		Username:     p.Name,
		IsEliminated: p.Eliminated,
		SelectedCard: p.Selected,
		Cards:        cardViews(p.Hand),
	}
	if !p.Deadline.IsZero() {
		v.TimerEndTime = p.Deadline.UnixMilli()
	}
	if !p.FrozenUntil.IsZero() {
		v.FrozenUntil = p.FrozenUntil.UnixMilli()
	}
	return v
}

// cardIndex returns the position of the card in the hand, or -1.
func (p *Player) cardIndex(cardID string) int {
	for i := range p.Hand {
		if p.Hand[i].ID == cardID {
			return i
		}
	}
	return -1
}

// frozen reports whether elimination-by-expiry is suspended for the
// player at the given instant.
func (p *Player) frozen(now time.Time) bool {
	return now.Before(p.FrozenUntil)
}

// expired reports whether the player's deadline has passed, consulting
// the freeze state first: a frozen countdown cannot expire.
func (p *Player) expired(now time.Time) bool {
	if p.Deadline.IsZero() || p.frozen(now) {
		return false
	}
	return now.After(p.Deadline)
}
