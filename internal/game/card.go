package game

import (
	"math/rand"

	"codearena/internal/catalog"

	"github.com/google/uuid"
)

// Card is a per-hand instance of a catalog template. The id is a fresh
// uuid so it can never be guessed or collide across hands or restarts.
type Card struct {
	ID       string
	Template catalog.Template
}

// CardView is the client-facing card shape. Hidden test cases are never
// part of it.
type CardView struct {
	ID         string                  `json:"id"`
	Title      string                  `json:"title"`
	Difficulty string                  `json:"difficulty"`
	Signature  string                  `json:"signature"`
	Reward     *catalog.EffectSpec     `json:"reward,omitempty"`
	Challenge  *catalog.ConstraintSpec `json:"challenge,omitempty"`
}

// StatementView is the problem statement broadcast on card selection.
type StatementView struct {
	Title       string `json:"title"`
	Difficulty  string `json:"difficulty"`
	Description string `json:"description"`
	Signature   string `json:"signature"`
}

// View returns the hand-display shape of the card.
func (c Card) View() CardView {
	return CardView{
		ID:         c.ID,
		Title:      c.Template.Title,
		Difficulty: c.Template.Difficulty,
		Signature:  c.Template.Signature,
		Reward:     c.Template.Reward,
		Challenge:  c.Template.Challenge,
	}
}

// Statement returns the full problem statement, still without tests.
func (c Card) Statement() StatementView {
	return StatementView{
		Title:       c.Template.Title,
		Difficulty:  c.Template.Difficulty,
		Description: c.Template.Description,
		Signature:   c.Template.Signature,
	}
}

// NewHand draws n cards by sampling the catalog uniformly at random with
// replacement. n = 0 yields an empty hand.
func NewHand(cat *catalog.Catalog, rng *rand.Rand, n int) []Card {
	hand := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		hand = append(hand, Card{
			ID:       uuid.NewString(),
			Template: cat.Sample(rng),
		})
	}
	return hand
}

func cardViews(cards []Card) []CardView {
	views := make([]CardView, 0, len(cards))
	for _, c := range cards {
		views = append(views, c.View())
	}
	return views
}
