// Package catalog holds the read-only set of challenge templates the
// hand generator draws from. Templates are loaded once at startup and
// never mutated, so concurrent reads need no synchronization.
package catalog

import (
	"fmt"
	"math/rand"

	"codearena/internal/exec"
)

// EffectSpec describes a reward effect as catalog data. The game layer
// converts it into its closed effect type before applying it.
type EffectSpec struct {
	Effect string `yaml:"effect" json:"effect"` // add_time, remove_time, freeze_time
	Target string `yaml:"target" json:"target"` // self, other
	Value  int    `yaml:"value" json:"value"`   // seconds
}

// ConstraintSpec describes an optional challenge constraint attached to a
// template (time limit, line limit). Shape only; not enforced server-side.
type ConstraintSpec struct {
	Type  string `yaml:"type" json:"type"`
	Value any    `yaml:"value" json:"value"`
}

// Template is one immutable catalog entry: a coding problem, its hidden
// test cases, and an optional reward or challenge effect.
type Template struct {
	ID          string          `yaml:"id" json:"id"`
	Title       string          `yaml:"title" json:"title"`
	Difficulty  string          `yaml:"difficulty" json:"difficulty"`
	Description string          `yaml:"description" json:"description"`
	EntryPoint  string          `yaml:"entryPoint" json:"entryPoint"`
	Signature   string          `yaml:"signature" json:"signature"`
	Tests       []exec.TestCase `yaml:"tests" json:"-"`
	Reward      *EffectSpec     `yaml:"reward,omitempty" json:"reward,omitempty"`
	Challenge   *ConstraintSpec `yaml:"challenge,omitempty" json:"challenge,omitempty"`
}

// Catalog is an ordered, immutable collection of templates.
type Catalog struct {
	templates []Template
}

// New builds a catalog from validated templates.
func New(templates []Template) (*Catalog, error) {
	if len(templates) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}
	for i := range templates {
		if err := validateTemplate(&templates[i]); err != nil {
			return nil, fmt.Errorf("template %d (%s): %w", i, templates[i].ID, err)
		}
	}
	return &Catalog{templates: templates}, nil
}

// Len returns the number of templates.
func (c *Catalog) Len() int {
	return len(c.templates)
}

// Templates returns the ordered template list. Callers must not mutate it.
func (c *Catalog) Templates() []Template {
	return c.templates
}

// Sample returns one template chosen uniformly at random.
func (c *Catalog) Sample(rng *rand.Rand) Template {
	return c.templates[rng.Intn(len(c.templates))]
}

func validateTemplate(t *Template) error {
	if t.ID == "" {
		return fmt.Errorf("id is required")
	}
	if t.Title == "" {
		return fmt.Errorf("title is required")
	}
	if t.EntryPoint == "" {
		return fmt.Errorf("entryPoint is required")
	}
	if len(t.Tests) == 0 {
		return fmt.Errorf("at least one test case is required")
	}
	if t.Reward != nil && t.Challenge != nil {
		return fmt.Errorf("at most one of reward and challenge may be set")
	}
	if t.Reward != nil {
		switch t.Reward.Effect {
		case "add_time", "remove_time", "freeze_time":
		default:
			return fmt.Errorf("unknown reward effect %q", t.Reward.Effect)
		}
		if t.Reward.Value <= 0 {
			return fmt.Errorf("reward value must be positive")
		}
	}
	return nil
}
