package game

import (
	"time"

	"codearena/internal/catalog"
)

// EffectKind enumerates the closed set of reward effects.
type EffectKind uint8

const (
	EffectAddTime EffectKind = iota + 1
	EffectRemoveTime
	EffectFreezeTime
)

// String returns the wire name of the effect.
func (k EffectKind) String() string {
	switch k {
	case EffectAddTime:
		return "add_time"
	case EffectRemoveTime:
		return "remove_time"
	case EffectFreezeTime:
		return "freeze_time"
	default:
		return "unknown"
	}
}

// Effect is a reward with its magnitude in seconds.
type Effect struct {
	Kind    EffectKind
	Seconds int
}

// Duration returns the magnitude as a time.Duration.
func (e Effect) Duration() time.Duration {
	return time.Duration(e.Seconds) * time.Second
}

// parseEffect converts catalog effect data into the closed effect type.
// Unknown effects are dropped rather than guessed at.
func parseEffect(spec *catalog.EffectSpec) (Effect, bool) {
	if spec == nil {
		return Effect{}, false
	}
	var kind EffectKind
	switch spec.Effect {
	case "add_time":
		kind = EffectAddTime
	case "remove_time":
		kind = EffectRemoveTime
	case "freeze_time":
		kind = EffectFreezeTime
	default:
		return Effect{}, false
	}
	return Effect{Kind: kind, Seconds: spec.Value}, true
}
