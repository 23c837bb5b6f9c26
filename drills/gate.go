package drills

import "github.com/practicelab/practicelab/subscription"

// Access is the gate's verdict for one listed drill.
type Access string

const (
	AccessUnlocked Access = "unlocked"
	AccessLocked   Access = "locked"
)

// Gate decides whether a drill at a given listing position is viewable.
// The first FreePreview items of any ordered, filtered listing are open to
// everyone; everything beyond requires an active subscription of any tier.
// Tier sport counts are a pricing distinction only; the gate does not
// match a drill's sport against the subscriber's tier.
type Gate struct {
	FreePreview int
}

// Evaluate is a pure predicate over the zero-based listing position and
// the requesting actor's entitlement.
func (g Gate) Evaluate(position int, ent subscription.Entitlement) Access {
	if position < g.FreePreview {
		return AccessUnlocked
	}
	if ent.IsActive() {
		return AccessUnlocked
	}
	return AccessLocked
}
