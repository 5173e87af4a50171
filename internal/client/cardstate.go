package client

import "uno/internal/ports"

// State is the client-side lifecycle stage of one card visual.
type State int

const (
	StateInDeck State = iota
	StateInHand
	StatePendingPlay
	StatePlayedAnimating
	StatePlayedSettled
	StateHeld
)

// Animation bounds. Durations outside the range are clamped; targets
// closer than the thresholds do not restart a running animation.
const (
	minAnimSeconds = 0.05
	maxAnimSeconds = 1.0

	samePosSqrThreshold = 0.0004
	sameRotDotThreshold = 0.999
	sameScaleThreshold  = 0.001
)

// CardState is the per-card client state machine. It blends the
// authoritative location with the local optimistic prediction and
// carries the interpolation toward the current placement target.
// Held suspends every automatic transition until release.
type CardState struct {
	ID int

	state     State
	heldPrev  State
	pending   bool // local optimistic play awaiting confirmation

	pos   ports.Vec3
	rot   ports.Quat
	scale float64

	startPos   ports.Vec3
	startRot   ports.Quat
	startScale float64

	targetPos   ports.Vec3
	targetRot   ports.Quat
	targetScale float64

	elapsed  float64
	duration float64
	settled  bool
}

// NewCardState creates a card resting in the deck at the given pose.
func NewCardState(id int, deck ports.Pose) *CardState {
	return &CardState{
		ID:          id,
		state:       StateInDeck,
		pos:         deck.Position,
		rot:         deck.Rotation,
		scale:       deck.Scale,
		startPos:    deck.Position,
		startRot:    deck.Rotation,
		startScale:  deck.Scale,
		targetPos:   deck.Position,
		targetRot:   deck.Rotation,
		targetScale: deck.Scale,
		settled:     true,
	}
}

// Current returns the card's interpolated pose.
func (c *CardState) Current() ports.Pose {
	return ports.Pose{Position: c.pos, Rotation: c.rot, Scale: c.scale}
}

// CurrentState returns the machine's state.
func (c *CardState) CurrentState() State { return c.state }

// Pending reports whether a local play prediction is outstanding.
func (c *CardState) Pending() bool { return c.pending }

// SetHeld suspends or resumes automatic placement. Releasing leaves the
// card where the next reconciliation pass puts it.
func (c *CardState) SetHeld(held bool) {
	if held {
		if c.state != StateHeld {
			c.heldPrev = c.state
			c.state = StateHeld
		}
		return
	}
	if c.state == StateHeld {
		c.state = c.heldPrev
		c.settled = false
	}
}

// sameTarget reports whether the card is already moving to (or resting
// at) the given target, in which case retargeting must not restart the
// animation.
func (c *CardState) sameTarget(pose ports.Pose) bool {
	if sqrDist(c.targetPos, pose.Position) >= samePosSqrThreshold {
		return false
	}
	if absFloat(quatDot(c.targetRot, pose.Rotation)) <= sameRotDotThreshold {
		return false
	}
	if c.targetScale != 0 && pose.Scale != 0 &&
		absFloat(c.targetScale-pose.Scale) >= sameScaleThreshold {
		return false
	}
	return true
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func (c *CardState) retarget(pose ports.Pose, duration float64) {
	if c.sameTarget(pose) {
		return
	}
	// Fixed-duration interpolation runs from the pose the card holds at
	// retarget time.
	c.startPos = c.pos
	c.startRot = c.rot
	c.startScale = c.scale
	c.targetPos = pose.Position
	c.targetRot = pose.Rotation
	if pose.Scale != 0 {
		c.targetScale = pose.Scale
	}
	c.elapsed = 0
	c.duration = clamp(duration, minAnimSeconds, maxAnimSeconds)
	c.settled = false
}

// SetDeck snaps the card back under the deck. Deck residency is not
// animated; hidden cards teleport.
func (c *CardState) SetDeck(deck ports.Pose) {
	if c.state == StateHeld {
		return
	}
	c.state = StateInDeck
	c.pending = false
	c.pos = deck.Position
	c.rot = deck.Rotation
	c.scale = deck.Scale
	c.startPos = deck.Position
	c.startRot = deck.Rotation
	c.startScale = deck.Scale
	c.targetPos = deck.Position
	c.targetRot = deck.Rotation
	c.targetScale = deck.Scale
	c.settled = true
}

// SetHandTarget places the card into hand layout. Ignored while held or
// while a local play prediction is in flight.
func (c *CardState) SetHandTarget(pose ports.Pose, duration float64) {
	if c.state == StateHeld || c.pending {
		return
	}
	c.state = StateInHand
	c.retarget(pose, duration)
}

// BeginPendingPlay starts the optimistic fly-to-pile animation. Only
// the card's owner may call this, after prevalidation.
func (c *CardState) BeginPendingPlay(pile ports.Pose, duration float64) {
	if c.state == StateHeld {
		c.SetHeld(false)
	}
	c.pending = true
	c.state = StatePendingPlay
	c.retarget(pile, duration)
}

// ConfirmPlayed adopts the authoritative pile placement. A converging
// prediction animation is not restarted.
func (c *CardState) ConfirmPlayed(pile ports.Pose, duration float64) {
	if c.state == StateHeld {
		return
	}
	c.pending = false
	if c.state != StatePlayedSettled {
		c.state = StatePlayedAnimating
	}
	c.retarget(pile, duration)
}

// Deny rolls an optimistic play back into hand layout.
func (c *CardState) Deny(hand ports.Pose, duration float64) {
	if !c.pending {
		return
	}
	c.pending = false
	c.state = StateInHand
	c.retarget(hand, duration)
}

// SetFacing overrides the card's orientation immediately, bypassing
// interpolation. Used for the live pile-top billboard.
func (c *CardState) SetFacing(rot ports.Quat) {
	if c.state == StateHeld {
		return
	}
	c.rot = rot
	c.startRot = rot
	c.targetRot = rot
}

// Advance steps the interpolation by dt seconds. Held cards do not
// move.
func (c *CardState) Advance(dt float64) {
	if c.state == StateHeld || c.settled {
		return
	}
	c.elapsed += dt
	t := 1.0
	if c.duration > 0 {
		t = clamp(c.elapsed/c.duration, 0, 1)
	}
	c.pos = lerpVec3(c.startPos, c.targetPos, t)
	c.rot = slerpQuat(c.startRot, c.targetRot, t)
	c.scale = lerp(c.startScale, c.targetScale, t)

	if t >= 1 {
		c.pos = c.targetPos
		c.rot = c.targetRot
		c.scale = c.targetScale
		c.settled = true
		if c.state == StatePlayedAnimating {
			c.state = StatePlayedSettled
		}
	}
}
