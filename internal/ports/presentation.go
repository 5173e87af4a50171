package ports

// Vec3 is a world-space position used by the presentation layer.
type Vec3 struct {
	X, Y, Z float64
}

// Quat is a rotation expressed as a unit quaternion.
type Quat struct {
	X, Y, Z, W float64
}

// Pose bundles the position, rotation and uniform scale of a card
// visual.
type Pose struct {
	Position Vec3
	Rotation Quat
	Scale    float64
}

// PresentationPort is the engine-side surface the reconciler drives.
// All calls are idempotent; the reconciler re-emits the full desired
// presentation on every pass and the implementation deduplicates.
type PresentationPort interface {
	// SetCardVisible shows or hides a card visual.
	SetCardVisible(cardID int, visible bool)

	// SetCardPickupable enables or disables direct interaction with a
	// card. Only cards in the local participant's hand are pickupable.
	SetCardPickupable(cardID int, pickupable bool)

	// SetCardFaceUp controls whether the card face or back is shown.
	SetCardFaceUp(cardID int, faceUp bool)

	// MoveCardTo retargets a card's animated pose.
	MoveCardTo(cardID int, pose Pose)

	// PlaySound plays a one-shot audio cue.
	PlaySound(cue string)

	// SetSeatDisplayName updates a seat's name tag. Empty hides the tag.
	SetSeatDisplayName(seat int, name string)

	// SetTurnIndicator points the turn marker at a seat with the given
	// direction, or clears it for a negative seat.
	SetTurnIndicator(seat int, direction int)

	// SetResultText shows end-of-hand or status text. Empty clears it.
	SetResultText(text string)

	// SetUnoButtonVisible toggles the local declare button.
	SetUnoButtonVisible(visible bool)

	// SetChallengeButtonVisible toggles the local challenge button.
	SetChallengeButtonVisible(visible bool)
}

// LayoutPort supplies table geometry: where cards sit for each seat,
// the deck and the pile. Implementations are pure functions of their
// inputs so the reconciler stays deterministic.
type LayoutPort interface {
	// HandPose returns the pose of hand slot index out of count cards
	// fanned in front of a seat.
	HandPose(seat, index, count int) Pose

	// DeckPose returns the face-down draw pile pose.
	DeckPose() Pose

	// PlayedPose returns the face-up pile-top pose.
	PlayedPose() Pose
}
