package engine

import (
	"image"
)

// DropEvent describes one drag lifecycle notification delivered to
// drop-target observers. It is a read-only snapshot; observers never see
// session internals.
type DropEvent struct {
	Session  string
	Target   string
	Position image.Point
}

// Observer receives drag lifecycle notifications. Events for one session
// arrive in the order the transitions occurred. Enter, move and leave do
// not change session state; Dropped is delivered exactly once, when a
// target commits.
type Observer interface {
	TargetEntered(ev DropEvent)
	TargetMoved(ev DropEvent)
	TargetLeft(ev DropEvent)
	Dropped(ev DropEvent, op Op)
}
