package engine

import (
	"fmt"
	"sync"

	"github.com/dragclip/dragclip/internal/bridge"
	"github.com/dragclip/dragclip/pkg/exchange"
)

// State is the lifecycle state of a drag-and-drop session. Transitions are
// monotonic: Created -> Active -> one of the terminal states, and no state
// is ever revisited.
type State int32

const (
	StateCreated State = iota
	StateActive
	StateAccepted
	StateRejected
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateActive:
		return "active"
	case StateAccepted:
		return "accepted"
	case StateRejected:
		return "rejected"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Terminal reports whether the state ends the session.
func (s State) Terminal() bool {
	return s == StateAccepted || s == StateRejected || s == StateCancelled
}

// Op is a drag operation a source can offer and a target can negotiate.
type Op uint8

const (
	OpCopy Op = 1 << iota
	OpMove
	OpLink
)

func (o Op) String() string {
	switch o {
	case OpCopy:
		return "copy"
	case OpMove:
		return "move"
	case OpLink:
		return "link"
	default:
		return fmt.Sprintf("op(%d)", uint8(o))
	}
}

// OpMask is a set of offered operations.
type OpMask uint8

// Has reports whether the mask offers op.
func (m OpMask) Has(op Op) bool {
	return m&OpMask(op) != 0
}

// Session is one in-flight drag-and-drop interaction. The provider list is
// fixed at creation; state, hover target and the negotiated operation are
// mutated only by the engine, serialized through the session mutex.
type Session struct {
	id        string
	providers []*exchange.DataProvider
	allowed   OpMask

	mu         sync.Mutex
	state      State
	target     string
	negotiated Op
	err        error
	dropped    []bridge.StaticItem

	// notifyMu serializes state transitions with their observer fan-out,
	// so events for one session are delivered in the order they occurred.
	notifyMu sync.Mutex

	done chan struct{}
}

// ID returns the session's unique id.
func (s *Session) ID() string {
	return s.id
}

// Providers returns the dragged items. The slice is shared and must be
// treated as read-only.
func (s *Session) Providers() []*exchange.DataProvider {
	return s.providers
}

// Allowed returns the operations offered by the drag source.
func (s *Session) Allowed() OpMask {
	return s.allowed
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Target returns the currently hovered drop target, or "".
func (s *Session) Target() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// Negotiated returns the accepted operation. Valid only once the session
// reached Accepted.
func (s *Session) Negotiated() Op {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.negotiated
}

// Done is closed when the session is fully torn down: terminal state
// reached and, for an accepted drop, all pending resolutions completed or
// timed out.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err reports the session's overall outcome after Done. It is non-nil only
// when every format the drop target requested failed to resolve, which
// collapses the accepted drop into a rejected-equivalent outcome.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// DropReader returns a snapshot reader over the subset of representations
// the drop target requested and the engine resolved. Valid after Done for
// an accepted session; empty for any other outcome.
func (s *Session) DropReader() exchange.DataReader {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bridge.NewStaticReader(s.dropped)
}

// advance moves the session to a new state, enforcing monotonicity: a
// terminal state is never left, and Active is only entered from Created.
func (s *Session) advance(to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return fmt.Errorf("session %s already %s", s.id, s.state)
	}
	switch {
	case s.state == StateCreated && to == StateActive:
	case s.state == StateCreated && to == StateCancelled:
	case s.state == StateActive && to.Terminal():
	default:
		return fmt.Errorf("invalid transition %s -> %s for session %s", s.state, to, s.id)
	}
	s.state = to
	return nil
}

// provider returns the provider for one dragged item.
func (s *Session) provider(item exchange.Item) (*exchange.DataProvider, bool) {
	i := int(item)
	if i < 0 || i >= len(s.providers) {
		return nil, false
	}
	return s.providers[i], true
}
