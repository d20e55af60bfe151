// Package engine coordinates the clipboard and drag-and-drop paths: it owns
// every session for its whole lifetime, drives the session state machine,
// and routes OS data requests through the async resolution layer so that
// application producers never run on a thread the OS controls.
package engine

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dragclip/dragclip/internal/bridge"
	"github.com/dragclip/dragclip/internal/resolve"
	"github.com/dragclip/dragclip/pkg/exchange"
)

// Request names one (item, format) pair a drop target asked for.
type Request struct {
	Item   exchange.Item
	Format exchange.Format
}

// Options configures an Engine.
type Options struct {
	Bridge bridge.Platform
	Logger *zap.Logger

	// ResolveTimeout bounds each producer invocation when the bridge gives
	// no deadline hint. Zero means the resolver default.
	ResolveTimeout time.Duration

	// Workers sizes the producer worker pool. Zero means the resolver
	// default.
	Workers int
}

// Engine is the caller-facing facade over the native data-exchange core.
type Engine struct {
	logger   *zap.Logger
	bridge   bridge.Platform
	resolver *resolve.Resolver
	sessions *registry

	obsMu     sync.Mutex
	observers []Observer

	// clipMu guards the id of the current clipboard write, so the previous
	// write's resolver bookkeeping is released when it is overwritten.
	clipMu sync.Mutex
	clipID string
}

// New creates an Engine over the given platform bridge.
func New(opts Options) (*Engine, error) {
	if opts.Bridge == nil {
		return nil, fmt.Errorf("engine requires a platform bridge")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Engine{
		logger: opts.Logger,
		bridge: opts.Bridge,
		resolver: resolve.New(resolve.Options{
			Workers: opts.Workers,
			Timeout: opts.ResolveTimeout,
			Logger:  opts.Logger.Named("resolve"),
		}),
		sessions: newRegistry(),
	}, nil
}

// RegisterObserver adds a drop-target observer. Observers receive events
// for every session, in transition order.
func (e *Engine) RegisterObserver(o Observer) {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	e.observers = append(e.observers, o)
}

func (e *Engine) eachObserver(fn func(Observer)) {
	e.obsMu.Lock()
	obs := make([]Observer, len(e.observers))
	copy(obs, e.observers)
	e.obsMu.Unlock()
	for _, o := range obs {
		fn(o)
	}
}

// BeginDrag starts a drag session over the given items and offered
// operations. On success the session is OS-visible and Active.
func (e *Engine) BeginDrag(providers []*exchange.DataProvider, allowed OpMask) (*Session, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("drag needs at least one provider: %w", exchange.ErrInvalidFormat)
	}
	if allowed == 0 {
		allowed = OpMask(OpCopy)
	}
	s := &Session{
		id:        uuid.NewString(),
		providers: providers,
		allowed:   allowed,
		state:     StateCreated,
		done:      make(chan struct{}),
	}
	e.sessions.insert(s)

	if err := e.bridge.BeginDrag(s.id, e.dragSource(s)); err != nil {
		e.sessions.remove(s.id)
		close(s.done)
		return nil, fmt.Errorf("begin drag: %w", bridge.WrapNative(err))
	}
	if err := s.advance(StateActive); err != nil {
		return nil, err
	}
	e.logger.Debug("drag session started",
		zap.String("session", s.id),
		zap.Int("items", len(providers)))
	return s, nil
}

// TargetEntered reports that the pointer entered a drop target. The session
// stays Active; observers are notified in order.
func (e *Engine) TargetEntered(sessionID, target string, pos image.Point) error {
	s, err := e.activeSession(sessionID)
	if err != nil {
		return err
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.mu.Lock()
	s.target = target
	s.mu.Unlock()
	ev := DropEvent{Session: sessionID, Target: target, Position: pos}
	e.eachObserver(func(o Observer) { o.TargetEntered(ev) })
	return nil
}

// TargetMoved reports pointer movement over the current drop target.
func (e *Engine) TargetMoved(sessionID, target string, pos image.Point) error {
	s, err := e.activeSession(sessionID)
	if err != nil {
		return err
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	ev := DropEvent{Session: sessionID, Target: target, Position: pos}
	e.eachObserver(func(o Observer) { o.TargetMoved(ev) })
	return nil
}

// TargetLeft reports that the pointer left the hovered drop target.
func (e *Engine) TargetLeft(sessionID, target string) error {
	s, err := e.activeSession(sessionID)
	if err != nil {
		return err
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.mu.Lock()
	if s.target == target {
		s.target = ""
	}
	s.mu.Unlock()
	ev := DropEvent{Session: sessionID, Target: target}
	e.eachObserver(func(o Observer) { o.TargetLeft(ev) })
	return nil
}

// DropAccepted commits the drop: the session transitions to Accepted, the
// operation is negotiated once, and the engine begins resolving exactly the
// requested subset of representations. Unrequested formats are never
// computed. The session is torn down after all pending resolutions complete
// or time out; Done is closed at that point.
func (e *Engine) DropAccepted(sessionID, target string, op Op, requests []Request) error {
	s, ok := e.sessions.get(sessionID)
	if !ok {
		return fmt.Errorf("unknown session %s: %w", sessionID, exchange.ErrNotAvailable)
	}
	if !s.allowed.Has(op) {
		return fmt.Errorf("operation %s not offered by session %s", op, sessionID)
	}
	s.notifyMu.Lock()
	if err := s.advance(StateAccepted); err != nil {
		s.notifyMu.Unlock()
		return err
	}
	s.mu.Lock()
	s.target = target
	s.negotiated = op
	s.mu.Unlock()

	ev := DropEvent{Session: sessionID, Target: target}
	e.eachObserver(func(o Observer) { o.Dropped(ev, op) })
	s.notifyMu.Unlock()
	e.logger.Debug("drop accepted",
		zap.String("session", sessionID),
		zap.String("target", target),
		zap.String("op", op.String()),
		zap.Int("requests", len(requests)))

	go e.settleAccepted(s, requests)
	return nil
}

// settleAccepted resolves the requested subset and tears the session down
// once everything settled. Failures are contained per representation; only
// when every requested format failed does the session end with an error.
// The resolved subset is kept as the session's drop payload, readable
// through Session.DropReader after Done.
func (e *Engine) settleAccepted(s *Session, requests []Request) {
	items := make(map[exchange.Item]*bridge.StaticItem)
	var order []exchange.Item
	var failed int
	for _, req := range requests {
		data, err := e.resolveFor(s, req.Item, req.Format, 0)
		if err != nil {
			failed++
			continue
		}
		it, ok := items[req.Item]
		if !ok {
			it = &bridge.StaticItem{Data: make(map[exchange.Format][]byte)}
			if p, ok := s.provider(req.Item); ok {
				it.SuggestedName = p.Meta().SuggestedName
			}
			items[req.Item] = it
			order = append(order, req.Item)
		}
		if _, dup := it.Data[req.Format]; !dup {
			it.Order = append(it.Order, req.Format)
			it.Data[req.Format] = data
		}
	}

	payload := make([]bridge.StaticItem, 0, len(order))
	for _, item := range order {
		payload = append(payload, *items[item])
	}

	s.mu.Lock()
	s.dropped = payload
	if len(requests) > 0 && failed == len(requests) {
		s.err = fmt.Errorf("all %d requested formats failed to resolve", len(requests))
	}
	s.mu.Unlock()
	e.teardown(s)
}

// DropRejected reports that no target accepted the drop. Terminal
// immediately; no resolution occurs.
func (e *Engine) DropRejected(sessionID string) error {
	s, ok := e.sessions.get(sessionID)
	if !ok {
		return fmt.Errorf("unknown session %s: %w", sessionID, exchange.ErrNotAvailable)
	}
	if err := s.advance(StateRejected); err != nil {
		return err
	}
	e.logger.Debug("drop rejected", zap.String("session", sessionID))
	e.teardown(s)
	return nil
}

// Cancel aborts the session (escape key, window loss, OS abort). In-flight
// resolutions run to completion but their results are discarded.
func (e *Engine) Cancel(sessionID string) error {
	s, ok := e.sessions.get(sessionID)
	if !ok {
		return fmt.Errorf("unknown session %s: %w", sessionID, exchange.ErrNotAvailable)
	}
	if err := s.advance(StateCancelled); err != nil {
		return err
	}
	e.logger.Debug("drag session cancelled", zap.String("session", sessionID))
	e.teardown(s)
	return nil
}

// teardown removes the session from the registry and drops resolver
// bookkeeping, then signals Done. After teardown the session id is no
// longer reachable through the engine.
func (e *Engine) teardown(s *Session) {
	e.resolver.Abandon(s.id)
	e.sessions.remove(s.id)
	close(s.done)
}

// Session looks up a live session by id.
func (e *Engine) Session(id string) (*Session, bool) {
	return e.sessions.get(id)
}

// LiveSessions returns the number of sessions not yet torn down.
func (e *Engine) LiveSessions() int {
	return e.sessions.len()
}

func (e *Engine) activeSession(id string) (*Session, error) {
	s, ok := e.sessions.get(id)
	if !ok {
		return nil, fmt.Errorf("unknown session %s: %w", id, exchange.ErrNotAvailable)
	}
	if st := s.State(); st != StateActive {
		return nil, fmt.Errorf("session %s is %s, not active", id, st)
	}
	return s, nil
}

// resolveFor resolves one format of one dragged item through the resolution
// layer. A format absent from the item's provider answers
// ErrUnsupportedFormat without invoking any producer.
func (e *Engine) resolveFor(s *Session, item exchange.Item, format exchange.Format, deadline time.Duration) ([]byte, error) {
	p, ok := s.provider(item)
	if !ok {
		return nil, fmt.Errorf("item %d: %w", item, exchange.ErrNotAvailable)
	}
	rep, ok := p.Representation(format)
	if !ok {
		return nil, fmt.Errorf("format %q: %w", format, exchange.ErrUnsupportedFormat)
	}
	res := <-e.resolver.Resolve(resolve.Key{Session: s.id, Item: item, Format: format}, rep, deadline)
	if res.Err != nil {
		e.logger.Warn("representation failed to resolve",
			zap.String("session", s.id),
			zap.Int64("item", int64(item)),
			zap.String("format", string(format)),
			zap.Error(res.Err))
		return nil, res.Err
	}
	return res.Data, nil
}
