// Package resolve decouples OS data requests, which arrive synchronously on
// threads the OS controls, from application-supplied producers, which may be
// slow. Every pending resolution is an owned task record keyed by
// (session, item, format) in an explicit registry: inserted when the request
// arrives, removed when the producer finishes. Producers always run on a
// bounded worker pool, never on the goroutine that delivered the request.
package resolve

import (
	"context"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dragclip/dragclip/pkg/exchange"
)

const (
	// DefaultTimeout bounds a resolution when the platform bridge gives no
	// deadline hint. OS clipboard and drag subsystems impose hard timeouts
	// of their own; a resolution must fail cleanly before those fire.
	DefaultTimeout = 10 * time.Second

	defaultWorkers = 4

	// maxAttempts allows a single retry after a failed producer run. Only
	// failed runs count: the OS may re-request a format it already
	// received, and each such distinct request runs the producer again.
	maxAttempts = 2
)

// Key identifies one pending or completed resolution.
type Key struct {
	Session string
	Item    exchange.Item
	Format  exchange.Format
}

// Result is the outcome of one resolution request.
type Result struct {
	Data []byte
	Err  error
}

// Options configures a Resolver.
type Options struct {
	// Workers is the size of the producer worker pool.
	Workers int

	// Timeout is the default per-resolution deadline, used when a request
	// carries no deadline hint.
	Timeout time.Duration

	Logger *zap.Logger
}

type task struct {
	key     Key
	done    chan struct{}
	data    []byte
	err     error
	started time.Time
}

type sessionState struct {
	inflight  int
	abandoned bool
	attempts  map[Key]int // failed runs per key
	lastErr   map[Key]error
}

// Resolver runs producers on a worker pool and serializes concurrent
// requests for the same key: a second request for a key with a resolution
// already in flight waits on the first's outcome instead of re-invoking the
// producer. Distinct later requests run the producer again, once each. A
// failed key may be retried once; after that the cached failure is returned
// without another invocation.
type Resolver struct {
	logger  *zap.Logger
	timeout time.Duration
	sem     chan struct{}

	mu       sync.Mutex
	inflight map[Key]*task
	sessions map[string]*sessionState
}

// New creates a Resolver.
func New(opts Options) *Resolver {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Resolver{
		logger:   opts.Logger,
		timeout:  opts.Timeout,
		sem:      make(chan struct{}, opts.Workers),
		inflight: make(map[Key]*task),
		sessions: make(map[string]*sessionState),
	}
}

func (r *Resolver) session(id string) *sessionState {
	s, ok := r.sessions[id]
	if !ok {
		s = &sessionState{
			attempts: make(map[Key]int),
			lastErr:  make(map[Key]error),
		}
		r.sessions[id] = s
	}
	return s
}

// Resolve requests the bytes for one representation. The returned channel
// delivers exactly one Result and is then closed. deadline bounds the
// resolution; zero means the resolver default.
func (r *Resolver) Resolve(key Key, rep exchange.Representation, deadline time.Duration) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		out <- r.resolve(key, rep, deadline)
	}()
	return out
}

func (r *Resolver) resolve(key Key, rep exchange.Representation, deadline time.Duration) Result {
	for {
		r.mu.Lock()
		s := r.session(key.Session)
		if s.abandoned {
			r.mu.Unlock()
			return Result{Err: exchange.ErrCancelled}
		}
		if t, ok := r.inflight[key]; ok {
			// Coalesce onto the running task.
			r.mu.Unlock()
			<-t.done
			if t.err == nil {
				return Result{Data: t.data}
			}
			// The observed run failed; loop to decide whether a retry
			// is still permitted.
			continue
		}
		if s.attempts[key] >= maxAttempts {
			err := s.lastErr[key]
			r.mu.Unlock()
			return Result{Err: err}
		}
		s.inflight++
		t := &task{key: key, done: make(chan struct{}), started: time.Now()}
		r.inflight[key] = t
		r.mu.Unlock()

		r.run(t, rep, deadline)

		if t.err == nil {
			return Result{Data: t.data}
		}
		return Result{Err: t.err}
	}
}

// run executes one producer invocation on the worker pool and completes t.
func (r *Resolver) run(t *task, rep exchange.Representation, deadline time.Duration) {
	if deadline <= 0 {
		deadline = r.timeout
	}

	type produced struct {
		data []byte
		err  error
	}
	ch := make(chan produced, 1)

	ctx, cancel := context.WithTimeout(context.Background(), deadline)

	r.sem <- struct{}{}
	go func() {
		defer func() { <-r.sem }()
		data, err := rep.Bytes(ctx)
		ch <- produced{data: data, err: err}
		// A late completion after timeout still lands here; the result
		// goes nowhere because the task already completed.
		cancel()
	}()

	var data []byte
	var err error
	select {
	case p := <-ch:
		data, err = p.data, p.err
	case <-ctx.Done():
		err = &exchange.ResolutionError{Format: rep.Format(), Cause: exchange.ErrTimeout}
		r.logger.Warn("producer exceeded deadline",
			zap.String("session", t.key.Session),
			zap.Int64("item", int64(t.key.Item)),
			zap.String("format", string(t.key.Format)),
			zap.Duration("deadline", deadline))
	}

	r.complete(t, data, err)
}

func (r *Resolver) complete(t *task, data []byte, err error) {
	r.mu.Lock()
	delete(r.inflight, t.key)
	s := r.session(t.key.Session)
	s.inflight--
	discarded := s.abandoned
	if discarded {
		// The owning session reached a terminal state while the producer
		// ran. The producer was allowed to finish but its result must not
		// propagate.
		data, err = nil, exchange.ErrCancelled
	}
	if err != nil && !discarded {
		s.attempts[t.key]++
		s.lastErr[t.key] = err
	}
	if s.abandoned && s.inflight == 0 {
		delete(r.sessions, t.key.Session)
	}
	r.mu.Unlock()

	if discarded {
		r.logger.Debug("discarded resolution result for abandoned session",
			zap.String("session", t.key.Session),
			zap.String("format", string(t.key.Format)))
	}

	t.data = data
	t.err = err
	close(t.done)
}

// Open starts a virtual stream for one representation. Opening is bounded
// by the deadline; reading the stream afterwards is the caller's concern.
// Stream requests are not coalesced, each request gets its own stream.
func (r *Resolver) Open(ctx context.Context, key Key, rep exchange.Representation, deadline time.Duration) (io.ReadCloser, error) {
	r.mu.Lock()
	abandoned := r.session(key.Session).abandoned
	r.mu.Unlock()
	if abandoned {
		return nil, exchange.ErrCancelled
	}
	if deadline <= 0 {
		deadline = r.timeout
	}
	openCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	type opened struct {
		rc  io.ReadCloser
		err error
	}
	ch := make(chan opened, 1)
	r.sem <- struct{}{}
	go func() {
		defer func() { <-r.sem }()
		rc, err := rep.Open(openCtx)
		ch <- opened{rc: rc, err: err}
	}()
	select {
	case o := <-ch:
		return o.rc, o.err
	case <-openCtx.Done():
		return nil, &exchange.ResolutionError{Format: rep.Format(), Cause: exchange.ErrTimeout}
	}
}

// Abandon marks a session terminal. Producers already in flight run to
// completion, but their results are discarded and every later request for
// the session fails with ErrCancelled. Bookkeeping for the session is
// dropped once its last in-flight producer finishes.
func (r *Resolver) Abandon(sessionID string) {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return
	}
	s.abandoned = true
	if s.inflight == 0 {
		delete(r.sessions, sessionID)
	}
	r.mu.Unlock()
}

// Pending returns the number of resolutions currently in flight for a
// session.
func (r *Resolver) Pending(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		return s.inflight
	}
	return 0
}
