package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dragclip/dragclip/internal/bridge"
	"github.com/dragclip/dragclip/pkg/exchange"
)

// recordingObserver appends one line per event, guarded for concurrent
// delivery from engine goroutines.
type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (o *recordingObserver) record(ev string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, ev)
}

func (o *recordingObserver) TargetEntered(ev DropEvent) { o.record("enter:" + ev.Target) }
func (o *recordingObserver) TargetMoved(ev DropEvent)   { o.record("move:" + ev.Target) }
func (o *recordingObserver) TargetLeft(ev DropEvent)    { o.record("leave:" + ev.Target) }
func (o *recordingObserver) Dropped(ev DropEvent, op Op) {
	o.record(fmt.Sprintf("drop:%s:%s", ev.Target, op))
}

func (o *recordingObserver) snapshot() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.events))
	copy(out, o.events)
	return out
}

func newTestEngine(t *testing.T) (*Engine, *bridge.Memory) {
	t.Helper()
	mem := bridge.NewMemory(nil)
	e, err := New(Options{Bridge: mem})
	require.NoError(t, err)
	return e, mem
}

func TestNewRequiresBridge(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}

func TestBeginDrag(t *testing.T) {
	e, mem := newTestEngine(t)

	t.Run("no providers", func(t *testing.T) {
		_, err := e.BeginDrag(nil, OpMask(OpCopy))
		require.Error(t, err)
		assert.ErrorIs(t, err, exchange.ErrInvalidFormat)
	})

	t.Run("starts active", func(t *testing.T) {
		s, err := e.BeginDrag([]*exchange.DataProvider{exchange.NewTextProvider("hi")}, OpMask(OpCopy|OpMove))
		require.NoError(t, err)
		assert.Equal(t, StateActive, s.State())
		assert.Equal(t, 1, e.LiveSessions())

		_, ok := mem.DragSource(s.ID())
		assert.True(t, ok)

		require.NoError(t, e.Cancel(s.ID()))
	})

	t.Run("zero mask defaults to copy", func(t *testing.T) {
		s, err := e.BeginDrag([]*exchange.DataProvider{exchange.NewTextProvider("hi")}, 0)
		require.NoError(t, err)
		assert.True(t, s.Allowed().Has(OpCopy))
		require.NoError(t, e.Cancel(s.ID()))
	})
}

func TestObserverOrdering(t *testing.T) {
	e, _ := newTestEngine(t)
	obs := &recordingObserver{}
	e.RegisterObserver(obs)

	s, err := e.BeginDrag([]*exchange.DataProvider{exchange.NewTextProvider("hi")}, OpMask(OpCopy))
	require.NoError(t, err)
	id := s.ID()

	require.NoError(t, e.TargetEntered(id, "pane-a", image.Pt(1, 1)))
	require.NoError(t, e.TargetMoved(id, "pane-a", image.Pt(2, 2)))
	require.NoError(t, e.TargetLeft(id, "pane-a"))
	require.NoError(t, e.TargetEntered(id, "pane-b", image.Pt(9, 9)))
	require.NoError(t, e.DropAccepted(id, "pane-b", OpCopy, []Request{{Item: 0, Format: exchange.FormatTextPlain}}))
	<-s.Done()

	assert.Equal(t, []string{
		"enter:pane-a",
		"move:pane-a",
		"leave:pane-a",
		"enter:pane-b",
		"drop:pane-b:copy",
	}, obs.snapshot())
}

func TestTargetEventsRequireActiveSession(t *testing.T) {
	e, _ := newTestEngine(t)

	err := e.TargetEntered("no-such-session", "pane", image.Pt(0, 0))
	require.Error(t, err)
	assert.ErrorIs(t, err, exchange.ErrNotAvailable)
}

func TestDropAcceptedResolvesOnlyRequested(t *testing.T) {
	e, _ := newTestEngine(t)

	var htmlCalls int32
	p, err := exchange.NewProvider([]exchange.Representation{
		exchange.NewBytes(exchange.FormatTextPlain, []byte("plain")),
		exchange.NewLazy(exchange.FormatTextHTML, func(ctx context.Context) ([]byte, error) {
			atomic.AddInt32(&htmlCalls, 1)
			return []byte("<b>plain</b>"), nil
		}),
	}, exchange.ProviderMeta{SuggestedName: "note.txt"})
	require.NoError(t, err)

	s, err := e.BeginDrag([]*exchange.DataProvider{p}, OpMask(OpCopy))
	require.NoError(t, err)

	require.NoError(t, e.DropAccepted(s.ID(), "editor", OpCopy, []Request{
		{Item: 0, Format: exchange.FormatTextPlain},
	}))
	<-s.Done()

	require.NoError(t, s.Err())
	assert.Equal(t, StateAccepted, s.State())
	assert.Equal(t, OpCopy, s.Negotiated())
	assert.Equal(t, int32(0), atomic.LoadInt32(&htmlCalls), "unrequested format must never resolve")

	r := s.DropReader()
	defer r.Close()
	items := r.Items()
	require.Len(t, items, 1)
	assert.Equal(t, []exchange.Format{exchange.FormatTextPlain}, r.Formats(items[0]))
	assert.Equal(t, "note.txt", r.SuggestedName(items[0]))

	data, err := exchange.ReadAll(context.Background(), r, items[0], exchange.FormatTextPlain)
	require.NoError(t, err)
	assert.Equal(t, []byte("plain"), data)

	assert.Equal(t, 0, e.LiveSessions())
}

func TestDropAcceptedDisallowedOperation(t *testing.T) {
	e, _ := newTestEngine(t)

	s, err := e.BeginDrag([]*exchange.DataProvider{exchange.NewTextProvider("hi")}, OpMask(OpCopy))
	require.NoError(t, err)

	err = e.DropAccepted(s.ID(), "editor", OpMove, nil)
	require.Error(t, err)
	assert.Equal(t, StateActive, s.State())

	require.NoError(t, e.Cancel(s.ID()))
}

func TestDropAcceptedFailureContainment(t *testing.T) {
	e, _ := newTestEngine(t)

	p, err := exchange.NewProvider([]exchange.Representation{
		exchange.NewBytes(exchange.FormatTextPlain, []byte("good")),
		exchange.NewLazy(exchange.FormatTextHTML, func(ctx context.Context) ([]byte, error) {
			return nil, errors.New("producer broke")
		}),
	}, exchange.ProviderMeta{})
	require.NoError(t, err)

	s, err := e.BeginDrag([]*exchange.DataProvider{p}, OpMask(OpCopy))
	require.NoError(t, err)

	require.NoError(t, e.DropAccepted(s.ID(), "editor", OpCopy, []Request{
		{Item: 0, Format: exchange.FormatTextPlain},
		{Item: 0, Format: exchange.FormatTextHTML},
	}))
	<-s.Done()

	// One of two requested formats failed: the drop still succeeds with the
	// surviving format.
	require.NoError(t, s.Err())
	r := s.DropReader()
	defer r.Close()
	items := r.Items()
	require.Len(t, items, 1)
	assert.Equal(t, []exchange.Format{exchange.FormatTextPlain}, r.Formats(items[0]))
}

func TestDropAcceptedAllRequestedFailed(t *testing.T) {
	e, _ := newTestEngine(t)

	p, err := exchange.NewProvider([]exchange.Representation{
		exchange.NewLazy(exchange.FormatTextPlain, func(ctx context.Context) ([]byte, error) {
			return nil, errors.New("producer broke")
		}),
	}, exchange.ProviderMeta{})
	require.NoError(t, err)

	s, err := e.BeginDrag([]*exchange.DataProvider{p}, OpMask(OpCopy))
	require.NoError(t, err)

	require.NoError(t, e.DropAccepted(s.ID(), "editor", OpCopy, []Request{
		{Item: 0, Format: exchange.FormatTextPlain},
	}))
	<-s.Done()

	require.Error(t, s.Err())
	r := s.DropReader()
	defer r.Close()
	assert.Empty(t, r.Items())
}

func TestUnsupportedFormatNeverInvokesProducer(t *testing.T) {
	e, mem := newTestEngine(t)

	var calls int32
	p, err := exchange.NewProvider([]exchange.Representation{
		exchange.NewLazy(exchange.FormatTextPlain, func(ctx context.Context) ([]byte, error) {
			atomic.AddInt32(&calls, 1)
			return []byte("x"), nil
		}),
	}, exchange.ProviderMeta{})
	require.NoError(t, err)

	s, err := e.BeginDrag([]*exchange.DataProvider{p}, OpMask(OpCopy))
	require.NoError(t, err)

	src, ok := mem.DragSource(s.ID())
	require.True(t, ok)

	_, err = src.Resolve(context.Background(), 0, exchange.FormatImagePNG)
	require.Error(t, err)
	assert.ErrorIs(t, err, exchange.ErrUnsupportedFormat)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	require.NoError(t, e.Cancel(s.ID()))
}

func TestCancelDiscardsInflightResolution(t *testing.T) {
	e, mem := newTestEngine(t)

	started := make(chan struct{})
	release := make(chan struct{})
	p, err := exchange.NewProvider([]exchange.Representation{
		exchange.NewLazy(exchange.FormatTextPlain, func(ctx context.Context) ([]byte, error) {
			close(started)
			<-release
			return []byte("late"), nil
		}),
	}, exchange.ProviderMeta{})
	require.NoError(t, err)

	s, err := e.BeginDrag([]*exchange.DataProvider{p}, OpMask(OpCopy))
	require.NoError(t, err)

	src, ok := mem.DragSource(s.ID())
	require.True(t, ok)

	type outcome struct {
		data []byte
		err  error
	}
	res := make(chan outcome, 1)
	go func() {
		data, err := src.Resolve(context.Background(), 0, exchange.FormatTextPlain)
		res <- outcome{data, err}
	}()

	<-started
	require.NoError(t, e.Cancel(s.ID()))
	close(release)

	out := <-res
	require.Error(t, out.err)
	assert.ErrorIs(t, out.err, exchange.ErrCancelled)
	assert.Nil(t, out.data)
	assert.Equal(t, 0, e.LiveSessions())
}

func TestDropRejected(t *testing.T) {
	e, _ := newTestEngine(t)

	s, err := e.BeginDrag([]*exchange.DataProvider{exchange.NewTextProvider("hi")}, OpMask(OpCopy))
	require.NoError(t, err)

	require.NoError(t, e.DropRejected(s.ID()))
	<-s.Done()
	assert.Equal(t, StateRejected, s.State())
	assert.Equal(t, 0, e.LiveSessions())

	// The id is unreachable after teardown.
	_, ok := e.Session(s.ID())
	assert.False(t, ok)
	err = e.Cancel(s.ID())
	require.Error(t, err)
	assert.ErrorIs(t, err, exchange.ErrNotAvailable)
}

func TestClipboardRoundTrip(t *testing.T) {
	e, _ := newTestEngine(t)

	require.NoError(t, e.WriteClipboard([]*exchange.DataProvider{exchange.NewTextProvider("hello")}))

	r, err := e.ReadClipboard()
	require.NoError(t, err)
	defer r.Close()

	items := r.Items()
	require.Len(t, items, 1)
	assert.Equal(t, []exchange.Format{exchange.FormatTextPlain}, r.Formats(items[0]))

	data, err := exchange.ReadAll(context.Background(), r, items[0], exchange.FormatTextPlain)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestClipboardLazyResolvedOnRead(t *testing.T) {
	e, _ := newTestEngine(t)

	var calls int32
	p, err := exchange.NewProvider([]exchange.Representation{
		exchange.NewLazy(exchange.FormatTextPlain, func(ctx context.Context) ([]byte, error) {
			atomic.AddInt32(&calls, 1)
			return []byte("deferred"), nil
		}),
	}, exchange.ProviderMeta{})
	require.NoError(t, err)

	require.NoError(t, e.WriteClipboard([]*exchange.DataProvider{p}))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "write must not invoke producers")

	r, err := e.ReadClipboard()
	require.NoError(t, err)
	defer r.Close()

	data, err := exchange.ReadAll(context.Background(), r, r.Items()[0], exchange.FormatTextPlain)
	require.NoError(t, err)
	assert.Equal(t, []byte("deferred"), data)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClipboardOverwriteAbandonsPreviousWrite(t *testing.T) {
	e, _ := newTestEngine(t)

	started := make(chan struct{})
	release := make(chan struct{})
	p, err := exchange.NewProvider([]exchange.Representation{
		exchange.NewLazy(exchange.FormatTextPlain, func(ctx context.Context) ([]byte, error) {
			close(started)
			<-release
			return []byte("stale"), nil
		}),
	}, exchange.ProviderMeta{})
	require.NoError(t, err)

	require.NoError(t, e.WriteClipboard([]*exchange.DataProvider{p}))

	r, err := e.ReadClipboard()
	require.NoError(t, err)
	defer r.Close()
	out := r.Read(context.Background(), r.Items()[0], exchange.FormatTextPlain)

	// The overwrite lands while the old entry's producer is mid-flight; the
	// pending read must observe the cancellation, not the stale bytes.
	<-started
	require.NoError(t, e.WriteClipboard([]*exchange.DataProvider{exchange.NewTextProvider("fresh")}))
	close(release)

	res := <-out
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, exchange.ErrCancelled)

	fresh, err := e.ReadClipboard()
	require.NoError(t, err)
	defer fresh.Close()
	data, err := exchange.ReadAll(context.Background(), fresh, fresh.Items()[0], exchange.FormatTextPlain)
	require.NoError(t, err)
	assert.Equal(t, []byte("fresh"), data)
}

func TestClipboardRepeatedReads(t *testing.T) {
	e, _ := newTestEngine(t)

	var calls int32
	p, err := exchange.NewProvider([]exchange.Representation{
		exchange.NewLazy(exchange.FormatTextPlain, func(ctx context.Context) ([]byte, error) {
			atomic.AddInt32(&calls, 1)
			return []byte("again"), nil
		}),
	}, exchange.ProviderMeta{})
	require.NoError(t, err)

	require.NoError(t, e.WriteClipboard([]*exchange.DataProvider{p}))

	// Every paste is a distinct request and gets the full payload.
	for i := 0; i < 3; i++ {
		r, err := e.ReadClipboard()
		require.NoError(t, err)
		data, err := exchange.ReadAll(context.Background(), r, r.Items()[0], exchange.FormatTextPlain)
		r.Close()
		require.NoError(t, err)
		require.Equal(t, []byte("again"), data)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestWriteClipboardEmpty(t *testing.T) {
	e, _ := newTestEngine(t)
	err := e.WriteClipboard(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, exchange.ErrInvalidFormat)
}

func TestDropAcceptedSettlesWithinDeadline(t *testing.T) {
	e, err := New(Options{Bridge: bridge.NewMemory(nil), ResolveTimeout: 30 * time.Millisecond})
	require.NoError(t, err)

	p, perr := exchange.NewProvider([]exchange.Representation{
		exchange.NewLazy(exchange.FormatTextPlain, func(ctx context.Context) ([]byte, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}),
	}, exchange.ProviderMeta{})
	require.NoError(t, perr)

	s, err := e.BeginDrag([]*exchange.DataProvider{p}, OpMask(OpCopy))
	require.NoError(t, err)

	require.NoError(t, e.DropAccepted(s.ID(), "editor", OpCopy, []Request{
		{Item: 0, Format: exchange.FormatTextPlain},
	}))

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not settle after producer deadline")
	}
	require.Error(t, s.Err())
}
