package bridge

import (
	"sync"

	"go.uber.org/zap"

	"github.com/dragclip/dragclip/pkg/exchange"
)

// Memory is an in-process bridge: the clipboard is a slot in memory and
// drag sessions are visible only inside the process. It backs the test
// suite and the scripted drag demo; lazy representations stay lazy, the
// read side pulls them through the stored source on demand.
type Memory struct {
	logger *zap.Logger

	mu    sync.Mutex
	clip  DataSource
	drags map[string]DataSource
}

// NewMemory creates an in-process bridge.
func NewMemory(logger *zap.Logger) *Memory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Memory{
		logger: logger,
		drags:  make(map[string]DataSource),
	}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) BeginDrag(sessionID string, source DataSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drags[sessionID] = source
	return nil
}

// DragSource returns the source registered for a session, for driving the
// in-process drop path.
func (m *Memory) DragSource(sessionID string) (DataSource, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.drags[sessionID]
	return src, ok
}

// EndDrag releases the bridge's reference to a finished session.
func (m *Memory) EndDrag(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drags, sessionID)
}

func (m *Memory) WriteClipboard(source DataSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clip = source
	return nil
}

func (m *Memory) ReadClipboard() (exchange.DataReader, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return NewSourceReader(m.clip), nil
}

func (m *Memory) ReadDrop(ev DropEvent) (exchange.DataReader, error) {
	return NewSourceReader(ev.Source), nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clip = nil
	m.drags = make(map[string]DataSource)
	return nil
}
