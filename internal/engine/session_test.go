package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateString(t *testing.T) {
	assert.Equal(t, "created", StateCreated.String())
	assert.Equal(t, "active", StateActive.String())
	assert.Equal(t, "accepted", StateAccepted.String())
	assert.Equal(t, "rejected", StateRejected.String())
	assert.Equal(t, "cancelled", StateCancelled.String())
}

func TestStateTerminal(t *testing.T) {
	assert.False(t, StateCreated.Terminal())
	assert.False(t, StateActive.Terminal())
	assert.True(t, StateAccepted.Terminal())
	assert.True(t, StateRejected.Terminal())
	assert.True(t, StateCancelled.Terminal())
}

func TestOpMaskHas(t *testing.T) {
	m := OpMask(OpCopy | OpLink)
	assert.True(t, m.Has(OpCopy))
	assert.True(t, m.Has(OpLink))
	assert.False(t, m.Has(OpMove))
}

func TestSessionAdvance(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		to      State
		wantErr bool
	}{
		{"created to active", StateCreated, StateActive, false},
		{"created to cancelled", StateCreated, StateCancelled, false},
		{"created to accepted", StateCreated, StateAccepted, true},
		{"active to accepted", StateActive, StateAccepted, false},
		{"active to rejected", StateActive, StateRejected, false},
		{"active to cancelled", StateActive, StateCancelled, false},
		{"active to created", StateActive, StateCreated, true},
		{"accepted is terminal", StateAccepted, StateCancelled, true},
		{"rejected is terminal", StateRejected, StateActive, true},
		{"cancelled is terminal", StateCancelled, StateAccepted, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Session{id: "s", state: tt.from, done: make(chan struct{})}
			err := s.advance(tt.to)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.from, s.State())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, s.State())
		})
	}
}
