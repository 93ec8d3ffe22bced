package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	m := NewManager("")
	assert.False(t, m.On(IndexCacheInvalidate))
	assert.True(t, m.On(SignupOpen))
	assert.Equal(t, []string{IndexCacheInvalidate, SignupOpen}, m.Names())

	var nilManager *Manager
	assert.False(t, nilManager.On(IndexCacheInvalidate))
	assert.True(t, nilManager.On(SignupOpen))
}

func TestOverrides(t *testing.T) {
	m := NewManager(" Index_Cache_Invalidate = ON , signup_open=off")
	assert.True(t, m.On(IndexCacheInvalidate))
	assert.False(t, m.On(SignupOpen))
	assert.Empty(t, m.Invalid())
}

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0,g=maybe")

	for _, name := range []string{"a", "c", "e"} {
		assert.True(t, m.Enabled(name, 1), name)
	}
	for _, name := range []string{"b", "d", "f", "g", "unknown"} {
		assert.False(t, m.Enabled(name, 1), name)
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,broken=x%")

	assert.True(t, m.Enabled("always", 1))
	assert.True(t, m.On("always"))
	assert.False(t, m.Enabled("never", 1))
	assert.False(t, m.Enabled("broken", 1))

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", 42), "rollout must be deterministic per user")
	}
	assert.False(t, m.On("canary"), "percentage rollout requires a user")

	enabled := 0
	for uid := uint(1); uid <= 1000; uid++ {
		if m.Enabled("canary", uid) {
			enabled++
		}
	}
	assert.InDelta(t, 250, enabled, 80)
}

func TestInvalidEntriesAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, y = 20% ,=off,z=")

	assert.Equal(t, []string{"bad", "=off", "z="}, m.Invalid())

	snap := m.Snapshot(123)
	assert.Len(t, snap, 4) // x, y and the two defaults
	assert.True(t, snap["x"])
	assert.True(t, snap[SignupOpen])
}
