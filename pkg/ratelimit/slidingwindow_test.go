package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowAllowsUpToLimit(t *testing.T) {
	w := NewWindow(3, time.Minute)
	assert.True(t, w.Allow())
	assert.True(t, w.Allow())
	assert.True(t, w.Allow())
	assert.False(t, w.Allow())
}

func TestWindowPrunesExpiredHits(t *testing.T) {
	w := NewWindow(1, 10*time.Millisecond)
	base := time.Now()
	assert.True(t, w.allowAt(base))
	assert.False(t, w.allowAt(base.Add(5*time.Millisecond)))
	assert.True(t, w.allowAt(base.Add(20*time.Millisecond)))
}

func TestWindowCountReflectsLiveHits(t *testing.T) {
	w := NewWindow(5, time.Minute)
	w.Allow()
	w.Allow()
	assert.Equal(t, 2, w.Count())
}
