package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockoutAllowsUntilThreshold(t *testing.T) {
	l := NewLockout(3, time.Minute)
	assert.True(t, l.Allow("alice"))
	l.RecordFailure("alice")
	l.RecordFailure("alice")
	assert.True(t, l.Allow("alice"))
	l.RecordFailure("alice")
	assert.False(t, l.Allow("alice"))
}

func TestLockoutResetClearsFailures(t *testing.T) {
	l := NewLockout(1, time.Minute)
	l.RecordFailure("bob")
	assert.False(t, l.Allow("bob"))
	l.Reset("bob")
	assert.True(t, l.Allow("bob"))
}

func TestLockoutWindowExpires(t *testing.T) {
	l := NewLockout(1, 10*time.Millisecond)
	l.RecordFailure("carol")
	assert.False(t, l.Allow("carol"))
	time.Sleep(20 * time.Millisecond)
	assert.True(t, l.Allow("carol"))
}
