package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionManagerRejectsShortSecret(t *testing.T) {
	_, err := NewSessionManager([]byte("short"), time.Hour)
	assert.Error(t, err)
}

func TestIssueAndValidateTokenRoundTrips(t *testing.T) {
	sm, err := NewSessionManager(make([]byte, 32), time.Hour)
	require.NoError(t, err)

	token, err := sm.IssueToken(SessionClaims{Subject: "user-1", SessionID: "sess-1"})
	require.NoError(t, err)

	claims, err := sm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "sess-1", claims.SessionID)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	sm, err := NewSessionManager(make([]byte, 32), -time.Hour)
	require.NoError(t, err)

	token, err := sm.IssueToken(SessionClaims{Subject: "user-1"})
	require.NoError(t, err)

	_, err = sm.ValidateToken(token)
	assert.Error(t, err)
}
