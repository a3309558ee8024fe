package audit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/aegis-sec/aegis/pkg/coreerr"
	"github.com/aegis-sec/aegis/pkg/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUserStore struct {
	users map[string]User
}

func newMemUserStore() *memUserStore { return &memUserStore{users: make(map[string]User)} }

func (s *memUserStore) GetUser(ctx context.Context, username string) (User, bool, error) {
	u, ok := s.users[username]
	return u, ok, nil
}
func (s *memUserStore) SaveUser(ctx context.Context, user User) error {
	s.users[user.Username] = user
	return nil
}

func newTestAuthenticator(t *testing.T, store *memUserStore) *Authenticator {
	t.Helper()
	sm, err := NewSessionManager(make([]byte, 32), time.Hour)
	require.NoError(t, err)
	return &Authenticator{
		Store:        store,
		Sessions:     sm,
		Lockout:      NewLockout(5, time.Minute),
		Argon2Params: crypto.DefaultArgon2Params,
	}
}

func TestAuthenticateSucceedsWithCorrectPassword(t *testing.T) {
	store := newMemUserStore()
	hash, err := crypto.HashPassword("correct-horse-battery", crypto.DefaultArgon2Params)
	require.NoError(t, err)
	store.users["alice"] = User{ID: "u1", Username: "alice", PasswordHash: hash}

	a := newTestAuthenticator(t, store)
	token, err := a.Authenticate(context.Background(), "alice", "correct-horse-battery", "127.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestAuthenticateFailsWithWrongPassword(t *testing.T) {
	store := newMemUserStore()
	hash, err := crypto.HashPassword("correct", crypto.DefaultArgon2Params)
	require.NoError(t, err)
	store.users["alice"] = User{ID: "u1", Username: "alice", PasswordHash: hash}

	a := newTestAuthenticator(t, store)
	_, err = a.Authenticate(context.Background(), "alice", "wrong", "127.0.0.1", "test-agent")
	require.Error(t, err)
	assert.True(t, coreerr.Is(err, coreerr.ErrAuthentication))
}

func TestAuthenticateLocksOutAfterMaxFailedAttempts(t *testing.T) {
	store := newMemUserStore()
	hash, _ := crypto.HashPassword("correct", crypto.DefaultArgon2Params)
	store.users["alice"] = User{ID: "u1", Username: "alice", PasswordHash: hash}

	sm, err := NewSessionManager(make([]byte, 32), time.Hour)
	require.NoError(t, err)
	a := &Authenticator{Store: store, Sessions: sm, Lockout: NewLockout(2, time.Minute), Argon2Params: crypto.DefaultArgon2Params}

	_, _ = a.Authenticate(context.Background(), "alice", "wrong", "ip", "ua")
	_, _ = a.Authenticate(context.Background(), "alice", "wrong", "ip", "ua")
	_, err = a.Authenticate(context.Background(), "alice", "correct", "ip", "ua")
	require.Error(t, err)
}

func TestAuthenticateMigratesLegacyPlaintextPassword(t *testing.T) {
	store := newMemUserStore()
	store.users["legacy-user"] = User{ID: "u2", Username: "legacy-user"}

	require.NoError(t, os.Setenv(legacyPasswordEnv("legacy-user"), "old-plaintext-pw"))
	defer os.Unsetenv(legacyPasswordEnv("legacy-user"))

	a := newTestAuthenticator(t, store)
	token, err := a.Authenticate(context.Background(), "legacy-user", "old-plaintext-pw", "ip", "ua")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	migrated := store.users["legacy-user"]
	assert.NotEmpty(t, migrated.PasswordHash)
	assert.True(t, migrated.NeedsRotation)
}
