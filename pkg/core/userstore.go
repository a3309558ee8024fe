package core

import (
	"context"
	"sync"

	"github.com/aegis-sec/aegis/pkg/audit"
	"github.com/aegis-sec/aegis/pkg/crypto"
)

// fileUserStore persists audit.User records as a single GCM-enveloped
// JSON file (spec §6's "auth/users.json ... same envelope"), grounded on
// the same atomic-write-then-rename pattern pkg/memory/subsystem.go and
// pkg/learning/loop.go already use for their own stores.
type fileUserStore struct {
	mu    sync.Mutex
	path  string
	keys  *crypto.KeyManager
	users map[string]audit.User
}

func newFileUserStore(path string, keys *crypto.KeyManager) (*fileUserStore, error) {
	s := &fileUserStore{path: path, keys: keys, users: make(map[string]audit.User)}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *fileUserStore) load() error {
	env, exists, err := crypto.ReadEnvelope(s.path)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	key, err := s.keys.DeriveStoreKey("users")
	if err != nil {
		return err
	}
	var users []audit.User
	if err := crypto.OpenJSON(key, env, &users); err != nil {
		return err
	}
	for _, u := range users {
		s.users[u.Username] = u
	}
	return nil
}

func (s *fileUserStore) GetUser(ctx context.Context, username string) (audit.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	return u, ok, nil
}

// GetUserByID looks up a user by ID rather than username, since session
// claims carry the subject ID (spec §4.12) and request-time authorization
// needs the user's permission set.
func (s *fileUserStore) GetUserByID(id string) (audit.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return audit.User{}, false
}

func (s *fileUserStore) SaveUser(ctx context.Context, user audit.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.Username] = user
	return s.persistLocked()
}

func (s *fileUserStore) persistLocked() error {
	all := make([]audit.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u)
	}
	key, err := s.keys.DeriveStoreKey("users")
	if err != nil {
		return err
	}
	env, err := crypto.SealJSON(key, all)
	if err != nil {
		return err
	}
	return crypto.WriteEnvelopeAtomic(s.path, env)
}
