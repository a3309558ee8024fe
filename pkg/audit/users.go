package audit

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/aegis-sec/aegis/pkg/coreerr"
	"github.com/aegis-sec/aegis/pkg/crypto"
)

// User is an authenticatable account. PasswordHash, if empty, signals a
// legacy record awaiting migration (spec §4.12).
type User struct {
	ID            string
	Username      string
	PasswordHash  string
	Permissions   []Permission
	NeedsRotation bool
}

// UserStore persists User records.
type UserStore interface {
	GetUser(ctx context.Context, username string) (User, bool, error)
	SaveUser(ctx context.Context, user User) error
}

// Authenticator implements spec §4.12's authenticate/checkPermission
// surface.
type Authenticator struct {
	Store        UserStore
	Sessions     *SessionManager
	Lockout      *Lockout
	Log          *Log
	Argon2Params crypto.Argon2Params

	warnedOnce sync.Map // username -> struct{}, one-time legacy-migration warning
}

// legacyPasswordEnv returns the well-known environment variable name a
// legacy plaintext password for username may be supplied under (spec
// §4.12: "the environment supplies a legacy plaintext under a
// well-known variable").
func legacyPasswordEnv(username string) string {
	return "AEGIS_LEGACY_PASSWORD_" + username
}

// Authenticate validates user/pass, enforcing lock-out, and on success
// issues a self-signed bearer token whose subject and session ID are both
// the user's ID; no server-side session record is created. Every attempt
// (success or failure) is audited with outcome and timing (spec §4.12).
func (a *Authenticator) Authenticate(ctx context.Context, username, password, ip, userAgent string) (token string, err error) {
	start := time.Now()
	defer func() {
		if a.Log != nil {
			a.Log.Append(Record{
				Actor:    username,
				Action:   "authenticate",
				Resource: "session",
				Success:  err == nil,
				Duration: time.Since(start),
				Metadata: map[string]string{"ip": ip, "userAgent": userAgent},
			})
		}
	}()

	if a.Lockout != nil && !a.Lockout.Allow(username) {
		err = coreerr.New(coreerr.ErrAuthentication, "ACCOUNT_LOCKED", "account is locked out after too many failed attempts", "")
		return "", err
	}

	user, ok, storeErr := a.Store.GetUser(ctx, username)
	if storeErr != nil {
		err = coreerr.Wrap(coreerr.ErrAuthentication, "AUTH_STORE_ERROR", "", storeErr)
		return "", err
	}
	if !ok {
		a.recordFailure(username)
		err = coreerr.New(coreerr.ErrAuthentication, "INVALID_CREDENTIALS", "invalid username or password", "")
		return "", err
	}

	if user.PasswordHash == "" {
		if migrated, migrateErr := a.migrateLegacyPassword(ctx, &user, password); migrateErr != nil {
			err = coreerr.Wrap(coreerr.ErrAuthentication, "MIGRATION_FAILED", "", migrateErr)
			return "", err
		} else if !migrated {
			a.recordFailure(username)
			err = coreerr.New(coreerr.ErrAuthentication, "INVALID_CREDENTIALS", "invalid username or password", "")
			return "", err
		}
	} else {
		valid, verifyErr := crypto.VerifyPassword(password, user.PasswordHash)
		if verifyErr != nil || !valid {
			a.recordFailure(username)
			err = coreerr.New(coreerr.ErrAuthentication, "INVALID_CREDENTIALS", "invalid username or password", "")
			return "", err
		}
	}

	if a.Lockout != nil {
		a.Lockout.Reset(username)
	}

	if crypto.NeedsRehash(user.PasswordHash, a.Argon2Params) {
		user.NeedsRotation = true
		_ = a.Store.SaveUser(ctx, user)
	}

	token, err = a.Sessions.IssueToken(SessionClaims{Subject: user.ID, SessionID: user.ID})
	return token, err
}

func (a *Authenticator) recordFailure(username string) {
	if a.Lockout != nil {
		a.Lockout.RecordFailure(username)
	}
}

// migrateLegacyPassword implements spec §4.12's rehash-on-load migration:
// if a loaded user record lacks a hash but the environment supplies a
// legacy plaintext under a well-known variable, rehash on load, emit a
// one-time warning keyed by username, and mark the record for mandatory
// rotation.
func (a *Authenticator) migrateLegacyPassword(ctx context.Context, user *User, password string) (bool, error) {
	legacy, ok := os.LookupEnv(legacyPasswordEnv(user.Username))
	if !ok || legacy != password {
		return false, nil
	}

	hash, err := crypto.HashPassword(password, a.Argon2Params)
	if err != nil {
		return false, err
	}
	user.PasswordHash = hash
	user.NeedsRotation = true

	if _, warned := a.warnedOnce.LoadOrStore(user.Username, struct{}{}); !warned {
		slog.Warn("migrated legacy plaintext password", "username", user.Username)
	}

	return true, a.Store.SaveUser(ctx, *user)
}
