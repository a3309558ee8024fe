package models

import "time"

// Session is a user-scoped interaction window (spec §3).
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
	Permissions  []string  `json:"permissions"`
	Active       bool      `json:"active"`
}

// Inactive reports whether the session should be treated as expired.
func (s *Session) Inactive(now time.Time, timeout time.Duration) bool {
	if !s.Active {
		return true
	}
	return now.Sub(s.LastActivity) > timeout
}

// User is an authenticated principal (spec §3/§4.12).
// Invariant: PasswordHash never stores plaintext; it is the output of a
// memory-hard KDF (see pkg/audit).
type User struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	Role           string     `json:"role"`
	Permissions    []string   `json:"permissions"`
	PasswordHash   string     `json:"passwordHash"`
	CreatedAt      time.Time  `json:"createdAt"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
	FailedAttempts int        `json:"failedAttempts"`
	LockedUntil    *time.Time `json:"lockedUntil,omitempty"`
	Active         bool       `json:"active"`
	// NeedsRotation is set when a legacy plaintext password was migrated
	// on load (spec §4.12); callers should force a password change.
	NeedsRotation bool `json:"needsRotation,omitempty"`
}

// AuditRecord is one append-only audit log entry (spec §3/§4.12).
type AuditRecord struct {
	ID        string         `json:"id"`
	Ts        time.Time      `json:"ts"`
	Actor     string         `json:"actor"`
	Action    string         `json:"action"`
	Resource  string         `json:"resource"`
	Details   map[string]any `json:"details,omitempty"`
	SessionID string         `json:"sessionId,omitempty"`
	Success   bool           `json:"success"`
	Duration  time.Duration  `json:"duration"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}
