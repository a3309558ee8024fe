package core

import (
	"context"

	"github.com/aegis-sec/aegis/pkg/audit"
	"github.com/aegis-sec/aegis/pkg/coreerr"
)

// Login authenticates username/password and returns a bearer session
// token, delegating to the Authenticator built in wireAudit (spec §4.12).
func (c *Core) Login(ctx context.Context, username, password, ip, userAgent string) (string, error) {
	return c.Auth.Authenticate(ctx, username, password, ip, userAgent)
}

// AuthenticatedUser resolves a validated session token's subject to the
// full user record, so callers (pkg/api's middleware) can run
// audit.CheckPermission against the request.
func (c *Core) AuthenticatedUser(token string) (audit.User, error) {
	claims, err := c.Sessions.ValidateToken(token)
	if err != nil {
		return audit.User{}, err
	}
	user, ok := c.userStore.GetUserByID(claims.Subject)
	if !ok {
		return audit.User{}, coreerr.New(coreerr.ErrAuthentication, "SESSION_USER_MISSING", "session subject has no matching user record", "")
	}
	return user, nil
}
