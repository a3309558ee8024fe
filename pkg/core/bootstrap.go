package core

import (
	"context"
	"fmt"
	"os"

	"github.com/aegis-sec/aegis/pkg/audit"
	"github.com/aegis-sec/aegis/pkg/crypto"
	"github.com/google/uuid"
)

// bootstrapAdmin creates the "admin" account from ADMIN_PASSWORD on first
// run (spec §6: "ADMIN_PASSWORD (required at first bootstrap only)"). A
// store that already has an admin user is left untouched; a fresh store
// with no ADMIN_PASSWORD set is a configuration error, since otherwise
// the deployment would boot with no way to authenticate at all.
func bootstrapAdmin(ctx context.Context, store *fileUserStore, argon2Params crypto.Argon2Params) error {
	if _, ok, _ := store.GetUser(ctx, "admin"); ok {
		return nil
	}

	password, ok := os.LookupEnv("ADMIN_PASSWORD")
	if !ok || password == "" {
		return fmt.Errorf("core: no admin account exists and ADMIN_PASSWORD is not set")
	}

	hash, err := crypto.HashPassword(password, argon2Params)
	if err != nil {
		return fmt.Errorf("core: hashing admin password: %w", err)
	}

	admin := audit.User{
		ID:           uuid.NewString(),
		Username:     "admin",
		PasswordHash: hash,
		Permissions: []audit.Permission{
			{Resource: "*", Action: "*"},
		},
	}
	return store.SaveUser(ctx, admin)
}
