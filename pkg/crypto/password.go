package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2Params are the memory-hard KDF cost parameters (spec §4.12): at
// least 64 MiB memory, time cost 3, parallelism 4, 32-byte output.
type Argon2Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

// DefaultArgon2Params satisfies spec §4.12's floor: memory ≥ 64 MiB,
// time-cost ≥ 3, parallelism ≥ 4, 32-byte output.
var DefaultArgon2Params = Argon2Params{
	MemoryKiB:   64 * 1024,
	Iterations:  3,
	Parallelism: 4,
	SaltLen:     16,
	KeyLen:      32,
}

// HashPassword derives an Argon2id hash encoded as
// "argon2id$m=<kib>,t=<iter>,p=<par>$<salt-b64>$<hash-b64>" so params
// travel with the hash and can be upgraded without a migration step that
// silently re-hashes everyone at once.
func HashPassword(password string, params Argon2Params) (string, error) {
	salt := make([]byte, params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("crypto: generating salt: %w", err)
	}
	hash := argon2.IDKey([]byte(password), salt, params.Iterations, params.MemoryKiB, params.Parallelism, params.KeyLen)

	return fmt.Sprintf("argon2id$m=%d,t=%d,p=%d$%s$%s",
		params.MemoryKiB, params.Iterations, params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword reports whether password matches encoded, using a
// constant-time comparison of the derived hash (spec §8 property 8 —
// verify time for equal-length inputs must not leak which bytes matched).
func VerifyPassword(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 4 || parts[0] != "argon2id" {
		return false, fmt.Errorf("crypto: unrecognized password hash format")
	}

	var memKiB, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[1], "m=%d,t=%d,p=%d", &memKiB, &iterations, &parallelism); err != nil {
		return false, fmt.Errorf("crypto: parsing hash params: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return false, fmt.Errorf("crypto: decoding salt: %w", err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return false, fmt.Errorf("crypto: decoding hash: %w", err)
	}

	got := argon2.IDKey([]byte(password), salt, iterations, memKiB, parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// NeedsRehash reports whether encoded was produced with weaker-than-current
// parameters and should be regenerated on next successful login.
func NeedsRehash(encoded string, current Argon2Params) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 4 || parts[0] != "argon2id" {
		return true
	}
	var memKiB, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[1], "m=%d,t=%d,p=%d", &memKiB, &iterations, &parallelism); err != nil {
		return true
	}
	return memKiB < current.MemoryKiB || iterations < current.Iterations || parallelism < current.Parallelism
}
