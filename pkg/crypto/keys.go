package crypto

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// MinMasterKeyLen is the shortest master key the codec will accept (spec
// §4.2 / §6): startup must fail rather than silently run under-keyed.
const MinMasterKeyLen = 32

// KeyManager derives one AES-256 subkey per named store from a single
// master key, so a compromised store's key reveals nothing about the
// others'. There is no teacher equivalent for file-store keying (tarsy
// persists through Postgres); this generalizes wisbric-nightowl's
// session-secret-length check to a per-store HKDF derivation.
type KeyManager struct {
	master []byte
}

// NewKeyManager validates and wraps the master key read from
// MASTER_ENCRYPTION_KEY. The caller owns zeroing master after the process
// no longer needs it live in memory.
func NewKeyManager(master []byte) (*KeyManager, error) {
	if len(master) < MinMasterKeyLen {
		return nil, fmt.Errorf("crypto: master key must be at least %d bytes, got %d", MinMasterKeyLen, len(master))
	}
	cp := make([]byte, len(master))
	copy(cp, master)
	return &KeyManager{master: cp}, nil
}

// DeriveStoreKey derives a 32-byte AES-256 key scoped to store using
// HKDF-SHA256 with store as both salt and info label. Deterministic: the
// same store name always yields the same key for a given master key, so a
// restart can re-derive keys without persisting them.
func (k *KeyManager) DeriveStoreKey(store string) ([32]byte, error) {
	var out [32]byte
	reader := hkdf.New(sha256.New, k.master, []byte(store), []byte("aegis-core-store-key:"+store))
	if _, err := io.ReadFull(reader, out[:]); err != nil {
		return out, fmt.Errorf("crypto: deriving key for store %q: %w", store, err)
	}
	return out, nil
}
