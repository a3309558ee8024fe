// Package crypto implements the core's encrypted-persistence codec (C2):
// AES-256-GCM envelope wrap/unwrap for JSON blobs, keyed per store via
// HKDF off a single master key (spec §4.2/§6).
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/aegis-sec/aegis/pkg/coreerr"
)

// Envelope is the on-disk wire shape for one encrypted file (spec §6):
// {"iv": hex, "authTag": hex, "data": hex(ciphertext)}. IV and auth tag are
// stored separately even though Go's GCM Seal appends the tag to the
// ciphertext, to match the envelope contract byte-for-byte.
type Envelope struct {
	IV      string `json:"iv"`
	AuthTag string `json:"authTag"`
	Data    string `json:"data"`
}

// Seal encrypts plaintext with AES-256-GCM under key, producing an
// Envelope ready to serialize to disk.
func Seal(key [32]byte, plaintext []byte) (*Envelope, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("crypto: building cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: building GCM: %w", err)
	}

	iv := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("crypto: generating nonce: %w", err)
	}

	sealed := gcm.Seal(nil, iv, plaintext, nil)
	tagLen := gcm.Overhead()
	ciphertext, tag := sealed[:len(sealed)-tagLen], sealed[len(sealed)-tagLen:]

	return &Envelope{
		IV:      hex.EncodeToString(iv),
		AuthTag: hex.EncodeToString(tag),
		Data:    hex.EncodeToString(ciphertext),
	}, nil
}

// Open decrypts env under key. Any structural problem — bad hex, wrong
// tag length, failed authentication — is reported as PersistenceCorrupt
// (spec §4.2: failure to decrypt on load is non-recoverable and must never
// be silently swallowed into a fresh empty store).
func Open(key [32]byte, env *Envelope) ([]byte, error) {
	iv, err := hex.DecodeString(env.IV)
	if err != nil {
		return nil, corrupt("decoding iv", err)
	}
	tag, err := hex.DecodeString(env.AuthTag)
	if err != nil {
		return nil, corrupt("decoding authTag", err)
	}
	data, err := hex.DecodeString(env.Data)
	if err != nil {
		return nil, corrupt("decoding data", err)
	}

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, corrupt("building cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, corrupt("building GCM", err)
	}
	if len(iv) != gcm.NonceSize() {
		return nil, corrupt("nonce length mismatch", fmt.Errorf("got %d bytes, want %d", len(iv), gcm.NonceSize()))
	}
	if len(tag) != gcm.Overhead() {
		return nil, corrupt("auth tag length mismatch", fmt.Errorf("got %d bytes, want %d", len(tag), gcm.Overhead()))
	}

	sealed := append(append([]byte{}, data...), tag...)
	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, corrupt("authenticating ciphertext", err)
	}
	return plaintext, nil
}

func corrupt(step string, err error) error {
	return coreerr.Wrap(coreerr.ErrPersistenceCorrupt, "PERSISTENCE_CORRUPT", "", fmt.Errorf("%s: %w", step, err))
}

// SealJSON marshals v to JSON and seals it, the common case for every
// persisted store file.
func SealJSON(key [32]byte, v any) (*Envelope, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("crypto: marshaling payload: %w", err)
	}
	return Seal(key, payload)
}

// OpenJSON decrypts env and unmarshals the plaintext JSON into v.
func OpenJSON(key [32]byte, env *Envelope, v any) error {
	plaintext, err := Open(key, env)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plaintext, v); err != nil {
		return corrupt("unmarshaling payload", err)
	}
	return nil
}
