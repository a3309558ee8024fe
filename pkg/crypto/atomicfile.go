package crypto

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteEnvelopeAtomic writes env as JSON to path via a temp-file-then-rename
// so a crash mid-write never leaves a half-written store file (spec §4.2's
// "write-then-rename for atomic replacement" contract). The temp file is
// fsynced before rename, and the directory is fsynced after, so the rename
// itself is durable.
func WriteEnvelopeAtomic(path string, env *Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("crypto: marshaling envelope: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("crypto: creating store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("crypto: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("crypto: writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("crypto: syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("crypto: closing temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, 0o600); err != nil {
		return fmt.Errorf("crypto: setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("crypto: renaming into place: %w", err)
	}

	if dirFile, err := os.Open(dir); err == nil {
		_ = dirFile.Sync()
		_ = dirFile.Close()
	}
	return nil
}

// ReadEnvelope loads and JSON-decodes the envelope at path. A missing file
// is reported via the returned bool so callers can distinguish "not yet
// created" (fresh store) from "present but corrupt" (fatal per §4.2).
func ReadEnvelope(path string) (env *Envelope, exists bool, err error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, true, fmt.Errorf("crypto: reading %s: %w", path, err)
	}
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, true, corrupt("parsing envelope file "+path, err)
	}
	return &e, true, nil
}
