// Package keystore owns the single symmetric encryption key. The key is
// generated on first run, persisted to a key file, and read back verbatim on
// every later start. There is no rotation and no recovery path: losing the
// file makes every stored document unrecoverable.
package keystore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/avolkov/docvault/internal/common"
	"github.com/avolkov/docvault/internal/cryptox"
)

// Keystore loads or creates the process-wide encryption key.
// LoadOrCreate is memoized; concurrent first calls are serialized so two
// different keys can never be generated.
type Keystore struct {
	path string

	once sync.Once
	key  []byte
	err  error
}

// New constructs a Keystore for the given key file path.
func New(path string) *Keystore {
	return &Keystore{path: path}
}

// LoadOrCreate returns the persisted key, generating and persisting a new
// one if the file does not exist yet. A readable file of the wrong length is
// treated as corrupt and returned as a fatal error; the caller must not
// start serving in that case.
func (k *Keystore) LoadOrCreate() ([]byte, error) {
	k.once.Do(func() {
		k.key, k.err = k.loadOrCreate()
	})
	return k.key, k.err
}

func (k *Keystore) loadOrCreate() ([]byte, error) {
	key, err := os.ReadFile(k.path)
	if err == nil {
		if len(key) != cryptox.KeySize {
			return nil, fmt.Errorf("key file %s is corrupt: %d bytes, want %d", k.path, len(key), cryptox.KeySize)
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading key file %s: %w", k.path, err)
	}

	key = common.GenerateRandByteArray(cryptox.KeySize)

	if dir := filepath.Dir(k.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(k.path, key, 0o600); err != nil {
		return nil, fmt.Errorf("writing key file %s: %w", k.path, err)
	}

	return key, nil
}
