// Package secrets stores small named secrets (API keys, credentials) as
// individually encrypted files. Each entry is sealed with AES-256-GCM under
// a key derived once from the master passphrase; the secret's name is bound
// as associated data so a ciphertext cannot be renamed into a different
// entry.
package secrets

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hpungsan/vaultd/internal/crypto"
)

const entryExt = ".enc"

// entry is the on-disk JSON shape of one encrypted secret.
type entry struct {
	Name       string `json:"name"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

// Store is a directory of encrypted secret entries.
type Store struct {
	dir string
	key []byte
}

// Open prepares the secrets directory and derives the store key. The
// derivation salt persists at dir/.salt; the key is held in memory for the
// process lifetime.
func Open(dir, passphrase string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create secrets dir: %w", err)
	}
	salt, err := crypto.LoadOrCreateSalt(filepath.Join(dir, ".salt"))
	if err != nil {
		return nil, err
	}
	return &Store{
		dir: dir,
		key: crypto.DeriveKey(passphrase, salt),
	}, nil
}

// sanitizeName folds a secret name to a safe filename: only alphanumerics
// and "-_." survive, lower-cased. Anything else (path separators included)
// is dropped.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), ".")
}

// entryPath returns the storage path for name, or "" when the name
// sanitizes to nothing.
func (s *Store) entryPath(name string) string {
	safe := sanitizeName(name)
	if safe == "" {
		return ""
	}
	return filepath.Join(s.dir, safe+entryExt)
}

// Store encrypts and writes a secret. An existing entry under the same
// (sanitized) name is replaced.
func (s *Store) Store(name, value string) error {
	path := s.entryPath(name)
	if path == "" {
		return fmt.Errorf("secret name %q sanitizes to nothing", name)
	}

	nonce, ciphertext, err := crypto.Seal(s.key, []byte(value), []byte(name))
	if err != nil {
		return err
	}
	payload, err := json.Marshal(entry{
		Name:       name,
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return fmt.Errorf("write secret: %w", err)
	}
	return nil
}

// Retrieve decrypts a secret. The second return is false both when the name
// is absent and when decryption or authentication fails; callers get no
// signal which it was.
func (s *Store) Retrieve(name string) (string, bool) {
	path := s.entryPath(name)
	if path == "" {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return "", false
	}
	nonce, err := base64.StdEncoding.DecodeString(e.Nonce)
	if err != nil {
		return "", false
	}
	ciphertext, err := base64.StdEncoding.DecodeString(e.Ciphertext)
	if err != nil {
		return "", false
	}

	plaintext, err := crypto.Open(s.key, nonce, ciphertext, []byte(name))
	if err != nil {
		return "", false
	}
	return string(plaintext), true
}

// Delete removes a secret. Returns false if no entry existed.
func (s *Store) Delete(name string) bool {
	path := s.entryPath(name)
	if path == "" {
		return false
	}
	if err := os.Remove(path); err != nil {
		return false
	}
	return true
}

// List returns stored secret names (sanitized form), sorted. Values are
// never included.
func (s *Store) List() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), entryExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), entryExt))
	}
	sort.Strings(names)
	return names
}
