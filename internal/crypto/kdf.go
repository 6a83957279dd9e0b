// Package crypto provides the two encryption primitives the vault is built
// on: PBKDF2 key derivation from a master passphrase, and AES-256-GCM
// authenticated encryption. The secret store and the memory store each derive
// an independent key from their own persisted salt.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"os"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Iterations is the PBKDF2 round count. OWASP recommends at least
	// 600,000 for PBKDF2-HMAC-SHA256.
	Iterations = 600_000

	keyLen  = 32 // 256 bits
	saltLen = 32
)

// DeriveKey stretches a passphrase into a 256-bit key.
func DeriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, Iterations, keyLen, sha256.New)
}

// GenerateSalt returns saltLen bytes from the system CSPRNG.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// LoadOrCreateSalt reads the salt file at path, creating it with fresh random
// bytes and 0600 permissions on first use. Each encryption domain keeps its
// own salt file so the derived keys are independent.
func LoadOrCreateSalt(path string) ([]byte, error) {
	salt, err := os.ReadFile(path)
	if err == nil {
		if len(salt) != saltLen {
			return nil, fmt.Errorf("salt file %s: got %d bytes, want %d", path, len(salt), saltLen)
		}
		return salt, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read salt: %w", err)
	}

	salt, err = GenerateSalt()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, salt, 0o600); err != nil {
		return nil, fmt.Errorf("write salt: %w", err)
	}
	return salt, nil
}
