package crypto

import (
	"bytes"
	"fmt"
)

// Magic is the fixed prefix of an encrypted file envelope. The trailing "1"
// is a format version: if a key-rotation scheme lands later, a new version
// byte discriminates old and new envelopes without re-reading salts.
var Magic = []byte("VAULTENC1\n")

// IsEncrypted reports whether data carries the envelope magic. Files without
// it are treated as legacy plaintext by the memory store's migration pass.
func IsEncrypted(data []byte) bool {
	return bytes.HasPrefix(data, Magic)
}

// SealFile wraps plaintext into a whole-file envelope:
//
//	magic || nonce (12 bytes) || GCM ciphertext
func SealFile(key, plaintext []byte) ([]byte, error) {
	nonce, ciphertext, err := Seal(key, plaintext, nil)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(Magic)+NonceLen+len(ciphertext))
	out = append(out, Magic...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

// OpenFile unwraps a whole-file envelope produced by SealFile.
func OpenFile(key, data []byte) ([]byte, error) {
	if !IsEncrypted(data) {
		return nil, fmt.Errorf("missing envelope magic")
	}
	body := data[len(Magic):]
	if len(body) < NonceLen {
		return nil, fmt.Errorf("envelope truncated: %d bytes", len(body))
	}
	return Open(key, body[:NonceLen], body[NonceLen:], nil)
}
