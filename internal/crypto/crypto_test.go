package crypto

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// testKey avoids paying the full PBKDF2 cost in every test.
var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestSealOpen_RoundTrip(t *testing.T) {
	plaintext := []byte("sk-live-abc123")
	nonce, ct, err := Seal(testKey, plaintext, []byte("openai-key"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	got, err := Open(testKey, nonce, ct, []byte("openai-key"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("Open = %q, want %q", got, plaintext)
	}
}

func TestOpen_WrongAssociatedData(t *testing.T) {
	nonce, ct, err := Seal(testKey, []byte("value"), []byte("name-a"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if _, err := Open(testKey, nonce, ct, []byte("name-b")); err == nil {
		t.Error("Open should fail when associated data differs")
	}
}

func TestOpen_TamperedCiphertext(t *testing.T) {
	nonce, ct, err := Seal(testKey, []byte("value"), nil)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	ct[0] ^= 0xff
	if _, err := Open(testKey, nonce, ct, nil); err == nil {
		t.Error("Open should fail on tampered ciphertext")
	}
}

func TestSeal_FreshNoncePerCall(t *testing.T) {
	n1, _, err := Seal(testKey, []byte("x"), nil)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	n2, _, err := Seal(testKey, []byte("x"), nil)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if bytes.Equal(n1, n2) {
		t.Error("nonces should differ between calls")
	}
}

func TestSealFile_RoundTrip(t *testing.T) {
	plaintext := []byte("# Agent Memory\n\ncontent here\n")
	env, err := SealFile(testKey, plaintext)
	if err != nil {
		t.Fatalf("SealFile failed: %v", err)
	}
	if !IsEncrypted(env) {
		t.Error("envelope should carry the magic prefix")
	}

	got, err := OpenFile(testKey, env)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("OpenFile = %q, want %q", got, plaintext)
	}
}

func TestIsEncrypted_Plaintext(t *testing.T) {
	if IsEncrypted([]byte("# just markdown\n")) {
		t.Error("plaintext should not look encrypted")
	}
	if IsEncrypted(nil) {
		t.Error("empty data should not look encrypted")
	}
}

func TestOpenFile_Truncated(t *testing.T) {
	if _, err := OpenFile(testKey, append([]byte{}, Magic...)); err == nil {
		t.Error("OpenFile should reject an envelope with no nonce")
	}
}

func TestLoadOrCreateSalt_Persisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".salt")

	first, err := LoadOrCreateSalt(path)
	if err != nil {
		t.Fatalf("LoadOrCreateSalt failed: %v", err)
	}
	second, err := LoadOrCreateSalt(path)
	if err != nil {
		t.Fatalf("LoadOrCreateSalt (reload) failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("salt should be stable across loads")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat salt: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("salt perms = %o, want 600", perm)
	}
}

func TestLoadOrCreateSalt_WrongLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".salt")
	if err := os.WriteFile(path, []byte("short"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOrCreateSalt(path); err == nil {
		t.Error("LoadOrCreateSalt should reject a malformed salt file")
	}
}

func TestDeriveKey_DeterministicPerSalt(t *testing.T) {
	if testing.Short() {
		t.Skip("PBKDF2 at full iteration count")
	}
	salt1 := bytes.Repeat([]byte{1}, 32)
	salt2 := bytes.Repeat([]byte{2}, 32)

	k1 := DeriveKey("passphrase", salt1)
	k2 := DeriveKey("passphrase", salt1)
	k3 := DeriveKey("passphrase", salt2)

	if !bytes.Equal(k1, k2) {
		t.Error("same passphrase and salt should derive the same key")
	}
	if bytes.Equal(k1, k3) {
		t.Error("different salts should derive different keys")
	}
	if len(k1) != 32 {
		t.Errorf("key length = %d, want 32", len(k1))
	}
}
