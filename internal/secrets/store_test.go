package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), "test-passphrase")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return s
}

func TestStoreRetrieve_RoundTrip(t *testing.T) {
	s := openStore(t)

	if err := s.Store("openai-key", "sk-live-abc123"); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	got, ok := s.Retrieve("openai-key")
	if !ok {
		t.Fatal("Retrieve should find the secret")
	}
	if got != "sk-live-abc123" {
		t.Errorf("Retrieve = %q, want original value", got)
	}
}

func TestRetrieve_Missing(t *testing.T) {
	s := openStore(t)
	if _, ok := s.Retrieve("never-stored"); ok {
		t.Error("Retrieve should report absent secret as not found")
	}
}

func TestRetrieve_NameBinding(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, "pw")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Store("alpha", "value-a"); err != nil {
		t.Fatal(err)
	}

	// Copy alpha's ciphertext over beta's slot: the name is bound as
	// associated data, so the renamed entry must fail closed.
	data, err := os.ReadFile(filepath.Join(dir, "alpha.enc"))
	if err != nil {
		t.Fatal(err)
	}
	swapped := strings.ReplaceAll(string(data), `"name":"alpha"`, `"name":"beta"`)
	if err := os.WriteFile(filepath.Join(dir, "beta.enc"), []byte(swapped), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, ok := s.Retrieve("beta"); ok {
		t.Error("secret decrypted under a different name binding")
	}
}

func TestStore_CiphertextOnDisk(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, "pw")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Store("db-password", "correct horse battery staple"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "db-password.enc"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "correct horse") {
		t.Error("plaintext value leaked to disk")
	}

	info, err := os.Stat(filepath.Join(dir, "db-password.enc"))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("entry perms = %o, want 600", perm)
	}
}

func TestStore_WrongPassphraseFailsClosed(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, "right")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Store("k", "v"); err != nil {
		t.Fatal(err)
	}

	other, err := Open(dir, "wrong")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := other.Retrieve("k"); ok {
		t.Error("wrong passphrase should not decrypt")
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"OpenAI-Key", "openai-key"},
		{"../../etc/passwd", "etcpasswd"},
		{"a b c", "abc"},
		{"db_pass.v2", "db_pass.v2"},
		{"///", ""},
		{"..", ""},
	}
	for _, tt := range tests {
		if got := sanitizeName(tt.in); got != tt.want {
			t.Errorf("sanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStore_PathInjectionName(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, "pw")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Store("../escape", "v"); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	// The entry lands inside the store, never beside it.
	if _, err := os.Stat(filepath.Join(dir, "escape.enc")); err != nil {
		t.Errorf("sanitized entry missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "escape.enc")); err == nil {
		t.Error("entry escaped the store directory")
	}
}

func TestDeleteAndList(t *testing.T) {
	s := openStore(t)
	for _, name := range []string{"beta", "alpha"} {
		if err := s.Store(name, "v"); err != nil {
			t.Fatal(err)
		}
	}

	names := s.List()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("List = %v, want sorted [alpha beta]", names)
	}

	if !s.Delete("alpha") {
		t.Error("Delete should report removal")
	}
	if s.Delete("alpha") {
		t.Error("second Delete should report nothing removed")
	}
	if names := s.List(); len(names) != 1 || names[0] != "beta" {
		t.Errorf("List after delete = %v, want [beta]", names)
	}
}
