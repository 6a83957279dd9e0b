// Package memory implements the vault's document store: named markdown
// files plus dated logs, whole-file encrypted when a passphrase is
// configured. Legacy plaintext files found at startup are migrated in place.
package memory

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hpungsan/vaultd/internal/crypto"
	"github.com/hpungsan/vaultd/internal/errors"
)

// WriteMode controls write semantics.
type WriteMode string

const (
	ModeOverwrite WriteMode = "overwrite"
	ModeAppend    WriteMode = "append"
)

// LogsDir is the namespace for dated daily logs.
const LogsDir = "logs"

// defaultDocuments seeds a fresh store.
var defaultDocuments = map[string]string{
	"MEMORY.md":    "# Agent Memory\n\n_No memories yet. This file grows as your agent works._\n",
	"SOUL.md":      "# Agent Soul\n\n## Identity\nI am an autonomous agent with a personal vault.\n\n## Principles\n- I check my vault before searching the open web\n- I contribute useful intelligence back to the network\n",
	"task_plan.md": "# Active Task Plan\n\n_No active task._\n",
	"notes.md":     "# Working Notes\n\n_Notes from the current research session._\n",
}

// Store is a directory of (optionally encrypted) memory documents.
type Store struct {
	root string
	key  []byte // nil when encryption is disabled
}

// Open prepares the store rooted at root. When passphrase is non-empty, an
// independent key is derived from a store-specific salt and every document
// is whole-file encrypted; the startup migration pass encrypts any plaintext
// file already present.
func Open(root, passphrase string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, LogsDir), 0o700); err != nil {
		return nil, fmt.Errorf("create memory root: %w", err)
	}

	s := &Store{root: root}
	if passphrase != "" {
		salt, err := crypto.LoadOrCreateSalt(filepath.Join(root, ".salt"))
		if err != nil {
			return nil, err
		}
		s.key = crypto.DeriveKey(passphrase, salt)
	}

	if err := s.seedDefaults(); err != nil {
		return nil, err
	}
	if _, err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Encrypted reports whether the store encrypts documents at rest.
func (s *Store) Encrypted() bool {
	return s.key != nil
}

// seedDefaults writes the core documents if absent.
func (s *Store) seedDefaults() error {
	for name, content := range defaultDocuments {
		path := filepath.Join(s.root, name)
		if _, err := os.Lstat(path); err == nil {
			continue
		}
		if err := s.writeFile(path, []byte(content)); err != nil {
			return err
		}
	}
	return nil
}

// resolve maps a document name to an absolute path inside the store root.
// Rejects absolute paths, ".." components, hidden components, and anything
// that resolves outside the root.
func (s *Store) resolve(name string) (string, error) {
	if name == "" {
		return "", errors.NewInvalidRequest("document path is required")
	}
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", errors.NewPermissionDenied("document path must be relative")
	}
	for _, part := range strings.Split(filepath.ToSlash(name), "/") {
		if part == ".." {
			return "", errors.NewPermissionDenied("document path must not contain directory traversal (..)")
		}
		if strings.HasPrefix(part, ".") {
			return "", errors.NewPermissionDenied("document names starting with '.' are reserved")
		}
	}

	abs := filepath.Join(s.root, filepath.FromSlash(name))
	abs = filepath.Clean(abs)
	rootAbs, err := filepath.Abs(s.root)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	absResolved, err := filepath.Abs(abs)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if absResolved != rootAbs && !strings.HasPrefix(absResolved, rootAbs+string(filepath.Separator)) {
		return "", errors.NewPermissionDenied("document path escapes the memory root")
	}
	return absResolved, nil
}

// decode turns raw stored bytes into document text, decrypting when the
// envelope magic is present. Plaintext bytes pass through untouched so
// mixed content keeps working mid-migration.
func (s *Store) decode(name string, data []byte) (string, error) {
	if !crypto.IsEncrypted(data) {
		return string(data), nil
	}
	if s.key == nil {
		return "", errors.NewInternal(fmt.Errorf("document %s is encrypted but the store has no passphrase", name))
	}
	plaintext, err := crypto.OpenFile(s.key, data)
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("decrypt %s: %w", name, err))
	}
	return string(plaintext), nil
}

// writeFile seals (when encrypting) and writes with owner-only permissions.
func (s *Store) writeFile(path string, plaintext []byte) error {
	data := plaintext
	if s.key != nil {
		sealed, err := crypto.SealFile(s.key, plaintext)
		if err != nil {
			return err
		}
		data = sealed
	}

	f, err := openFileNoFollow(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Tighten perms on files that predate the store's ownership.
	return os.Chmod(path, 0o600)
}

// Read returns a document's text.
func (s *Store) Read(name string) (string, error) {
	path, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return "", errors.NewNotFound("document", name)
		}
		return "", errors.NewInternal(err)
	}
	return s.decode(name, data)
}

// Write stores a document. Append mode reads the current content and joins
// the new block with a markdown separator and a UTC timestamp, then rewrites
// the whole file (re-encrypting when enabled).
func (s *Store) Write(name, content string, mode WriteMode) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if mode == "" {
		mode = ModeOverwrite
	}
	if mode != ModeOverwrite && mode != ModeAppend {
		return errors.NewInvalidRequest("mode must be one of: overwrite, append")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.NewInternal(err)
	}

	text := content
	if mode == ModeAppend {
		existing, err := s.Read(name)
		if err != nil && !errors.Is(err, errors.ErrNotFound) {
			return err
		}
		if existing != "" {
			text = existing + appendSeparator() + content + "\n"
		}
	}

	if err := s.writeFile(path, []byte(text)); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// appendSeparator is the markdown block placed between appended entries.
func appendSeparator() string {
	return fmt.Sprintf("\n---\n*%s*\n\n", time.Now().UTC().Format(time.RFC3339))
}

// TodayLog returns the dated path of today's log under the logs namespace.
func (s *Store) TodayLog() string {
	return logName(time.Now().UTC())
}

func logName(day time.Time) string {
	return filepath.ToSlash(filepath.Join(LogsDir, day.Format("2006-01-02")+".md"))
}

// AppendLog appends a block to today's log.
func (s *Store) AppendLog(content string) (string, error) {
	name := s.TodayLog()
	return name, s.Write(name, content, ModeAppend)
}

// LoadSessionContext returns the bootstrap documents for a new agent
// session: the core identity/memory/plan files plus the last two days of
// logs. Missing documents are simply omitted.
func (s *Store) LoadSessionContext() map[string]string {
	context := make(map[string]string)
	for _, name := range []string{"MEMORY.md", "SOUL.md", "task_plan.md"} {
		if content, err := s.Read(name); err == nil {
			context[name] = content
		}
	}
	now := time.Now().UTC()
	for delta := 0; delta <= 1; delta++ {
		name := logName(now.AddDate(0, 0, -delta))
		if content, err := s.Read(name); err == nil {
			context[name] = content
		}
	}
	return context
}

// FileInfo describes one stored document.
type FileInfo struct {
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	Title    string    `json:"title,omitempty"`
}

// ListFiles walks the store, skipping hidden entries, sorted by path. Title
// is the document's first markdown heading, best-effort.
func (s *Store) ListFiles() ([]FileInfo, error) {
	var files []FileInfo
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != s.root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		title := ""
		if content, err := s.Read(rel); err == nil {
			title = DocumentTitle([]byte(content))
		}
		files = append(files, FileInfo{
			Path:     rel,
			Size:     info.Size(),
			Modified: info.ModTime().UTC(),
			Title:    title,
		})
		return nil
	})
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Migrate encrypts, in place, every stored file that lacks the envelope
// magic. A no-op when encryption is disabled or everything is already
// encrypted, so running it repeatedly is safe.
func (s *Store) Migrate() (int, error) {
	if s.key == nil {
		return 0, nil
	}

	migrated := 0
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != s.root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if crypto.IsEncrypted(data) {
			return nil
		}
		if err := s.writeFile(path, data); err != nil {
			return err
		}
		migrated++
		return nil
	})
	if err != nil {
		return migrated, fmt.Errorf("memory migration: %w", err)
	}
	return migrated, nil
}
