//go:build windows

package memory

import "os"

// openFileNoFollow falls back to a plain open on Windows, where symlink
// creation requires elevated privileges.
func openFileNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, flag, perm)
}
