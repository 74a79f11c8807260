// Package shared provides common utility functions used across multiple
// packages in the databinding-compat codebase.
package shared

import (
	"encoding/hex"
	"path"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
)

// CanonicalPath returns the absolute, symlink-resolved form of value. Paths
// that do not exist yet fall back to the cleaned absolute path so outputs
// can be compared before they are created.
func CanonicalPath(value string) string {
	abs, err := filepath.Abs(value)
	if err != nil {
		return filepath.Clean(value)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs
	}
	return resolved
}

// SamePath reports whether two paths name the same location after
// canonicalization.
func SamePath(a, b string) bool {
	return CanonicalPath(a) == CanonicalPath(b)
}

// Digest returns the hex-encoded BLAKE3-256 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// IsSafeEntryName reports whether an archive entry name stays inside the
// archive root once extracted: relative, slash separated, no ".." segment.
func IsSafeEntryName(name string) bool {
	if name == "" || strings.Contains(name, "\\") || strings.HasPrefix(name, "/") {
		return false
	}
	if len(name) >= 2 && name[1] == ':' {
		return false
	}
	for _, segment := range strings.Split(strings.TrimSuffix(name, "/"), "/") {
		if segment == ".." {
			return false
		}
	}
	return path.Clean(name) != ".."
}
