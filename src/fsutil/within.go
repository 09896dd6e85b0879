package fsutil

import (
	"path/filepath"
	"strings"
)

// IsWithin reports whether path, after cleaning, lies inside one of roots.
// Empty roots are ignored, so with no usable root every path is rejected.
// Symlinks are not resolved.
func IsWithin(path string, roots ...string) bool {
	target, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, root := range roots {
		if root == "" {
			continue
		}
		base, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(base, target)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
