// Package paths holds helpers for the slash-separated, root-relative paths
// used by migration plans.
package paths

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// SplitPath splits a path into segments
func SplitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// JoinPath joins path segments
func JoinPath(segments ...string) string {
	return strings.Join(segments, "/")
}

// IsUnder reports whether p equals dir or lies below it
func IsUnder(p, dir string) bool {
	return p == dir || strings.HasPrefix(p, dir+"/")
}

// Rebase moves p from below oldDir to below newDir. Paths outside oldDir are
// returned unchanged.
func Rebase(p, oldDir, newDir string) string {
	if p == oldDir {
		return newDir
	}
	if strings.HasPrefix(p, oldDir+"/") {
		return newDir + p[len(oldDir):]
	}
	return p
}

// Resolve turns a root-relative path into an OS path, refusing anything that
// would land outside root.
func Resolve(root, rel string) (string, error) {
	clean := path.Clean("/" + rel)
	if clean != "/"+strings.TrimPrefix(rel, "/") || strings.Contains(rel, "\\") {
		return "", fmt.Errorf("path %q is not a clean relative path", rel)
	}
	return filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// HasExtension reports whether name ends with one of exts, ignoring case
func HasExtension(name string, exts []string) bool {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
