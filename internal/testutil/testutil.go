package testutil

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// Tree maps slash-separated relative paths to file contents.
// A path ending in "/" creates an empty directory.
type Tree map[string]string

// WTF creates a temporary WTF root populated with the given tree
func WTF(t *testing.T, tree Tree) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "WTF")
	if err := os.MkdirAll(root, 0755); err != nil {
		t.Fatalf("Failed to create WTF root: %v", err)
	}
	Populate(t, root, tree)
	return root
}

// Populate writes tree below root
func Populate(t *testing.T, root string, tree Tree) {
	t.Helper()
	for rel, content := range tree {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if strings.HasSuffix(rel, "/") {
			if err := os.MkdirAll(full, 0755); err != nil {
				t.Fatalf("Failed to create dir %s: %v", full, err)
			}
			continue
		}
		WriteFile(t, filepath.Dir(full), filepath.Base(full), content)
	}
}

// WriteFile writes content to a file, creating parent directories
func WriteFile(t *testing.T, dir, filename, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create dir %s: %v", dir, err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
	return path
}

// ReadFile reads content from a file
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(data)
}

// Snapshot returns every file and directory below root with its contents,
// keyed the same way as Tree. Symlinks are recorded as "-> target".
func Snapshot(t *testing.T, root string) Tree {
	t.Helper()
	out := Tree{}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, _ := filepath.Rel(root, p)
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			out[rel+"/"] = ""
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			target, err := os.Readlink(p)
			if err != nil {
				return err
			}
			out[rel] = "-> " + target
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		out[rel] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to snapshot %s: %v", root, err)
	}
	return out
}

// Hash returns a digest over the names and contents of everything below root
func Hash(t *testing.T, root string) string {
	t.Helper()
	snap := Snapshot(t, root)
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(snap[k]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Symlink creates a symbolic link at root/rel pointing to target
func Symlink(t *testing.T, root, rel, target string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatalf("Failed to create dir for %s: %v", full, err)
	}
	if err := os.Symlink(target, full); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
}

// Exists reports whether path exists
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
