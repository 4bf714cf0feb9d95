// Package workspace prepares the tree a migration runs against. In copy mode
// the source is duplicated next to itself and only the duplicate is changed.
package workspace

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/Bennylavaa/RealmPortal/internal/domain"
	"github.com/Bennylavaa/RealmPortal/internal/paths"
)

// CopyPath returns where a migration copy of root for set would be created
func CopyPath(root string, set domain.MappingSet, at time.Time) string {
	var renames []paths.Rename
	for _, p := range set.Pairs() {
		renames = append(renames, paths.Rename{Old: p.Old, New: p.New})
	}
	return paths.CopyPath(root, renames, at)
}

// Copy duplicates the tree at src into dst, which must not exist yet.
// Regular files keep their permission bits and symlinks are copied as links.
func Copy(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return &domain.PathError{Path: dst, Reason: "migration copy already exists"}
	} else if !os.IsNotExist(err) {
		return &domain.PathError{Path: dst, Reason: "cannot access migration copy", Err: err}
	}

	info, err := os.Stat(src)
	if err != nil {
		return &domain.PathError{Path: src, Reason: "cannot access source root", Err: err}
	}
	if !info.IsDir() {
		return &domain.PathError{Path: src, Reason: "source root is not a directory"}
	}

	return filepath.WalkDir(src, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return &domain.IOError{Op: "copy", Path: p, Err: errors.WithStack(walkErr)}
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return errors.WithStack(err)
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			fi, err := d.Info()
			if err != nil {
				return &domain.IOError{Op: "copy", Path: p, Err: errors.WithStack(err)}
			}
			if err := os.MkdirAll(target, fi.Mode().Perm()|0700); err != nil {
				return &domain.IOError{Op: "mkdir", Path: target, Err: errors.WithStack(err)}
			}
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(p)
			if err != nil {
				return &domain.IOError{Op: "readlink", Path: p, Err: errors.WithStack(err)}
			}
			if err := os.Symlink(link, target); err != nil {
				return &domain.IOError{Op: "symlink", Path: target, Err: errors.WithStack(err)}
			}
		case d.Type().IsRegular():
			if err := copyFile(p, target); err != nil {
				return &domain.IOError{Op: "copy", Path: p, Err: err}
			}
		}
		return nil
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.WithStack(err)
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return errors.WithStack(err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fi.Mode().Perm())
	if err != nil {
		return errors.WithStack(err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.WithStack(err)
	}
	if err := out.Close(); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.Chtimes(dst, fi.ModTime(), fi.ModTime()))
}
