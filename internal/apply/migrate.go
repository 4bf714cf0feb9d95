package apply

import (
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/Bennylavaa/RealmPortal/internal/domain"
	"github.com/Bennylavaa/RealmPortal/internal/paths"
)

// migrateDir moves the root-relative directory from to to. When to is absent
// it is a single rename, otherwise the contents are merged without ever
// overwriting a file. Conflicts are returned as root-relative destination
// paths whose source copy was left in place. A destination that is not a
// directory (a symlink included) is itself the conflict.
func migrateDir(root, from, to string) (merged bool, conflicts []string, err error) {
	src, err := paths.Resolve(root, from)
	if err != nil {
		return false, nil, &domain.IOError{Op: "rename", Path: from, Err: err}
	}
	dst, err := paths.Resolve(root, to)
	if err != nil {
		return false, nil, &domain.IOError{Op: "rename", Path: to, Err: err}
	}

	info, err := os.Lstat(src)
	if err != nil {
		return false, nil, &domain.IOError{Op: "rename", Path: from, Err: errors.WithStack(err)}
	}
	if !info.IsDir() {
		return false, nil, &domain.IOError{Op: "rename", Path: from, Err: errors.New("not a directory")}
	}

	di, err := os.Lstat(dst)
	switch {
	case os.IsNotExist(err), err == nil && os.SameFile(info, di):
		// On case-insensitive filesystems a case-only rename finds itself at dst
		if err := os.Rename(src, dst); err != nil {
			return false, nil, &domain.IOError{Op: "rename", Path: from, Err: errors.Wrapf(err, "rename to %s", to)}
		}
		return false, nil, nil
	case err != nil:
		return false, nil, &domain.IOError{Op: "stat", Path: to, Err: errors.WithStack(err)}
	case !di.IsDir():
		return true, []string{to}, nil
	}

	conflicts, err = mergeDir(root, from, to)
	return true, conflicts, err
}

// mergeDir moves every entry of from that is missing in to, recurses into
// directories present on both sides and leaves everything else where it is.
// from is removed once it is empty.
func mergeDir(root, from, to string) ([]string, error) {
	src, err := paths.Resolve(root, from)
	if err != nil {
		return nil, &domain.IOError{Op: "merge", Path: from, Err: err}
	}
	dst, err := paths.Resolve(root, to)
	if err != nil {
		return nil, &domain.IOError{Op: "merge", Path: to, Err: err}
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, &domain.IOError{Op: "merge", Path: from, Err: errors.WithStack(err)}
	}

	var conflicts []string
	for _, e := range entries {
		srcRel := path.Join(from, e.Name())
		dstRel := path.Join(to, e.Name())
		srcPath := filepath.Join(src, e.Name())
		dstPath := filepath.Join(dst, e.Name())

		di, err := os.Lstat(dstPath)
		switch {
		case os.IsNotExist(err):
			if err := os.Rename(srcPath, dstPath); err != nil {
				return conflicts, &domain.IOError{Op: "merge", Path: srcRel, Err: errors.Wrapf(err, "move to %s", dstRel)}
			}
		case err != nil:
			return conflicts, &domain.IOError{Op: "stat", Path: dstRel, Err: errors.WithStack(err)}
		case e.IsDir() && di.IsDir():
			sub, err := mergeDir(root, srcRel, dstRel)
			conflicts = append(conflicts, sub...)
			if err != nil {
				return conflicts, err
			}
		default:
			conflicts = append(conflicts, dstRel)
		}
	}

	left, err := os.ReadDir(src)
	if err != nil {
		return conflicts, &domain.IOError{Op: "merge", Path: from, Err: errors.WithStack(err)}
	}
	if len(left) == 0 {
		if err := os.Remove(src); err != nil {
			return conflicts, &domain.IOError{Op: "remove", Path: from, Err: errors.WithStack(err)}
		}
	}
	return conflicts, nil
}
