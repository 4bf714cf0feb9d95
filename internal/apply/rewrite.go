package apply

import (
	"bytes"
	"os"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/Bennylavaa/RealmPortal/internal/domain"
	"github.com/Bennylavaa/RealmPortal/internal/match"
	"github.com/Bennylavaa/RealmPortal/internal/paths"
)

// errUnreadable marks content that is not UTF-8 text
var errUnreadable = errors.New("not UTF-8 text")

type rewriteResult struct {
	count int
	diff  string
}

// rewriteFile applies r to the root-relative file rel. In preview mode nothing
// is written and a unified diff of the change is returned instead.
func rewriteFile(root, rel string, r *match.Replacer, preview bool) (rewriteResult, error) {
	full, err := paths.Resolve(root, rel)
	if err != nil {
		return rewriteResult{}, &domain.IOError{Op: "read", Path: rel, Err: err}
	}

	info, err := os.Lstat(full)
	if err != nil {
		return rewriteResult{}, &domain.IOError{Op: "read", Path: rel, Err: errors.WithStack(err)}
	}
	if !info.Mode().IsRegular() {
		return rewriteResult{}, &domain.IOError{Op: "read", Path: rel, Err: errors.New("not a regular file")}
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return rewriteResult{}, &domain.IOError{Op: "read", Path: rel, Err: errors.WithStack(err)}
	}
	if !isText(data) {
		return rewriteResult{}, errUnreadable
	}

	text := string(data)
	out, n := r.Replace(text)
	if n == 0 {
		return rewriteResult{}, nil
	}

	res := rewriteResult{count: n}
	if preview {
		res.diff = unifiedDiff(rel, text, out)
		return res, nil
	}

	if err := writeFile(full, []byte(out), info.Mode().Perm()); err != nil {
		return rewriteResult{}, &domain.IOError{Op: "write", Path: rel, Err: err}
	}
	return res, nil
}

func isText(data []byte) bool {
	return bytes.IndexByte(data, 0) < 0 && utf8.Valid(data)
}

// writeFile replaces the file's content and keeps its permission bits
func writeFile(full string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return errors.WithStack(err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.WithStack(err)
	}
	if err := f.Close(); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.Chmod(full, perm))
}

func unifiedDiff(rel, before, after string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/" + rel,
		ToFile:   "b/" + rel,
		Context:  1,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}
