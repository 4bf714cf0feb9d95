package plan

import (
	"path"
	"sort"
	"strings"

	"github.com/Bennylavaa/RealmPortal/internal/paths"
	"github.com/Bennylavaa/RealmPortal/internal/scan"
)

// tree is an in-memory model of the source tree. The planner replays every
// rename on it so later actions see the layout they will actually run against.
type tree struct {
	nodes map[string]*node
}

type node struct {
	dir bool
	// special marks symlinks and other non-regular entries. They block merges
	// like files do but are never rewritten.
	special bool
	origin  string
}

func newTree(res *scan.Result) *tree {
	t := &tree{nodes: make(map[string]*node, len(res.Dirs)+len(res.Files)+len(res.Others))}
	for _, d := range res.Dirs {
		t.nodes[d] = &node{dir: true, origin: d}
	}
	for _, f := range res.Files {
		t.nodes[f] = &node{origin: f}
	}
	for _, o := range res.Others {
		t.nodes[o] = &node{special: true, origin: o}
	}
	return t
}

func (t *tree) exists(p string) bool {
	_, ok := t.nodes[p]
	return ok
}

func (t *tree) isDir(p string) bool {
	n, ok := t.nodes[p]
	return ok && n.dir
}

func (t *tree) origin(p string) string {
	if n, ok := t.nodes[p]; ok {
		return n.origin
	}
	return ""
}

// children returns the sorted names directly inside dir
func (t *tree) children(dir string) []string {
	var names []string
	for p := range t.nodes {
		if path.Dir(p) == dir {
			names = append(names, path.Base(p))
		}
	}
	sort.Strings(names)
	return names
}

// subdirs returns the sorted directory names directly inside dir
func (t *tree) subdirs(dir string) []string {
	var names []string
	for _, name := range t.children(dir) {
		if t.isDir(path.Join(dir, name)) {
			names = append(names, name)
		}
	}
	return names
}

// files returns every regular file at or below dir, sorted
func (t *tree) files(dir string) []string {
	var out []string
	for p, n := range t.nodes {
		if !n.dir && !n.special && strings.HasPrefix(p, dir+"/") {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// conflict is a source entry left in place because its destination exists
type conflict struct {
	src, dst string
}

// rename replays a directory rename, merging when the target already exists.
// It mirrors the on-disk merge rules. A target that exists but is not a
// directory conflicts as a whole and the source stays put.
func (t *tree) rename(from, to string) (merge bool, conflicts []conflict) {
	switch {
	case !t.exists(to):
		t.move(from, to)
		return false, nil
	case !t.isDir(to):
		return true, []conflict{{src: from, dst: to}}
	}
	return true, t.merge(from, to)
}

func (t *tree) move(from, to string) {
	moved := map[string]*node{}
	for p, n := range t.nodes {
		if paths.IsUnder(p, from) {
			moved[paths.Rebase(p, from, to)] = n
			delete(t.nodes, p)
		}
	}
	for p, n := range moved {
		t.nodes[p] = n
	}
}

func (t *tree) merge(from, to string) []conflict {
	var conflicts []conflict
	for _, name := range t.children(from) {
		src := path.Join(from, name)
		dst := path.Join(to, name)
		switch {
		case !t.exists(dst):
			t.move(src, dst)
		case t.isDir(src) && t.isDir(dst):
			conflicts = append(conflicts, t.merge(src, dst)...)
		default:
			conflicts = append(conflicts, conflict{src: src, dst: dst})
		}
	}
	if len(t.children(from)) == 0 {
		delete(t.nodes, from)
	}
	return conflicts
}
