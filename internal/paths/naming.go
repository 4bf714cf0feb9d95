package paths

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// CopyTimestampLayout is the timestamp suffix of migration copies
const CopyTimestampLayout = "20060102_150405"

// CopyPrefix starts the directory name of every migration copy
const CopyPrefix = "WTF_migrated_"

// Rename is one old->new pair used to name a migration copy
type Rename struct {
	Old, New string
}

// SanitizeSegment replaces characters that are unsafe in a directory name on
// common filesystems.
func SanitizeSegment(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r < 0x20, strings.ContainsRune(`<>:"/\|?*`, r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), " .")
}

// CopyName builds the directory name for a migration copy, e.g.
// WTF_migrated_Stormrage_to_Area-52_20240102_150405.
func CopyName(renames []Rename, at time.Time) string {
	parts := make([]string, 0, len(renames)+1)
	for _, r := range renames {
		parts = append(parts, fmt.Sprintf("%s_to_%s", SanitizeSegment(r.Old), SanitizeSegment(r.New)))
	}
	parts = append(parts, at.Format(CopyTimestampLayout))
	return CopyPrefix + strings.Join(parts, "_")
}

// CopyPath places the migration copy next to the source root
func CopyPath(root string, renames []Rename, at time.Time) string {
	return filepath.Join(filepath.Dir(filepath.Clean(root)), CopyName(renames, at))
}
