package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bennylavaa/RealmPortal/internal/domain"
	"github.com/Bennylavaa/RealmPortal/internal/testutil"
)

func TestCopyPath(t *testing.T) {
	at := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
	set := domain.NewMappingSet("WOW1", "WOW2", "Stormrage", "Area-52", "MyWarrior", "MyMage")

	got := CopyPath(filepath.Join("games", "WTF"), set, at)

	assert.Equal(t, filepath.Join("games", "WTF_migrated_Stormrage_to_Area-52_MyWarrior_to_MyMage_WOW1_to_WOW2_20240102_150405"), got)
}

func TestCopyDuplicatesTree(t *testing.T) {
	src := testutil.WTF(t, testutil.Tree{
		"Config.wtf":                               "SET realmName \"Stormrage\"",
		"Account/WOW1/Stormrage/MyWarrior/x.lua":   "x",
		"Account/WOW1/Stormrage/MyWarrior/Empty/":  "",
		"Account/WOW1/SavedVariables/Blizzard.lua": "b",
	})
	require.NoError(t, os.Chmod(filepath.Join(src, "Config.wtf"), 0600))
	dst := filepath.Join(filepath.Dir(src), "WTF_copy")

	require.NoError(t, Copy(src, dst))

	assert.Equal(t, testutil.Snapshot(t, src), testutil.Snapshot(t, dst))
	info, err := os.Stat(filepath.Join(dst, "Config.wtf"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestCopyRefusesExistingDestination(t *testing.T) {
	src := testutil.WTF(t, testutil.Tree{"Config.wtf": ""})
	dst := filepath.Join(filepath.Dir(src), "taken")
	require.NoError(t, os.Mkdir(dst, 0755))

	err := Copy(src, dst)

	var pathErr *domain.PathError
	require.True(t, errors.As(err, &pathErr))
	assert.True(t, strings.Contains(pathErr.Reason, "already exists"))
}

func TestCopyMissingSource(t *testing.T) {
	dir := t.TempDir()

	err := Copy(filepath.Join(dir, "WTF"), filepath.Join(dir, "out"))

	var pathErr *domain.PathError
	require.True(t, errors.As(err, &pathErr))
	assert.False(t, testutil.Exists(filepath.Join(dir, "out")))
}
