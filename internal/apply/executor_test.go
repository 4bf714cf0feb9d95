package apply

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bennylavaa/RealmPortal/internal/domain"
	"github.com/Bennylavaa/RealmPortal/internal/plan"
	"github.com/Bennylavaa/RealmPortal/internal/report"
	"github.com/Bennylavaa/RealmPortal/internal/scan"
	"github.com/Bennylavaa/RealmPortal/internal/testutil"
)

func realm(oldName, newName string) domain.MappingSet {
	return domain.NewMappingSet("", "", oldName, newName, "", "")
}

func migrate(t *testing.T, root string, set domain.MappingSet, dryRun bool) *report.Report {
	t.Helper()
	res, err := scan.Scan(root)
	require.NoError(t, err)
	p, err := plan.Build(res, set, plan.Options{})
	require.NoError(t, err)

	rep := report.New(root, report.ModeInPlace, dryRun, set)
	require.NoError(t, New(root, dryRun, nil).Run(p, rep))
	rep.Finalize()
	return rep
}

func record(t *testing.T, rep *report.Report, p string) report.Record {
	t.Helper()
	for _, rec := range rep.Records() {
		if rec.Path == p {
			return rec
		}
	}
	t.Fatalf("no record for %s", p)
	return report.Record{}
}

var warriorTree = testutil.Tree{
	"Config.wtf":                                                "SET realmName \"Stormrage\"\nSET portal \"EU\"\n",
	"Account/WOW1/Stormrage/MyWarrior/SavedVariables/Addon.lua": "Addon_DB = {\r\n\t[\"MyWarrior - Stormrage\"] = true,\r\n\t[\"StormrageEU\"] = 1,\r\n}\r\n",
	"Account/WOW1/Stormrage/MyWarrior/AddOns.txt":               "Details: enabled\n",
	"Account/WOW1/SavedVariables/Global.lua":                    "realm = \"Stormrage\"\n",
}

func TestRunRenamesRealmAndRewritesReferences(t *testing.T) {
	root := testutil.WTF(t, warriorTree)

	rep := migrate(t, root, realm("Stormrage", "Area-52"), false)

	assert.False(t, testutil.Exists(filepath.Join(root, "Account", "WOW1", "Stormrage")))
	assert.Equal(t,
		"Addon_DB = {\r\n\t[\"MyWarrior - Area-52\"] = true,\r\n\t[\"StormrageEU\"] = 1,\r\n}\r\n",
		testutil.ReadFile(t, filepath.Join(root, "Account", "WOW1", "Area-52", "MyWarrior", "SavedVariables", "Addon.lua")))
	assert.Equal(t, "SET realmName \"Area-52\"\nSET portal \"EU\"\n", testutil.ReadFile(t, filepath.Join(root, "Config.wtf")))
	assert.Equal(t, "realm = \"Area-52\"\n", testutil.ReadFile(t, filepath.Join(root, "Account", "WOW1", "SavedVariables", "Global.lua")))
	assert.Equal(t, "Details: enabled\n", testutil.ReadFile(t, filepath.Join(root, "Account", "WOW1", "Area-52", "MyWarrior", "AddOns.txt")))

	assert.Equal(t, report.OutcomeApplied, record(t, rep, "Config.wtf").Outcome)
	rename := record(t, rep, "Account/WOW1/Stormrage")
	assert.Equal(t, report.OutcomeApplied, rename.Outcome)
	assert.Equal(t, "Account/WOW1/Area-52", rename.Target)
	addon := record(t, rep, "Account/WOW1/Area-52/MyWarrior/SavedVariables/Addon.lua")
	assert.Equal(t, report.OutcomeApplied, addon.Outcome)
	assert.Equal(t, 1, addon.Count)
	assert.Equal(t, report.OutcomeSkippedNoOp, record(t, rep, "Account/WOW1/Area-52/MyWarrior/AddOns.txt").Outcome)

	assert.Equal(t, report.ExitOK, rep.ExitStatus())
	assert.Zero(t, rep.Counters().Failed)
}

func TestRunMergeKeepsDestinationOnConflict(t *testing.T) {
	root := testutil.WTF(t, testutil.Tree{
		"Account/WOW1/Stormrage/A/file.txt":  "source Stormrage",
		"Account/WOW1/Stormrage/A/only.lua":  "source Stormrage",
		"Account/WOW1/Area-52/A/file.txt":    "destination Stormrage",
		"Account/WOW1/Area-52/B/layout.txt":  "destination Stormrage",
		"Account/WOW1/Stormrage/C/moved.xml": "<realm>Stormrage</realm>",
	})
	acct := filepath.Join(root, "Account", "WOW1")

	rep := migrate(t, root, realm("Stormrage", "Area-52"), false)

	rename := record(t, rep, "Account/WOW1/Stormrage")
	assert.Equal(t, report.OutcomeMerged, rename.Outcome)
	assert.Equal(t, []string{"Account/WOW1/Area-52/A/file.txt"}, rename.Conflicts)

	assert.Equal(t, "destination Stormrage", testutil.ReadFile(t, filepath.Join(acct, "Area-52", "A", "file.txt")))
	assert.Equal(t, "source Stormrage", testutil.ReadFile(t, filepath.Join(acct, "Stormrage", "A", "file.txt")))
	assert.Equal(t, "source Area-52", testutil.ReadFile(t, filepath.Join(acct, "Area-52", "A", "only.lua")))
	assert.Equal(t, "destination Area-52", testutil.ReadFile(t, filepath.Join(acct, "Area-52", "B", "layout.txt")))
	assert.Equal(t, "<realm>Area-52</realm>", testutil.ReadFile(t, filepath.Join(acct, "Area-52", "C", "moved.xml")))
	assert.False(t, testutil.Exists(filepath.Join(acct, "Stormrage", "A", "only.lua")))
	assert.False(t, testutil.Exists(filepath.Join(acct, "Stormrage", "C")))

	conflict := record(t, rep, "Account/WOW1/Area-52/A/file.txt")
	assert.Equal(t, report.OutcomeSkippedConflict, conflict.Outcome)
	assert.Equal(t, 1, rep.Counters().Conflicts)
	assert.Equal(t, report.ExitOK, rep.ExitStatus())
}

func TestDryRunLeavesTreeUntouched(t *testing.T) {
	root := testutil.WTF(t, warriorTree)
	before := testutil.Hash(t, root)

	rep := migrate(t, root, realm("Stormrage", "Area-52"), true)

	assert.Equal(t, before, testutil.Hash(t, root))
	addon := record(t, rep, "Account/WOW1/Area-52/MyWarrior/SavedVariables/Addon.lua")
	assert.Equal(t, report.OutcomePreview, addon.Outcome)
	assert.Equal(t, 1, addon.Count)
	assert.Contains(t, addon.Diff, "-\t[\"MyWarrior - Stormrage\"] = true,")
	assert.Contains(t, addon.Diff, "+\t[\"MyWarrior - Area-52\"] = true,")
	assert.Equal(t, "rename", record(t, rep, "Account/WOW1/Stormrage").Detail)
}

func TestDryRunReportMatchesLiveRun(t *testing.T) {
	tree := testutil.Tree{
		"Config.wtf":                                    "SET realmName \"Stormrage\"\n",
		"Account/WOW1/Stormrage/MyWarrior/Layout.lua":   "Stormrage MyWarrior",
		"Account/WOW1/Stormrage/MyWarrior/AddOns.txt":   "nothing here",
		"Account/WOW1/Stormrage/MyMage/Layout.lua":      "MyMage of Stormrage",
		"Account/WOW1/Area-52/MyWarrior/Layout.lua":     "kept",
		"Account/WOW2/Stormrage/Alt/Bindings.wtf":       "bind Stormrage",
		"Account/WOW2/Stormrage/Alt/SavedVariables/a.x": "ignored extension",
	}
	set := domain.NewMappingSet("", "", "Stormrage", "Area-52", "MyWarrior", "MyPaladin")

	dry := migrate(t, testutil.WTF(t, tree), set, true)
	live := migrate(t, testutil.WTF(t, tree), set, false)

	require.NotEmpty(t, recordKeys(live))
	assert.Equal(t, recordKeys(live), recordKeys(dry))
	assert.Equal(t, live.Counters().Applied+live.Counters().Merged, dry.Counters().Previewed)
	assert.Equal(t, live.Counters().Conflicts, dry.Counters().Conflicts)
}

type recordKey struct {
	Action, Path, Target string
	Count                int
	Conflicts            []string
}

func recordKeys(rep *report.Report) []recordKey {
	var out []recordKey
	for _, rec := range rep.Records() {
		out = append(out, recordKey{rec.Action, rec.Path, rec.Target, rec.Count, rec.Conflicts})
	}
	return out
}

func TestDryRunMatchesLiveWithCollidingSymlinks(t *testing.T) {
	build := func() string {
		root := testutil.WTF(t, testutil.Tree{
			"Account/WOW1/Stormrage/A/x.lua": "Stormrage",
			"Account/WOW1/Area-52/A/":        "",
		})
		testutil.Symlink(t, root, "Account/WOW1/Stormrage/A/link.lua", "x.lua")
		testutil.Symlink(t, root, "Account/WOW1/Area-52/A/link.lua", "elsewhere.lua")
		return root
	}

	dryRoot := build()
	before := testutil.Hash(t, dryRoot)
	dry := migrate(t, dryRoot, realm("Stormrage", "Area-52"), true)
	assert.Equal(t, before, testutil.Hash(t, dryRoot))

	liveRoot := build()
	live := migrate(t, liveRoot, realm("Stormrage", "Area-52"), false)

	rename := record(t, live, "Account/WOW1/Stormrage")
	assert.Equal(t, report.OutcomeMerged, rename.Outcome)
	assert.Equal(t, []string{"Account/WOW1/Area-52/A/link.lua"}, rename.Conflicts)
	assert.Equal(t, recordKeys(live), recordKeys(dry))
	assert.Equal(t, live.Counters().Conflicts, dry.Counters().Conflicts)

	snap := testutil.Snapshot(t, liveRoot)
	assert.Equal(t, "-> elsewhere.lua", snap["Account/WOW1/Area-52/A/link.lua"])
	assert.Equal(t, "-> x.lua", snap["Account/WOW1/Stormrage/A/link.lua"])
	assert.Equal(t, "Area-52", snap["Account/WOW1/Area-52/A/x.lua"])
}

func TestMergeOntoSymlinkLeavesSourceInPlace(t *testing.T) {
	build := func() string {
		root := testutil.WTF(t, testutil.Tree{
			"Account/WOW1/Stormrage/MyWarrior/Layout.lua": "Stormrage",
			"Account/WOW2/Area-52/":                       "",
		})
		testutil.Symlink(t, root, "Account/WOW1/Area-52", "../WOW2/Area-52")
		return root
	}

	liveRoot := build()
	before := testutil.Hash(t, liveRoot)
	live := migrate(t, liveRoot, domain.NewMappingSet("WOW1", "", "Stormrage", "Area-52", "", ""), false)
	dry := migrate(t, build(), domain.NewMappingSet("WOW1", "", "Stormrage", "Area-52", "", ""), true)

	rename := record(t, live, "Account/WOW1/Stormrage")
	assert.Equal(t, report.OutcomeMerged, rename.Outcome)
	assert.Equal(t, []string{"Account/WOW1/Area-52"}, rename.Conflicts)
	assert.Equal(t, before, testutil.Hash(t, liveRoot))
	assert.Equal(t, recordKeys(live), recordKeys(dry))
}

func TestRoundTripRestoresTree(t *testing.T) {
	root := testutil.WTF(t, warriorTree)
	before := testutil.Snapshot(t, root)

	forward := migrate(t, root, realm("Stormrage", "Area-52"), false)
	require.Zero(t, forward.Counters().Failed)
	back := migrate(t, root, realm("Area-52", "Stormrage"), false)
	require.Zero(t, back.Counters().Failed)

	assert.Equal(t, before, testutil.Snapshot(t, root))
}

func TestRunSkipsUnreadableFiles(t *testing.T) {
	root := testutil.WTF(t, testutil.Tree{
		"Account/WOW1/Stormrage/C/blob.lua":   "Stormrage\x00\x01",
		"Account/WOW1/Stormrage/C/latin1.txt": "caf\xe9 Stormrage",
	})

	rep := migrate(t, root, realm("Stormrage", "Area-52"), false)

	for _, name := range []string{"blob.lua", "latin1.txt"} {
		rec := record(t, rep, "Account/WOW1/Area-52/C/"+name)
		assert.Equal(t, report.OutcomeSkippedUnreadable, rec.Outcome, name)
	}
	assert.Equal(t, "Stormrage\x00\x01", testutil.ReadFile(t, filepath.Join(root, "Account", "WOW1", "Area-52", "C", "blob.lua")))
	assert.Equal(t, report.ExitOK, rep.ExitStatus())
}

func TestRewriteKeepsPermissions(t *testing.T) {
	root := testutil.WTF(t, testutil.Tree{
		"Account/WOW1/Stormrage/C/x.lua": "Stormrage",
	})
	require.NoError(t, os.Chmod(filepath.Join(root, "Account", "WOW1", "Stormrage", "C", "x.lua"), 0600))

	migrate(t, root, realm("Stormrage", "Area-52"), false)

	info, err := os.Stat(filepath.Join(root, "Account", "WOW1", "Area-52", "C", "x.lua"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestNotFoundMutatesNothing(t *testing.T) {
	root := testutil.WTF(t, warriorTree)
	before := testutil.Hash(t, root)

	res, err := scan.Scan(root)
	require.NoError(t, err)
	_, err = plan.Build(res, realm("Blackrock", "Area-52"), plan.Options{})

	var nf *domain.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, before, testutil.Hash(t, root))
}

func TestFailedRenameSkipsDependents(t *testing.T) {
	root := testutil.WTF(t, testutil.Tree{
		"Account/WOW1/Other/x.lua": "Stormrage",
	})
	pairs := []domain.Pair{{Old: "Stormrage", New: "Area-52"}}
	p := &plan.Plan{
		Pairs: pairs,
		Actions: []plan.Action{
			plan.RenameDirectory("Account/WOW1/Stormrage", "Account/WOW1/Area-52", false, nil),
			plan.RewriteFile("Account/WOW1/Area-52/C/y.lua", "Account/WOW1/Stormrage/C/y.lua", pairs),
			plan.RewriteFile("Account/WOW1/Other/x.lua", "Account/WOW1/Other/x.lua", pairs),
		},
	}

	rep := report.New(root, report.ModeInPlace, false, realm("Stormrage", "Area-52"))
	require.NoError(t, New(root, false, nil).Run(p, rep))

	recs := rep.Records()
	require.Len(t, recs, 3)
	assert.Equal(t, report.OutcomeFailed, recs[0].Outcome)
	assert.NotEmpty(t, recs[0].Error)
	assert.Equal(t, report.OutcomeSkipped, recs[1].Outcome)
	assert.Equal(t, "depends on failed action #1", recs[1].Detail)
	assert.Equal(t, report.OutcomeApplied, recs[2].Outcome)
	assert.Equal(t, report.ExitPartialFailure, rep.ExitStatus())
}

func TestMergeDirRecursesAndRemovesEmptySource(t *testing.T) {
	root := testutil.WTF(t, testutil.Tree{
		"src/a/b/new.txt":  "new",
		"src/a/b/same.txt": "src",
		"src/top.txt":      "top",
		"dst/a/b/same.txt": "dst",
		"dst/a/other.txt":  "other",
		"src/empty/":       "",
	})

	merged, conflicts, err := migrateDir(root, "src", "dst")
	require.NoError(t, err)
	assert.True(t, merged)
	assert.Equal(t, []string{"dst/a/b/same.txt"}, conflicts)

	assert.Equal(t, testutil.Tree{
		"src/":             "",
		"src/a/":           "",
		"src/a/b/":         "",
		"src/a/b/same.txt": "src",
		"dst/":             "",
		"dst/a/":           "",
		"dst/a/b/":         "",
		"dst/a/b/new.txt":  "new",
		"dst/a/b/same.txt": "dst",
		"dst/a/other.txt":  "other",
		"dst/empty/":       "",
		"dst/top.txt":      "top",
	}, testutil.Snapshot(t, root))
}

func TestMigrateDirOntoItselfRenames(t *testing.T) {
	root := testutil.WTF(t, testutil.Tree{"real/x/a.lua": "a"})
	testutil.Symlink(t, root, "link", "real")

	merged, conflicts, err := migrateDir(root, "real/x", "link/x")
	require.NoError(t, err)
	assert.False(t, merged)
	assert.Empty(t, conflicts)
	assert.Equal(t, "a", testutil.ReadFile(t, filepath.Join(root, "real", "x", "a.lua")))
}

func TestCaseOnlyCharacterRename(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "Case.txt", "")
	if !testutil.Exists(filepath.Join(dir, "case.txt")) {
		t.Skip("filesystem is case-sensitive")
	}

	root := testutil.WTF(t, testutil.Tree{"Account/WOW1/Stormrage/thrall/Layout.lua": "thrall"})
	rep := migrate(t, root, domain.NewMappingSet("", "", "", "", "thrall", "Thrall"), false)

	rec := record(t, rep, "Account/WOW1/Stormrage/thrall")
	assert.Equal(t, report.OutcomeApplied, rec.Outcome)
	assert.Empty(t, rec.Conflicts)

	entries, err := os.ReadDir(filepath.Join(root, "Account", "WOW1", "Stormrage"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Thrall", entries[0].Name())
	assert.Equal(t, "Thrall", testutil.ReadFile(t, filepath.Join(root, "Account", "WOW1", "Stormrage", "Thrall", "Layout.lua")))
}

func TestMigrateDirMissingSource(t *testing.T) {
	root := testutil.WTF(t, testutil.Tree{"Account/": ""})

	_, _, err := migrateDir(root, "Account/WOW1", "Account/WOW2")

	var ioErr *domain.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "Account/WOW1", ioErr.Path)
}
