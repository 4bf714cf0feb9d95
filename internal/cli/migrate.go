package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Bennylavaa/RealmPortal/internal/apply"
	"github.com/Bennylavaa/RealmPortal/internal/cli/appctx"
	"github.com/Bennylavaa/RealmPortal/internal/domain"
	"github.com/Bennylavaa/RealmPortal/internal/plan"
	"github.com/Bennylavaa/RealmPortal/internal/report"
	"github.com/Bennylavaa/RealmPortal/internal/scan"
	"github.com/Bennylavaa/RealmPortal/internal/workspace"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <wtf-path>",
	Short: "Rename accounts, realms and characters in a WTF folder",
	Long: `Renames the folders of the given identifiers and rewrites whole-word
references to them in configuration files (.lua .txt .toc .xml .wtf by
default).

By default the WTF folder is first copied to
WTF_migrated_<old>_to_<new>_<timestamp> next to it and only the copy is
changed. Use --in-place to change the folder itself. --dry-run reports what
would happen without touching anything.

When a renamed folder already exists its contents are merged. Files present
on both sides are never overwritten: the destination keeps its content and
the source copy is left where it was.

Close the game client before migrating.`,
	Example: `  realmportal migrate WTF --old-realm Stormrage --new-realm Area-52
  realmportal migrate WTF --old-realm Stormrage --new-realm Area-52 --old-char Thrall --new-char Garrosh --dry-run
  realmportal migrate WTF --old-account WOW1 --new-account WOW2 --in-place`,
	Args: exactArgs(1),
	RunE: appctx.WithApp(appctx.ForMigration(), runMigrate),
}

var (
	migrateOldAccount string
	migrateNewAccount string
	migrateOldRealm   string
	migrateNewRealm   string
	migrateOldChar    string
	migrateNewChar    string
	migrateDryRun     bool
	migrateInPlace    bool
	migrateCopy       bool
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().StringVar(&migrateOldAccount, "old-account", "", "Account to migrate from (alone, limits the run to this account)")
	migrateCmd.Flags().StringVar(&migrateNewAccount, "new-account", "", "Account to migrate to")
	migrateCmd.Flags().StringVar(&migrateOldRealm, "old-realm", "", "Realm to migrate from")
	migrateCmd.Flags().StringVar(&migrateNewRealm, "new-realm", "", "Realm to migrate to")
	migrateCmd.Flags().StringVar(&migrateOldChar, "old-char", "", "Character to migrate from")
	migrateCmd.Flags().StringVar(&migrateNewChar, "new-char", "", "Character to migrate to")
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "Report what would change without modifying anything")
	migrateCmd.Flags().BoolVar(&migrateInPlace, "in-place", false, "Modify the WTF folder itself")
	migrateCmd.Flags().BoolVar(&migrateCopy, "copy", false, "Migrate a timestamped copy of the WTF folder (default)")
}

func runMigrate(app *appctx.App, cmd *cobra.Command, args []string) error {
	if migrateInPlace && migrateCopy {
		return usageError("--in-place and --copy cannot be combined")
	}

	set := domain.NewMappingSet(migrateOldAccount, migrateNewAccount, migrateOldRealm, migrateNewRealm, migrateOldChar, migrateNewChar)
	if err := set.Validate(); err != nil {
		return err
	}
	if !set.HasChanges() {
		return usageError("nothing to migrate: give at least one --new-* name that differs from its --old-* name")
	}

	r, err := newRenderer(app, cmd)
	if err != nil {
		return err
	}

	root, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	log := app.Log.WithFields(logrus.Fields{"root": root, "dry_run": migrateDryRun})

	res, err := scan.Scan(root)
	if err != nil {
		return err
	}
	warnSkipped(log, res)
	p, err := plan.Build(res, set, plan.Options{Extensions: app.Config.Extensions, Exclude: app.Config.Exclude})
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"renames":  p.Count(plan.ActionRenameDirectory),
		"rewrites": p.Count(plan.ActionRewriteFile),
	}).Info("migration planned")

	mode := report.ModeCopy
	if migrateInPlace {
		mode = report.ModeInPlace
	}
	rep := report.New(root, mode, migrateDryRun, set)

	if mode == report.ModeCopy {
		rep.WorkRoot = workspace.CopyPath(root, set, time.Now())
		if migrateDryRun {
			log.WithField("copy", rep.WorkRoot).Info("would create migration copy")
		} else {
			log.WithField("copy", rep.WorkRoot).Info("creating migration copy")
			if err := workspace.Copy(root, rep.WorkRoot); err != nil {
				return err
			}
		}
	}

	// a dry run reads the untouched source even when a copy is announced
	execRoot := rep.WorkRoot
	if migrateDryRun {
		execRoot = root
	}
	if err := apply.New(execRoot, migrateDryRun, app.Log).Run(p, rep); err != nil {
		return err
	}
	rep.Finalize()

	if app.Journal != nil {
		if err := app.Journal.RecordRun(rep); err != nil {
			app.Log.WithError(err).Warn("failed to record run in journal")
		}
	}

	c := rep.Counters()
	log.WithFields(logrus.Fields{
		"run_id":    rep.RunID,
		"applied":   c.Applied,
		"merged":    c.Merged,
		"skipped":   c.Skipped,
		"failed":    c.Failed,
		"conflicts": c.Conflicts,
	}).Info("migration finished")

	if err := report.Render(r, rep); err != nil {
		return err
	}

	if rep.ExitStatus() != report.ExitOK {
		return exitError(ExitPartialFailure, fmt.Errorf("%d of %d actions failed (run %s)", c.Failed, len(rep.Items), rep.RunID))
	}
	return nil
}
