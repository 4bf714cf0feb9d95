package cli

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Bennylavaa/RealmPortal/internal/cli/appctx"
	"github.com/Bennylavaa/RealmPortal/internal/domain"
	"github.com/Bennylavaa/RealmPortal/internal/paths"
	"github.com/Bennylavaa/RealmPortal/internal/render"
	"github.com/Bennylavaa/RealmPortal/internal/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan <wtf-path>",
	Short: "List the accounts, realms and characters in a WTF folder",
	Long: `Walks Account/<ACCOUNT>/<REALM>/<CHARACTER> below the given WTF folder and
prints every identifier found. Nothing is modified.`,
	Args: exactArgs(1),
	RunE: appctx.WithApp(appctx.DefaultOptions(), runScan),
}

var scanFiles bool

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVar(&scanFiles, "files", false, "Also count configuration files per account")
}

type scanRow struct {
	Account   string `json:"account" yaml:"account"`
	Realm     string `json:"realm,omitempty" yaml:"realm,omitempty"`
	Character string `json:"character,omitempty" yaml:"character,omitempty"`
}

func runScan(app *appctx.App, cmd *cobra.Command, args []string) error {
	res, err := scan.Scan(args[0])
	if err != nil {
		return err
	}
	warnSkipped(app.Log, res)
	app.Log.WithField("root", res.Root).WithField("accounts", len(res.Accounts)).Debug("scanned WTF folder")

	r, err := newRenderer(app, cmd)
	if err != nil {
		return err
	}
	if ok, err := r.Structured(res); ok {
		return err
	}

	headers := []string{"ACCOUNT", "REALM", "CHARACTER"}
	rows := [][]string{}
	for _, row := range scanRows(res) {
		rows = append(rows, []string{row.Account, row.Realm, row.Character})
	}
	if r.Format() == render.FormatTSV {
		return r.RenderTSV(headers, rows)
	}

	out := cmd.OutOrStdout()
	st := r.Styles()
	fmt.Fprintln(out, st.Title.Render(res.Root))
	if len(rows) == 0 {
		fmt.Fprintln(out, st.Muted.Render("no accounts found"))
	} else if err := r.RenderTable(headers, rows); err != nil {
		return err
	}

	if scanFiles {
		fmt.Fprintln(out)
		fileRows := [][]string{{"(root)", strconv.Itoa(len(res.GlobalFiles))}}
		for _, acct := range res.Accounts {
			fileRows = append(fileRows, []string{acct.Name, strconv.Itoa(countFiles(res, acct.Name))})
		}
		if err := r.RenderTable([]string{"ACCOUNT", "FILES"}, fileRows); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "\n%d accounts, %d realms, %d characters\n",
		len(res.AccountNames()), len(res.RealmNames()), len(res.CharacterNames()))
	return nil
}

// scanRows flattens the result to one row per character, keeping accounts
// and realms that have none.
func scanRows(res *scan.Result) []scanRow {
	var rows []scanRow
	for _, acct := range res.Accounts {
		if len(acct.Realms) == 0 {
			rows = append(rows, scanRow{Account: acct.Name})
		}
		for _, realm := range acct.Realms {
			if len(realm.Characters) == 0 {
				rows = append(rows, scanRow{Account: acct.Name, Realm: realm.Name})
			}
			for _, char := range realm.Characters {
				rows = append(rows, scanRow{Account: acct.Name, Realm: realm.Name, Character: char})
			}
		}
	}
	return rows
}

func countFiles(res *scan.Result, account string) int {
	dir := paths.JoinPath(domain.AccountDir, account)
	n := 0
	for _, f := range res.Files {
		if paths.IsUnder(f, dir) {
			n++
		}
	}
	return n
}

func warnSkipped(log logrus.FieldLogger, res *scan.Result) {
	for _, dir := range res.Skipped {
		log.WithField("path", dir).Warn("folder could not be read; files inside it are not rewritten")
	}
}
