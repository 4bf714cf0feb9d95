package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "realmportal",
	Short: "Migrate WoW WTF configuration between accounts, realms and characters",
	Long: `realmportal moves a World of Warcraft WTF folder from one set of
identifiers to another. It renames account, realm and character folders and
rewrites whole-word references to the old names inside addon and client
configuration files.

Close the game client before migrating: it rewrites these files on exit.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format: table, json, yaml or tsv (overrides REALMPORTAL_OUTPUT)")
	rootCmd.PersistentFlags().String("log-file", "", "Persistent log file (overrides REALMPORTAL_LOG_PATH)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: error, warn, info or debug")
	rootCmd.PersistentFlags().String("journal", "", "Path to the run journal (overrides REALMPORTAL_JOURNAL_PATH)")
	rootCmd.PersistentFlags().Bool("no-journal", false, "Do not record runs in the journal")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return exitError(ExitValidation, err)
	})
}
