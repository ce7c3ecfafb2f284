package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/cleared-gl/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var dir string

	rootCmd := &cobra.Command{
		Use:     "cleared-gl",
		Short:   "Double-entry general ledger",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&dir, "dir", "C", ".", "ledger project directory")

	rootCmd.AddCommand(
		newInitCommand(),
		newAccountCommand(&dir),
		newPostCommand(&dir),
		newEntriesCommand(&dir),
		newImportCommand(&dir),
		newBalancesCommand(&dir),
		newTrialBalanceCommand(&dir),
		newBalanceSheetCommand(&dir),
		newIncomeCommand(&dir),
	)

	return rootCmd
}
