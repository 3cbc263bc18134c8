// Campusctl is a terminal client for learner account settings.
//
// It renders the platform's account settings as an interactive tabbed panel,
// offers one-shot show/set commands for scripting, and ships a stub platform
// server so the panel can be developed and demonstrated without a real
// deployment.
//
// Usage:
//
//	campusctl [command] [flags]
//
// Running without arguments opens the interactive settings panel.
// See 'campusctl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/campusctl/campusctl/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "campusctl",
	Short: "Learner account settings from the terminal",
	Long: `A terminal client for learner account settings.

Browse and edit account attributes in a tabbed interactive panel, or use
the one-shot show/set commands for scripting. A stub platform server is
included for local development.

If no command is specified, the interactive panel opens.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPanel(cmd, args)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("campusctl %s (commit: %s)\n", version.Version, version.Commit)
	},
}
