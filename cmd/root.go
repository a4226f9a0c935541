package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	flagConfigPath string
	flagVerbose    bool
)

var rootCmd = &cobra.Command{
	Use:          "askrepo",
	Short:        "askrepo answers questions about a project from its own files",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `askrepo answers questions about a project. It tries a table of known
questions first, then a trained intent classifier, then retrieval over an
index of the project's files with an optional language model.

State lives in ~/.askrepo/.`,
	PersistentPreRunE: loadWorkingDirEnv,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Path to askrepo.yaml (default ~/.askrepo/askrepo.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Also write logs to stderr")
}

// loadWorkingDirEnv loads ./.env into the process environment. Variables
// that are already set win.
func loadWorkingDirEnv(_ *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cannot load .env: %w", err)
	}
	return nil
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
