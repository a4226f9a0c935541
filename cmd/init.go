package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamusis/askrepo/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create ~/.askrepo with a default config and .env template",
	Long: `Initialize askrepo's home directory at ~/.askrepo/.

Writes askrepo.yaml with defaults and a .env template listing the provider
keys. Existing files are left untouched.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var flagInitProjectRoot string

func init() {
	initCmd.Flags().StringVar(&flagInitProjectRoot, "project", "", "Project root to index (default: current directory)")
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	// ── 1. Resolve ~/.askrepo ───────────────────────────────────────────────
	dir, err := config.AskrepoDir()
	if err != nil {
		return err
	}
	cfgPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	printOK("", fmt.Sprintf("askrepo directory ready: %s", dir))

	// ── 2. Write askrepo.yaml if missing ─────────────────────────────────────
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg, err := config.DefaultConfig()
		if err != nil {
			return err
		}
		if flagInitProjectRoot != "" {
			cfg.ProjectRoot = flagInitProjectRoot
		}
		if err := config.Save(cfg); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Config written: %s", cfgPath))
	} else {
		printSkip("", fmt.Sprintf("Config already exists: %s", cfgPath))
	}

	// ── 3. Write .env template if missing ───────────────────────────────────
	envPath, err := config.DotEnvPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		if err := config.EnsureDotEnvTemplate(); err != nil {
			return err
		}
		printOK("", fmt.Sprintf(".env template written: %s", envPath))
	} else {
		printSkip("", fmt.Sprintf(".env already exists: %s", envPath))
	}

	// ── 4. Data directory ───────────────────────────────────────────────────
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", cfg.DataDir, err)
	}
	printOK("", fmt.Sprintf("Data directory ready: %s", cfg.DataDir))

	fmt.Println("\n✓  askrepo init complete. Run 'askrepo index' to build the project index.")
	return nil
}
