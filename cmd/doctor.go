package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamusis/askrepo/internal/classifier"
	"github.com/kamusis/askrepo/internal/config"
	"github.com/kamusis/askrepo/internal/llm"
	"github.com/kamusis/askrepo/internal/vectorindex"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run pre-flight environment checks",
	Long: `Check that askrepo's configuration, index, classifier and providers are
usable. Run this command when answers look wrong.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(_ *cobra.Command, _ []string) error {
	allOK := true
	failD := func(format string, args ...any) {
		printErr("", fmt.Sprintf(format, args...))
		allOK = false
	}

	printSection("askrepo doctor")
	fmt.Println()

	// ── Check 1: askrepo.yaml ───────────────────────────────────────────────
	fmt.Println("[ askrepo.yaml ]")
	cfgPath, _ := config.ConfigPath()
	if flagConfigPath != "" {
		cfgPath = flagConfigPath
	}
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		printWarn("", fmt.Sprintf("%s not found; using defaults (run 'askrepo init')", cfgPath))
	}
	cfg, err := loadConfig()
	if err != nil {
		failD("%v", err)
		return errors.New("doctor found problems")
	}
	printOK("", fmt.Sprintf("config loaded; project root %s", cfg.ProjectRoot))
	fmt.Println()

	// ── Check 2: index and metadata ─────────────────────────────────────────
	fmt.Println("[ Index ]")
	idx, err := vectorindex.Load(cfg.Index.Path, cfg.Index.MetaPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		printMiss("", fmt.Sprintf("no index at %s (run 'askrepo index')", cfg.Index.Path))
	case err != nil:
		failD("index unreadable: %v", err)
	default:
		printOK("", fmt.Sprintf("%d chunk(s), dim %d, model %s", idx.Size(), idx.Header.Dim, idx.Header.ModelID))
		if prov, err := newEmbeddingsProvider(""); err != nil {
			failD("embeddings provider unavailable: %v", err)
		} else if prov.ModelID() != idx.Header.ModelID {
			failD("index built with %s but the configured provider is %s (rebuild with 'askrepo index')",
				idx.Header.ModelID, prov.ModelID())
		} else {
			printOK("", fmt.Sprintf("embeddings provider matches: %s", prov.ModelID()))
		}
	}
	fmt.Println()

	// ── Check 3: classifier artifacts ───────────────────────────────────────
	fmt.Println("[ Classifier ]")
	cls, err := classifier.Load(cfg.Classifier.Dir)
	switch {
	case errors.Is(err, classifier.ErrArtifactsMissing):
		printSkip("", fmt.Sprintf("not trained (run 'askrepo train'); artifacts dir %s", cfg.Classifier.Dir))
	case err != nil:
		failD("classifier artifacts invalid: %v", err)
	default:
		printOK("", fmt.Sprintf("%d class(es), vocabulary %d", len(cls.Answers), cls.Tokenizer.VocabSize()))
	}
	fmt.Println()

	// ── Check 4: generator ──────────────────────────────────────────────────
	fmt.Println("[ Language model ]")
	settings, err := llm.ResolveSettings(cfg.LLM)
	if err != nil {
		failD("%v", err)
	} else if _, err := llm.NewGateway(settings, nil); errors.Is(err, llm.ErrNotConfigured) {
		printWarn("", fmt.Sprintf("%s: %v; answers will quote retrieved chunks", settings.Provider, err))
	} else if err != nil {
		failD("%v", err)
	} else {
		printOK("", fmt.Sprintf("%s with model(s) %v", settings.Provider, settings.Models))
	}
	fmt.Println()

	// ── Check 5: QA table source ────────────────────────────────────────────
	fmt.Println("[ QA table ]")
	if cfg.QA.APIURL == "" {
		printSkip("", "no QA endpoint configured (set QA_API_URL)")
	} else {
		printOK("", fmt.Sprintf("endpoint %s", cfg.QA.APIURL))
	}
	if _, err := os.Stat(cfg.QA.CachePath); err == nil {
		printOK("", fmt.Sprintf("cache present: %s", cfg.QA.CachePath))
	} else {
		printMiss("", fmt.Sprintf("no cache at %s; the built-in table is the fallback", cfg.QA.CachePath))
	}

	fmt.Println()
	if !allOK {
		return errors.New("doctor found problems")
	}
	fmt.Println("✓  all checks passed")
	return nil
}
