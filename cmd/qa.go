package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kamusis/askrepo/internal/qa"
)

var qaCmd = &cobra.Command{
	Use:   "qa",
	Short: "Manage the table of known questions",
}

var qaRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch the QA table and update the local cache",
	Args:  cobra.NoArgs,
	RunE:  runQARefresh,
}

var qaLookupCmd = &cobra.Command{
	Use:   "lookup <question>",
	Short: "Look a question up by exact normalized match",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQALookup,
}

var qaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the normalized questions of the QA table",
	Args:  cobra.NoArgs,
	RunE:  runQAList,
}

func init() {
	qaCmd.AddCommand(qaRefreshCmd, qaLookupCmd, qaListCmd)
	rootCmd.AddCommand(qaCmd)
}

func runQARefresh(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	store := newQAStore(cfg, log)
	origin := store.Refresh(context.Background())
	n := store.Snapshot().Len()
	switch origin {
	case qa.OriginAPI:
		printOK("", fmt.Sprintf("%d question(s) fetched from %s; cache updated: %s", n, cfg.QA.APIURL, cfg.QA.CachePath))
	case qa.OriginCache:
		printWarn("", fmt.Sprintf("endpoint unavailable; %d question(s) from cache %s", n, cfg.QA.CachePath))
	default:
		if cfg.QA.APIURL == "" {
			printSkip("", "no QA endpoint configured (set QA_API_URL)")
		}
		printInfo("", fmt.Sprintf("using the built-in table (%d question(s))", n))
	}
	return nil
}

func runQALookup(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	store := newQAStore(cfg, log)
	store.Load(context.Background())
	question := strings.Join(args, " ")
	ans, ok := store.Lookup(question)
	if !ok {
		printMiss("", fmt.Sprintf("no exact match for %q", question))
		return nil
	}
	printOK("", ans)
	return nil
}

func runQAList(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	store := newQAStore(cfg, log)
	store.Load(context.Background())
	questions := store.Snapshot().Questions()
	printSection(fmt.Sprintf("QA table (%s, %d question(s))", store.Origin(), len(questions)))
	for _, q := range questions {
		fmt.Printf("  -  %s\n", q)
	}
	return nil
}
