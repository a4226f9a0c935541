package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kamusis/askrepo/internal/retriever"
	"github.com/kamusis/askrepo/internal/vectorindex"
)

var (
	flagQueryK    int
	flagQueryFull bool
	flagQueryIdx  string
	flagQueryMeta string
	flagQueryKw   bool
)

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Show the indexed chunks most similar to a question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().IntVar(&flagQueryK, "k", 0, "Number of chunks to return (default from config)")
	queryCmd.Flags().BoolVar(&flagQueryFull, "full", false, "Print whole chunks instead of a preview")
	queryCmd.Flags().StringVar(&flagQueryIdx, "index", "", "Index file (default from config)")
	queryCmd.Flags().StringVar(&flagQueryMeta, "meta", "", "Metadata file (default from config)")
	queryCmd.Flags().BoolVar(&flagQueryKw, "keyword", false, "Match words in the metadata only; no embeddings needed")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	k := cfg.Retrieval.TopK
	if cmd.Flags().Changed("k") {
		k = flagQueryK
	}
	indexPath := firstSet(flagQueryIdx, cfg.Index.Path)
	metaPath := firstSet(flagQueryMeta, cfg.Index.MetaPath)

	question := strings.Join(args, " ")
	if flagQueryKw {
		return runQueryKeyword(question, metaPath, k)
	}

	prov, err := newEmbeddingsProvider("")
	if err != nil {
		printInfo("", fmt.Sprintf("semantic search unavailable, falling back to keyword: %v", err))
		return runQueryKeyword(question, metaPath, k)
	}
	r := retriever.New(prov, indexPath, metaPath, cfg.Retrieval.CacheTTL, log.Named("retriever"))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Resolver.Timeout)
	defer cancel()
	results, err := r.QueryAt(ctx, question, indexPath, metaPath, k)
	if err != nil {
		if retriever.IsNotBuilt(err) {
			return fmt.Errorf("no index at %s\nRun 'askrepo index' first.", indexPath)
		}
		return err
	}
	printQueryResults(question, results, flagQueryFull)
	return nil
}

func runQueryKeyword(question, metaPath string, k int) error {
	meta, err := vectorindex.LoadMeta(metaPath)
	if err != nil {
		if retriever.IsNotBuilt(err) {
			return fmt.Errorf("no metadata at %s\nRun 'askrepo index' first.", metaPath)
		}
		return err
	}
	printQueryResults(question, retriever.KeywordSearch(meta, question, k), flagQueryFull)
	return nil
}

func printQueryResults(question string, results []retriever.Result, full bool) {
	fmt.Printf("\naskrepo query %q\n\n", question)
	fmt.Printf("Results (%d found):\n", len(results))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, r := range results {
		fmt.Fprintf(w, "\n  %d.\t[%.3f]\t%s\n", i+1, r.Score, r.Chunk.Path)
		text := strings.TrimSpace(r.Chunk.Text)
		if !full {
			text = preview(text, 200)
		}
		for _, line := range strings.Split(text, "\n") {
			fmt.Fprintf(w, "     %s\n", line)
		}
	}
	_ = w.Flush()
}

// preview shortens s to at most n runes on a single line.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
