package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kamusis/askrepo/internal/chunk"
	"github.com/kamusis/askrepo/internal/corpus"
	"github.com/kamusis/askrepo/internal/vectorindex"
)

var (
	flagIndexPath      string
	flagIndexMeta      string
	flagIndexModel     string
	flagIndexBatchSize int
	flagIndexWorkers   int
	flagIndexForce     bool
)

var indexCmd = &cobra.Command{
	Use:   "index [root]",
	Short: "Build the vector index of a project tree",
	Long: `Read every supported file under root (default: project_root from the
config), split it into chunks, embed them and write the index and its
metadata. A failed build leaves the previous index untouched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&flagIndexPath, "index", "", "Output index file (default from config)")
	indexCmd.Flags().StringVar(&flagIndexMeta, "meta", "", "Output metadata file (default from config)")
	indexCmd.Flags().StringVar(&flagIndexModel, "model", "", "Embeddings model (overrides ASKREPO_EMBEDDINGS_MODEL)")
	indexCmd.Flags().IntVar(&flagIndexBatchSize, "batch-size", 0, "Chunks per embedding request (default from config)")
	indexCmd.Flags().IntVar(&flagIndexWorkers, "workers", 0, "Concurrent embedding requests (default from config)")
	indexCmd.Flags().BoolVar(&flagIndexForce, "force", false, "Re-embed every chunk even if the model is unchanged")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	root := cfg.ProjectRoot
	if len(args) == 1 {
		root = args[0]
	}
	indexPath := firstSet(flagIndexPath, cfg.Index.Path)
	metaPath := firstSet(flagIndexMeta, cfg.Index.MetaPath)
	batch := cfg.Index.BatchSize
	if cmd.Flags().Changed("batch-size") {
		batch = flagIndexBatchSize
	}
	workers := cfg.Index.Workers
	if cmd.Flags().Changed("workers") {
		workers = flagIndexWorkers
	}

	prov, err := newEmbeddingsProvider(flagIndexModel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	printSection("askrepo index")
	printInfo("", fmt.Sprintf("reading %s using %s", root, prov.ModelID()))

	b := &vectorindex.Builder{
		Reader: &corpus.Reader{
			Extensions:  cfg.Index.Extensions,
			ExcludeDirs: cfg.Index.ExcludeDirs,
			Logger:      log.Named("corpus"),
		},
		Chunker:   chunk.Chunker{},
		Provider:  prov,
		BatchSize: batch,
		Workers:   workers,
		Force:     flagIndexForce,
		Logger:    log.Named("index"),
		Progress: func(done, total int) {
			fmt.Printf("\r  ~  embedded %d/%d chunks", done, total)
		},
	}
	res, err := b.Build(ctx, root, indexPath, metaPath)
	if err != nil {
		fmt.Println()
		switch {
		case errors.Is(err, vectorindex.ErrNoDocuments):
			printWarn("", fmt.Sprintf("no supported files found under %s", root))
		case errors.Is(err, vectorindex.ErrNoChunks):
			printWarn("", "files were found but produced no chunks")
		}
		return fmt.Errorf("index build failed: %w", err)
	}
	if res.Embedded > 0 {
		fmt.Println()
	}

	printOK("", fmt.Sprintf("%d document(s), %d chunk(s), dim %d", res.Documents, res.Chunks, res.Dim))
	if res.Reused > 0 {
		printInfo("", fmt.Sprintf("%d chunk(s) reused from the previous index, %d embedded", res.Reused, res.Embedded))
	}
	printOK("", fmt.Sprintf("index written: %s", indexPath))
	printOK("", fmt.Sprintf("metadata written: %s", metaPath))
	return nil
}

func firstSet(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
