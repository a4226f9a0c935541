package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kamusis/askrepo/internal/classifier"
)

var (
	flagTrainEpochs int
	flagTrainSeed   uint64
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the intent classifier from the QA table",
	Long: `Load the QA table (remote endpoint, local cache or built-in table) and
train the intent classifier, one class per question. The artifacts are
written to the classifier directory from the config.`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().IntVar(&flagTrainEpochs, "epochs", 0, "Training epochs (default from config)")
	trainCmd.Flags().Uint64Var(&flagTrainSeed, "seed", 42, "Random seed")
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	printSection("askrepo train")
	store := newQAStore(cfg, log)
	origin := store.Load(ctx)
	table := store.Snapshot()
	printInfo("", fmt.Sprintf("%d question(s) loaded from %s", table.Len(), origin))

	epochs := cfg.Classifier.Epochs
	if cmd.Flags().Changed("epochs") {
		epochs = flagTrainEpochs
	}
	cls, err := classifier.Train(ctx, table.Pairs(), classifier.TrainOptions{
		MaxLen: cfg.Classifier.MaxLen,
		Epochs: epochs,
		Seed:   flagTrainSeed,
		Progress: func(epoch int, loss float64) {
			if epoch%50 == 0 {
				printInfo("", fmt.Sprintf("epoch %d  loss %.4f", epoch, loss))
			}
		},
	})
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}
	if err := cls.Save(cfg.Classifier.Dir); err != nil {
		return err
	}
	printOK("", fmt.Sprintf("classifier written: %s (%d classes, vocabulary %d)",
		cfg.Classifier.Dir, len(cls.Answers), cls.Tokenizer.VocabSize()))
	return nil
}
