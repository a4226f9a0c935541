package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kamusis/askrepo/internal/answer"
	"github.com/kamusis/askrepo/internal/qa"
	"github.com/kamusis/askrepo/internal/retriever"
)

var flagAskShowSource bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question about the project",
	Long: `Answer a question using the QA table, the classifier and the project
index, in that order. Without arguments askrepo reads one question per line
from stdin until "sair" or end of input; "/reload" refreshes the QA table
and rereads the index.`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&flagAskShowSource, "source", false, "Show which answer source was used")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	r, err := newResolver(ctx, cfg, log)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		printAnswer(r.Resolve(ctx, strings.Join(args, " ")))
		return nil
	}

	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !sc.Scan() {
			fmt.Println()
			return sc.Err()
		}
		q := strings.TrimSpace(sc.Text())
		switch strings.ToLower(q) {
		case "":
			continue
		case "sair", "exit", "quit":
			return nil
		case "/reload":
			reloadSources(ctx, r)
			printOK("", "QA table and index reloaded")
			continue
		}
		printAnswer(r.Resolve(ctx, q))
	}
}

func printAnswer(res answer.Result) {
	fmt.Println()
	fmt.Println(res.Answer)
	if len(res.Suggestions) > 0 {
		printBullet("Sugestões:")
		for _, s := range res.Suggestions {
			fmt.Printf("  -  %s\n", s)
		}
	}
	if flagAskShowSource {
		fmt.Println()
		printInfo("source", string(res.Source))
	}
}

// reloadSources refreshes the QA snapshot and drops cached indexes.
func reloadSources(ctx context.Context, r *answer.Resolver) {
	if s, ok := r.QA.(*qa.Store); ok {
		s.Refresh(ctx)
	}
	if ret, ok := r.Retriever.(*retriever.Retriever); ok {
		ret.Reload()
	}
}
