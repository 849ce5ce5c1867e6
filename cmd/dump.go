package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"deck-mirror/core/config"
	"deck-mirror/core/deck"
	"deck-mirror/core/logger"
	"deck-mirror/feature/mirror/models"
	"deck-mirror/feature/mirror/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var dumpJSON bool

// dumpCmd performs a one-shot fetch and prints the mirrored tree.
var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Fetch the board hierarchy once and print a report",
	Long: `Fetches a single snapshot from the Deck API, reconciles it into an
empty tree, and prints a summary (or the full tree as JSON with --json).

Examples:
  # Summary report
  deck-mirror dump

  # Full tree as JSON (for piping into jq)
  deck-mirror dump --json`,
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().BoolVar(&dumpJSON, "json", false, "Print the full tree as JSON instead of a summary")
	RootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	client := deck.NewClient(cfg.Deck)

	l.Info("Fetching snapshot", zap.String("host", cfg.Deck.Host))
	snap, err := client.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch snapshot: %w", err)
	}

	tree := models.NewTree()
	rec := reconcile.New(client, l)
	if _, err := rec.Apply(ctx, tree, snap); err != nil {
		return fmt.Errorf("failed to reconcile snapshot: %w", err)
	}

	if dumpJSON {
		body, err := json.MarshalIndent(tree, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode tree: %w", err)
		}
		fmt.Println(string(body))
		return nil
	}

	printTreeReport(l, tree)
	return nil
}

// printTreeReport prints a formatted summary of the tree using the logger.
func printTreeReport(l *zap.Logger, tree *models.Tree) {
	l.Info("Mirror report",
		zap.Int("boards", len(tree.Boards)),
		zap.Int("cards", tree.CardCount()),
		zap.Int("users", tree.Users.Len()),
	)

	for _, b := range tree.Boards {
		l.Info("Board",
			zap.Int64("id", b.ID),
			zap.String("title", b.Title),
			zap.Int("stacks", len(b.Stacks)),
		)
		for _, s := range b.OrderedStacks() {
			l.Info("  Stack",
				zap.Int64("id", s.ID),
				zap.String("title", s.Title),
				zap.Int("cards", len(s.Cards)),
			)
		}
	}

	if due := tree.DueCards(); len(due) > 0 {
		next := due[0]
		l.Info("Earliest due card",
			zap.Int64("card_id", next.ID),
			zap.String("title", next.Title),
			zap.Time("due", *next.Due),
		)
	} else {
		l.Info("No due-dated cards")
	}
}
