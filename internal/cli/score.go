package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/curiolabs/curio-go/internal/models"
	"github.com/curiolabs/curio-go/internal/scorer"
)

var (
	scoreAll   bool
	scoreLimit int
	scoreStats bool
)

var scoreCmd = &cobra.Command{
	Use:   "score [url]",
	Short: "Filter and score articles against your profile",
	Long: `Score runs one article, or the whole unscored backlog, through the
pipeline: cheap topic gate first, then a 1-10 preference score from the
capable model. Articles the gate rejects are marked topic-filtered and
never scored again.

Examples:
  curio score https://example.com/some-article
  curio score --all
  curio score --all --limit 20 --stats`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().BoolVarP(&scoreAll, "all", "a", false, "score the whole unscored backlog")
	scoreCmd.Flags().IntVarP(&scoreLimit, "limit", "n", 0, "max articles to score with --all (0 = no limit)")
	scoreCmd.Flags().BoolVar(&scoreStats, "stats", false, "print pipeline statistics afterwards")
}

func runScore(cmd *cobra.Command, args []string) error {
	if scoreAll == (len(args) == 1) {
		return fmt.Errorf("pass either a single article URL or --all")
	}

	o, err := getScorer()
	if err != nil {
		return err
	}

	if scoreAll {
		batch := scorer.NewBatchScorer(dbClient, o, cfg.ScoreConcurrency, nil)
		result, err := RunBatchProgress(cmd.Context(), batch, scoreLimit)
		if err != nil {
			return err
		}
		printBatchResult(result)
	} else {
		article, err := dbClient.GetArticle(cmd.Context(), models.ArticleKey(args[0]))
		if err != nil {
			return fmt.Errorf("load article: %w", err)
		}
		if article == nil {
			return fmt.Errorf("no article found for %s, add it first", args[0])
		}

		report := o.Run(cmd.Context(), *article)
		printReport(report)
		if report.Err != nil {
			return report.Err
		}
	}

	if scoreStats {
		printStats(collector.Snapshot())
	}
	return nil
}

func printReport(report scorer.Report) {
	switch report.Outcome {
	case scorer.OutcomeScored:
		fmt.Printf("Scored %d/10 (%s)\n", *report.Article.AIScore, report.Article.AIScoreSource)
		fmt.Printf("  %s\n", report.Article.AISummary)
	case scorer.OutcomeFiltered:
		fmt.Println("Off topic: article marked topic-filtered, it will not be scored again.")
	case scorer.OutcomeAlreadyFiltered:
		fmt.Println("Already topic-filtered, nothing to do.")
	case scorer.OutcomeNoProfile:
		fmt.Println("No profile yet. Rate some articles and run 'curio learn' first.")
	case scorer.OutcomeAborted:
		fmt.Printf("Scoring aborted: %v\n", report.Err)
	}
}

func printBatchResult(result scorer.BatchResult) {
	if result.NoProfile {
		fmt.Println("No profile yet. Rate some articles and run 'curio learn' first.")
		return
	}
	if result.Total == 0 {
		fmt.Println("Nothing to score.")
		return
	}

	fmt.Printf("\n  Articles:        %d\n", result.Total)
	fmt.Printf("  Scored:          %d\n", result.Scored)
	fmt.Printf("  Topic-filtered:  %d\n", result.Filtered)
	if result.Fallback > 0 {
		fmt.Printf("  Neutral fallback: %d\n", result.Fallback)
	}
	if result.Aborted > 0 {
		fmt.Printf("  Aborted:         %d (see log)\n", result.Aborted)
	}
}
