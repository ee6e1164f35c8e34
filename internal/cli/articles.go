package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/curiolabs/curio-go/internal/db"
	"github.com/curiolabs/curio-go/internal/models"
)

var (
	articlesLimit  int
	articleTitle   string
	articleSummary string
)

var articlesCmd = &cobra.Command{
	Use:   "articles",
	Short: "Manage the article feed",
	Long: `List, add, and rate articles.

Subcommands:
  list    List articles, newest first (default)
  add     Add an article by URL
  rate    Mark an article relevant or not-relevant
  unrate  Clear your rating so the article can be rated again

Examples:
  curio articles
  curio articles add https://example.com/post --title "A post"
  curio articles rate https://example.com/post relevant
  curio articles unrate https://example.com/post`,
	RunE: runArticlesList,
}

var articlesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List articles",
	RunE:  runArticlesList,
}

var articlesAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Add an article by URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runArticlesAdd,
}

var articlesRateCmd = &cobra.Command{
	Use:   "rate <url> <relevant|not-relevant>",
	Short: "Rate an article",
	Args:  cobra.ExactArgs(2),
	RunE:  runArticlesRate,
}

var articlesUnrateCmd = &cobra.Command{
	Use:   "unrate <url>",
	Short: "Clear an article's rating",
	Args:  cobra.ExactArgs(1),
	RunE:  runArticlesUnrate,
}

func init() {
	articlesCmd.Flags().IntVarP(&articlesLimit, "limit", "n", 50, "max results")
	articlesListCmd.Flags().IntVarP(&articlesLimit, "limit", "n", 50, "max results")

	articlesAddCmd.Flags().StringVarP(&articleTitle, "title", "t", "", "article title")
	articlesAddCmd.Flags().StringVarP(&articleSummary, "summary", "s", "", "article summary used for prompts")

	articlesCmd.AddCommand(articlesListCmd)
	articlesCmd.AddCommand(articlesAddCmd)
	articlesCmd.AddCommand(articlesRateCmd)
	articlesCmd.AddCommand(articlesUnrateCmd)
}

func runArticlesList(cmd *cobra.Command, args []string) error {
	articles, err := dbClient.ListArticles(cmd.Context(), articlesLimit)
	if err != nil {
		return fmt.Errorf("list articles: %w", err)
	}

	if len(articles) == 0 {
		fmt.Println("No articles found.")
		return nil
	}

	fmt.Printf("Articles (%d):\n\n", len(articles))
	for _, a := range articles {
		fmt.Printf("- %s %s\n", articleMark(a), a.Title)
		fmt.Printf("  %s\n", a.URL)
		if verbose {
			if a.Summary != "" {
				fmt.Printf("  %s\n", a.Summary)
			}
			if a.Scored() {
				fmt.Printf("  AI: %s\n", a.AISummary)
			}
		}
	}
	return nil
}

// articleMark renders the pipeline state as a short prefix.
func articleMark(a models.Article) string {
	switch {
	case a.TopicFiltered:
		return "[off-topic]"
	case a.Rated() && *a.Relevant:
		return "[relevant]"
	case a.Rated():
		return "[not-relevant]"
	case a.Scored():
		return fmt.Sprintf("[%d/10]", *a.AIScore)
	default:
		return "[new]"
	}
}

func runArticlesAdd(cmd *cobra.Command, args []string) error {
	url := args[0]
	title := articleTitle
	if title == "" {
		title = url
	}

	article, err := dbClient.UpsertArticle(cmd.Context(), url, title, articleSummary)
	if err != nil {
		return fmt.Errorf("add article: %w", err)
	}

	fmt.Printf("Added %s\n", article.URL)
	fmt.Println("Run 'curio score' to filter and score it.")
	return nil
}

func runArticlesRate(cmd *cobra.Command, args []string) error {
	var relevant bool
	switch args[1] {
	case "relevant", "yes":
		relevant = true
	case "not-relevant", "no":
		relevant = false
	default:
		exitWithError("verdict must be 'relevant' or 'not-relevant', got %q", args[1])
	}

	key := models.ArticleKey(args[0])
	if err := dbClient.SetRating(cmd.Context(), key, relevant); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("no article found for %s, add it first", args[0])
		}
		return fmt.Errorf("rate article: %w", err)
	}

	fmt.Printf("Rated %s as %s.\n", args[0], args[1])
	fmt.Println("Ratings feed the next 'curio learn' run.")
	return nil
}

func runArticlesUnrate(cmd *cobra.Command, args []string) error {
	key := models.ArticleKey(args[0])
	if err := dbClient.ClearRating(cmd.Context(), key); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("no article found for %s", args[0])
		}
		return fmt.Errorf("clear rating: %w", err)
	}

	fmt.Printf("Cleared rating on %s.\n", args[0])
	return nil
}
