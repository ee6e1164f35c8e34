package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/curiolabs/curio-go/internal/learner"
)

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Build or evolve the preference profile from your ratings",
	Long: `Learn runs one learning pass: it collects every rated article, checks
that both sides of the signal are present (at least 2 relevant and 2 not
relevant), and asks the capable model to create or evolve your profile.

Examples:
  curio learn`,
	RunE: runLearn,
}

func runLearn(cmd *cobra.Command, args []string) error {
	o, err := getLearner()
	if err != nil {
		return err
	}

	result, err := o.Run(cmd.Context())
	if err != nil {
		if errors.Is(err, learner.ErrLearningInProgress) {
			return fmt.Errorf("a learning run is already in progress")
		}
		return err
	}

	switch result.Status {
	case learner.StatusSaved:
		fmt.Printf("Profile saved (run %s).\n\n", result.RunID)
		fmt.Printf("  Likes:    %d\n", len(result.Profile.Likes))
		fmt.Printf("  Dislikes: %d\n", len(result.Profile.Dislikes))
		fmt.Printf("  Changelog: %s\n", result.Profile.Changelog)

	case learner.StatusInsufficientData:
		fmt.Printf("Not enough ratings yet: %d relevant, %d not relevant.\n",
			result.RelevantCount, result.NotRelevantCount)
		fmt.Printf("Rate at least %d relevant and %d not relevant articles, then try again.\n",
			learner.MinRelevantExamples, learner.MinNotRelevantExamples)

	case learner.StatusFailed:
		return fmt.Errorf("learning run %s failed: %w", result.RunID, result.Err)
	}

	return nil
}
