package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var profileForce bool

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect or delete the preference profile",
	Long: `Show or delete the learned preference profile.

Examples:
  curio profile
  curio profile show
  curio profile delete --force`,
	RunE: runProfileShow,
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current profile",
	RunE:  runProfileShow,
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the profile so the next learning run starts fresh",
	RunE:  runProfileDelete,
}

func init() {
	profileDeleteCmd.Flags().BoolVarP(&profileForce, "force", "f", false, "skip confirmation")

	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileDeleteCmd)
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	profile, err := dbClient.GetProfile(cmd.Context())
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		fmt.Println("No profile yet. Rate some articles and run 'curio learn'.")
		return nil
	}

	fmt.Printf("Preference profile (created %s, updated %s)\n\n",
		profile.CreatedAt.Format(time.DateOnly),
		profile.LastUpdated.Format(time.DateTime))

	fmt.Printf("Likes (%d):\n", len(profile.Likes))
	for _, like := range profile.Likes {
		fmt.Printf("  + %s\n", like)
	}
	fmt.Printf("\nDislikes (%d):\n", len(profile.Dislikes))
	for _, dislike := range profile.Dislikes {
		fmt.Printf("  - %s\n", dislike)
	}
	fmt.Printf("\nLast change: %s\n", profile.Changelog)
	return nil
}

func runProfileDelete(cmd *cobra.Command, args []string) error {
	profile, err := dbClient.GetProfile(cmd.Context())
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		fmt.Println("No profile to delete.")
		return nil
	}

	if !profileForce {
		fmt.Print("Delete the learned profile? The next learning run starts from scratch. [y/N]: ")
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := dbClient.DeleteProfile(cmd.Context()); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	fmt.Println("Profile deleted.")
	return nil
}
