package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSuggestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <transaction-id>",
		Short: "Rank match candidates for a bank transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			suggestions, err := e.recon.Suggest(args[0])
			if err != nil {
				return fmt.Errorf("ranking candidates: %w", err)
			}

			if len(suggestions) == 0 {
				fmt.Println("No candidates within the matching window.")
				return nil
			}

			for i, s := range suggestions {
				fmt.Printf("%d. [%.2f] %s %s  %s %s (%s)\n",
					i+1,
					s.Confidence,
					s.Type,
					s.Candidate.ID,
					s.Candidate.Amount.StringFixed(2),
					s.Candidate.Name,
					s.Candidate.Date.Format("2006-01-02"),
				)
				if len(s.Reasons) > 0 {
					fmt.Printf("   %s\n", strings.Join(s.Reasons, ", "))
				}
			}
			return nil
		},
	}
}
