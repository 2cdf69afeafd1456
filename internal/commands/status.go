package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand() *cobra.Command {
	var showErrors bool

	cmd := &cobra.Command{
		Use:   "status <import-id>",
		Short: "Show an import's lifecycle state and row counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			imp, err := e.imports.Get(args[0])
			if err != nil {
				return fmt.Errorf("loading import: %w", err)
			}

			fmt.Printf("Import %s\n", imp.ID)
			fmt.Printf("  file:       %s (%s, %s)\n", imp.FileName, imp.FileType, imp.SourceBank)
			fmt.Printf("  business:   %s\n", imp.BusinessID)
			fmt.Printf("  status:     %s\n", imp.Status)
			fmt.Printf("  uploaded:   %s\n", imp.UploadedAt.Format("2006-01-02 15:04:05"))
			if imp.ProcessedAt != nil {
				fmt.Printf("  processed:  %s\n", imp.ProcessedAt.Format("2006-01-02 15:04:05"))
			}
			fmt.Printf("  rows:       %d total, %d processed, %d errors\n", imp.TotalRows, imp.ProcessedRows, imp.ErrorRows)
			fmt.Printf("  matched:    %d, unmatched: %d\n", imp.MatchedRows, imp.UnmatchedRows)
			if imp.ErrorMessage != nil {
				fmt.Printf("  error:      %s\n", *imp.ErrorMessage)
			}

			if showErrors && len(imp.RowErrors) > 0 {
				fmt.Println("  row errors:")
				for _, re := range imp.RowErrors {
					fmt.Printf("    row %d [%s]: %s\n", re.Row, re.Column, re.Reason)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showErrors, "errors", false, "list per-row parse errors")

	return cmd
}
