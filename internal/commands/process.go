package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProcessCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "process <import-id>",
		Short: "Run the import batch for a mapped statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			imp, err := e.imports.Process(args[0])
			if err != nil {
				return fmt.Errorf("processing import: %w", err)
			}

			fmt.Printf("Import %s: %s\n", imp.ID, imp.Status)
			fmt.Printf("  total rows:     %d\n", imp.TotalRows)
			fmt.Printf("  processed rows: %d\n", imp.ProcessedRows)
			fmt.Printf("  error rows:     %d\n", imp.ErrorRows)
			return nil
		},
	}
}
