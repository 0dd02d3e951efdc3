package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"starconquest-server/internal/journal"
)

func newJournalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect event journals",
	}
	cmd.AddCommand(newJournalVerifyCmd())
	return cmd
}

func newJournalVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Verify the hash chain of a journal",
		Long: `Decompress a journal and check that every record links to the one before
it. A journal that was cut short verifies up to its last complete record.

Examples:
  starconquest journal verify journal.lz4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			jsonOut, _ := cmd.Flags().GetBool("json")

			res, err := journal.VerifyFile(path)
			if err != nil {
				if jsonOut {
					if encErr := json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
						"file":    path,
						"valid":   false,
						"records": res.Records,
						"error":   err.Error(),
					}); encErr != nil {
						return encErr
					}
				}
				return fmt.Errorf("journal verification failed: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"file":    path,
					"valid":   true,
					"records": res.Records,
					"events":  res.Events,
					"head":    res.Head,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "OK: %d records, %d events\n", res.Records, res.Events)
			fmt.Fprintf(cmd.OutOrStdout(), "  File: %s\n", path)
			fmt.Fprintf(cmd.OutOrStdout(), "  Head: %s\n", res.Head)
			return nil
		},
	}
}
