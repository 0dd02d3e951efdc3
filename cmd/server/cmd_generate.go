package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"starconquest-server/internal/galaxy"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a galaxy document",
		Long: `Generate a random connected galaxy and write it as a JSON document that
"serve" and "catalog import" accept.

Examples:
  starconquest generate --seed 42 --output galaxy.json
  starconquest generate --profile wide.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profilePath, _ := cmd.Flags().GetString("profile")
			seed, _ := cmd.Flags().GetUint64("seed")
			output, _ := cmd.Flags().GetString("output")

			profile := galaxy.DefaultProfile()
			if profilePath != "" {
				var err error
				profile, err = galaxy.LoadProfile(profilePath)
				if err != nil {
					return err
				}
			}

			doc, err := galaxy.Generate(profile, galaxy.NewRand(seed))
			if err != nil {
				return fmt.Errorf("failed to generate galaxy: %w", err)
			}

			var out io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				out = f
			}

			if err := doc.Encode(out); err != nil {
				return fmt.Errorf("failed to write galaxy: %w", err)
			}

			if output != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Generated %d stars and %d connections into %s\n",
					len(doc.Points), len(doc.Connections), output)
			}
			return nil
		},
	}

	cmd.Flags().String("profile", "", "YAML generator profile (defaults to the built-in profile)")
	cmd.Flags().Uint64("seed", 1, "Random seed")
	cmd.Flags().StringP("output", "o", "", "Output file (defaults to stdout)")

	return cmd
}
