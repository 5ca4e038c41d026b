package cli

import (
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/killergame/internal/services/auth"
)

func newHashKeyCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-key [key]",
		Short: "Hash an API key for API_KEY_HASHES, generating one if none is given",
		Long: `Prints an API key together with its bcrypt hash.

Put the hash into the server's API_KEY_HASHES and hand the key to the adapter.
This command runs locally and does not contact the server.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				generated, err := auth.GenerateKey()
				if err != nil {
					return err
				}
				key = generated
			}

			hash, err := auth.HashKey(key, cost)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(HashKeyResult{Key: key, Hash: hash})
			return nil
		},
	}

	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")

	return cmd
}
