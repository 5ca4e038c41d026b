package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/killergame/internal/api/response"
	"github.com/mcoot/killergame/internal/model"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Moderation commands, run as the --player",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return cfg.RequirePlayer()
		},
	}

	cmd.AddCommand(newAdminPostCmd("distribute", "Start a round with every waiting player", "/api/v1/admin/distribute"))
	cmd.AddCommand(newAdminPostCmd("reset", "Clear all targets and kills", "/api/v1/admin/reset"))
	cmd.AddCommand(newAdminGrantCmd(true))
	cmd.AddCommand(newAdminGrantCmd(false))
	cmd.AddCommand(newAdminRingCmd())

	return cmd
}

func newAdminPostCmd(use, short, path string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Result

			if err := client.Post(cmd.Context(), path, nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newAdminGrantCmd(grant bool) *cobra.Command {
	use, short := "grant <player-id>", "Make a player an admin"
	if !grant {
		use, short = "revoke <player-id>", "Remove a player's admin rights"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParsePlayerID(args[0])
			if err != nil {
				return fmt.Errorf("invalid player id %q", args[0])
			}

			path := "/api/v1/admin/admins/" + id.String()
			var result response.Result
			if grant {
				err = client.Put(cmd.Context(), path, &result)
			} else {
				err = client.Delete(cmd.Context(), path, &result)
			}
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newAdminRingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ring",
		Short: "Audit the target ring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.RingReport

			if err := client.Get(cmd.Context(), "/api/v1/admin/ring", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}
