package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/killergame/internal/api/response"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Commands acting as the --player",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return cfg.RequirePlayer()
		},
	}

	cmd.AddCommand(newPlayerActionCmd("touch", "Introduce the player to the game", "/api/v1/me/touch"))
	cmd.AddCommand(newPlayerRegisterCmd())
	cmd.AddCommand(newPlayerActionCmd("cancel", "Withdraw from the game", "/api/v1/me/cancel"))
	cmd.AddCommand(newPlayerActionCmd("cancel-confirm", "Confirm withdrawing during a round", "/api/v1/me/cancel/confirm"))
	cmd.AddCommand(newPlayerStatusCmd())
	cmd.AddCommand(newPlayerActionCmd("kill", "Report that you eliminated your target", "/api/v1/me/kill"))
	cmd.AddCommand(newPlayerActionCmd("confirm", "Confirm that you were eliminated", "/api/v1/me/kill/confirm"))
	cmd.AddCommand(newPlayerActionCmd("deny", "Deny a claim that you were eliminated", "/api/v1/me/kill/deny"))

	return cmd
}

// newPlayerActionCmd creates a command that posts to an action endpoint without a body
func newPlayerActionCmd(use, short, path string) *cobra.Command {
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

func newPlayerRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register <name>",
		Short: "Register for the next round, or rename",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"name": strings.Join(args, " ")}
			var result response.Result

			if err := client.Post(cmd.Context(), "/api/v1/me/register", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newPlayerStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the player's status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Status

			if err := client.Get(cmd.Context(), "/api/v1/me/status", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}
