package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tracker/internal/sqlite"
)

func newSessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Issue and prune API session tokens",
	}
	cmd.AddCommand(newSessionCreateCmd(a), newSessionPruneCmd(a))
	return cmd
}

func newSessionCreateCmd(a *app) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "create <user-id>",
		Short: "Create a session token for a user",
		Long: `Create prints a token accepted by the API as
"Authorization: Bearer <token>" or in the session cookie.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl <= 0 {
				ttl = a.settings.SessionTTL
			}
			return a.withBackend(func(b *sqlite.Backend) error {
				s, err := b.CreateSession(cmd.Context(), args[0], ttl)
				if err != nil {
					return storeError("user "+args[0], err)
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), s)
				}
				fmt.Fprintln(cmd.OutOrStdout(), s.Token)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default: session_ttl)")
	return cmd
}

func newSessionPruneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete expired sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(func(b *sqlite.Backend) error {
				n, err := b.DeleteExpiredSessions(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired sessions\n", n)
				return nil
			})
		},
	}
}
