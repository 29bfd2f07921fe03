package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tracker/internal/sqlite"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write every issue to a JSONL file",
		Long:  "Export writes one JSON object per issue. The default file is\nissues.jsonl in the data directory.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(func(b *sqlite.Backend) error {
				path := filepath.Join(b.DataDir(), sqlite.IssuesJSONL)
				if len(args) == 1 {
					path = args[0]
				}
				n, err := b.ExportIssues(cmd.Context(), path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d issues to %s\n", n, path)
				return nil
			})
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load issues from a JSONL export",
		Long:  "Import inserts issues with their original ids. Records whose id\nalready exists, or that fail to parse, are skipped.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(func(b *sqlite.Backend) error {
				n, err := b.ImportIssues(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d issues from %s\n", n, args[0])
				return nil
			})
		},
	}
}
