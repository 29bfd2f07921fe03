package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tracker/internal/auth"
	"github.com/mesh-intelligence/tracker/internal/issues"
	"github.com/mesh-intelligence/tracker/internal/sqlite"
	"github.com/mesh-intelligence/tracker/pkg/types"
)

func newIssueCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "List and edit issues",
	}
	cmd.AddCommand(
		newIssueListCmd(a),
		newIssueShowCmd(a),
		newIssueCreateCmd(a),
		newIssueUpdateCmd(a),
		newIssueDeleteCmd(a),
		newIssueStatusCmd(a),
		newIssueAssignCmd(a),
	)
	return cmd
}

// mutationError converts issues pipeline errors into CLI errors.
func mutationError(rawID string, err error) error {
	var verr *issues.ValidationError
	switch {
	case errors.As(err, &verr):
		return &userError{err: verr}
	case errors.Is(err, issues.ErrNotFound):
		return userErrorf("issue %s not found", rawID)
	default:
		return err
	}
}

// storeError converts store sentinels into CLI errors.
func storeError(what string, err error) error {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return userErrorf("%s not found", what)
	case errors.Is(err, types.ErrInvalidStatus), errors.Is(err, types.ErrInvalidUser),
		errors.Is(err, types.ErrDuplicateUser), errors.Is(err, types.ErrInvalidID):
		return userErrorf("%s: %w", what, err)
	default:
		return err
	}
}

func parseIssueID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, userErrorf("invalid issue id %q", raw)
	}
	return id, nil
}

func (a *app) printIssue(w io.Writer, is *types.Issue) error {
	if a.flags.jsonMode {
		return printJSON(w, is)
	}
	assignee := "-"
	if is.AssignedToUserID != nil {
		assignee = *is.AssignedToUserID
	}
	fmt.Fprintf(w, "#%d %s\n", is.ID, is.Title)
	fmt.Fprintf(w, "status:   %s\n", statusPainter(w)(is.Status))
	fmt.Fprintf(w, "assignee: %s\n", assignee)
	fmt.Fprintf(w, "created:  %s\n", is.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "updated:  %s\n", is.UpdatedAt.Format(time.RFC3339))
	if is.Description != "" {
		fmt.Fprintf(w, "\n%s\n", is.Description)
	}
	return nil
}

func newIssueListCmd(a *app) *cobra.Command {
	var p issues.Params
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List issues one page at a time",
		Long: `List issues with an optional status filter and sort key.

Status is one of OPEN, IN_PROGRESS, CLOSED, or All to print every issue
without paging. Sort keys are title, status, and createdAt.

Example:
  tracker issue list --status OPEN --order-by title --page 2
  tracker issue list --status All`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(func(b *sqlite.Backend) error {
				page, err := issues.NewResolver(b).List(cmd.Context(), p)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if a.flags.jsonMode {
					return printJSON(out, page)
				}
				paint := statusPainter(out)
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tSTATUS\tTITLE\tCREATED")
				for _, is := range page.Issues {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", is.ID, paint(is.Status), is.Title, is.CreatedAt.Format(time.DateOnly))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(out, "page %d of %d (%d issues)\n", page.Page, page.PageCount, page.Total)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&p.Status, "status", "", "status filter (OPEN, IN_PROGRESS, CLOSED, All)")
	cmd.Flags().StringVar(&p.OrderBy, "order-by", "", "sort key (title, status, createdAt)")
	cmd.Flags().StringVar(&p.Page, "page", "1", "page number")
	return cmd
}

func newIssueShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}
			return a.withBackend(func(b *sqlite.Backend) error {
				is, err := b.FindIssue(cmd.Context(), id)
				if err != nil {
					return storeError("issue "+args[0], err)
				}
				return a.printIssue(cmd.OutOrStdout(), is)
			})
		},
	}
}

// formBody encodes title and description as a mutation request body.
func formBody(title, description string) []byte {
	body, _ := json.Marshal(map[string]string{"title": title, "description": description})
	return body
}

func newIssueCreateCmd(a *app) *cobra.Command {
	var title, description string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an issue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(func(b *sqlite.Backend) error {
				h := issues.NewHandler(b, auth.Operator{}, nil)
				is, err := h.Create(cmd.Context(), formBody(title, description))
				if err != nil {
					return mutationError("", err)
				}
				return a.printIssue(cmd.OutOrStdout(), is)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "issue title")
	cmd.Flags().StringVar(&description, "description", "", "issue description")
	return cmd
}

func newIssueUpdateCmd(a *app) *cobra.Command {
	var title, description string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace the title and description of an issue",
		Long: `Update runs the same checks as PATCH /issues/{id}. A flag that is not
given keeps the issue's current value.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(func(b *sqlite.Backend) error {
				ctx := cmd.Context()
				if !cmd.Flags().Changed("title") || !cmd.Flags().Changed("description") {
					id, err := parseIssueID(args[0])
					if err != nil {
						return err
					}
					current, err := b.FindIssue(ctx, id)
					if err != nil {
						return storeError("issue "+args[0], err)
					}
					if !cmd.Flags().Changed("title") {
						title = current.Title
					}
					if !cmd.Flags().Changed("description") {
						description = current.Description
					}
				}

				h := issues.NewHandler(b, auth.Operator{}, nil)
				is, err := h.Update(ctx, args[0], formBody(title, description))
				if err != nil {
					return mutationError(args[0], err)
				}
				return a.printIssue(cmd.OutOrStdout(), is)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	return cmd
}

func newIssueDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an issue permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(func(b *sqlite.Backend) error {
				h := issues.NewHandler(b, auth.Operator{}, nil)
				if err := h.Delete(cmd.Context(), args[0]); err != nil {
					return mutationError(args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted issue %s\n", args[0])
				return nil
			})
		},
	}
}

func newIssueStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move an issue to OPEN, IN_PROGRESS or CLOSED",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}
			status := types.Status(strings.ToUpper(args[1]))
			return a.withBackend(func(b *sqlite.Backend) error {
				is, err := b.SetIssueStatus(cmd.Context(), id, status)
				if err != nil {
					return storeError("issue "+args[0], err)
				}
				return a.printIssue(cmd.OutOrStdout(), is)
			})
		},
	}
}

func newIssueAssignCmd(a *app) *cobra.Command {
	var unassign bool
	cmd := &cobra.Command{
		Use:   "assign <id> [user-id]",
		Short: "Assign an issue to a user, or clear it with --clear",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}
			var userID *string
			switch {
			case unassign:
			case len(args) == 2:
				userID = &args[1]
			default:
				return userErrorf("a user id or --clear is required")
			}
			return a.withBackend(func(b *sqlite.Backend) error {
				is, err := b.AssignIssue(cmd.Context(), id, userID)
				if err != nil {
					return storeError("issue "+args[0], err)
				}
				return a.printIssue(cmd.OutOrStdout(), is)
			})
		},
	}
	cmd.Flags().BoolVar(&unassign, "clear", false, "remove the assignee")
	return cmd
}
