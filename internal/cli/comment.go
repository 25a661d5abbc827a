package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/issue-tracker/internal/comment"
)

func newCommentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Add, edit or delete issue comments",
	}

	cmd.AddCommand(newCommentAddCmd(), newCommentEditCmd(), newCommentDeleteCmd())
	return cmd
}

func newCommentAddCmd() *cobra.Command {
	var creator string

	cmd := &cobra.Command{
		Use:   `add <issue-id> "text"`,
		Short: "Add a comment to an issue",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			issueID, err := parseID(args[0], "issue")
			if err != nil {
				return err
			}
			text, err := joinText(args[1:])
			if err != nil {
				return err
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			c := &comment.Comment{Body: text, Creator: creator, IssueID: issueID}
			if err := s.comments.Add(cmd.Context(), c); err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), c)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Comment added to issue #%d.\n  %s\n", issueID, text)
			return nil
		},
	}

	cmd.Flags().StringVar(&creator, "creator", defaultCreator(), "name recorded as the comment's creator")
	return cmd
}

func newCommentEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   `edit <comment-id> "text"`,
		Short: "Replace the text of a comment",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "comment")
			if err != nil {
				return err
			}
			text, err := joinText(args[1:])
			if err != nil {
				return err
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.comments.Edit(cmd.Context(), &comment.Comment{ID: id, Body: text}); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Edit applied to comment #%d (ignored if it does not exist).\n", id)
			return nil
		},
	}
}

func newCommentDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <comment-id>",
		Short: "Delete a comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "comment")
			if err != nil {
				return err
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.comments.DeleteByID(cmd.Context(), id); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Comment #%d deleted.\n", id)
			return nil
		},
	}
}

// parseID parses a positive numeric ID argument.
func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID: %s", what, arg)
	}
	return id, nil
}

// joinText joins the remaining args into comment text.
func joinText(args []string) (string, error) {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return "", fmt.Errorf("comment text is required")
	}
	return text, nil
}
