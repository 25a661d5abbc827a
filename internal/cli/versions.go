package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/issue-tracker/internal/version"
)

func newVersionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List or add project versions",
	}

	cmd.AddCommand(newVersionsListCmd(), newVersionsAddCmd())
	return cmd
}

func newVersionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <project-id>",
		Short: "List the versions of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			versions, err := s.versions.ListByProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), versions)
			}
			return printVersionTable(cmd.OutOrStdout(), versions)
		},
	}
}

func newVersionsAddCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "add <project-id> <name>",
		Short: "Add a version to a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			v := &version.Version{ID: id, ProjectID: args[0], Name: args[1]}
			newID, err := s.versions.Add(cmd.Context(), v)
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]string{"id": newID})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Version %s added to %s (id %s).\n", v.Name, v.ProjectID, newID)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "version ID (default: generated UUID)")
	return cmd
}
