package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/rundeck-admin/internal/constants"
	"github.com/fivetwenty-io/rundeck-admin/pkg/rdclient"
	"github.com/fivetwenty-io/rundeck-admin/pkg/workflow"
)

// NewProjectsCommand creates the projects command group.
func NewProjectsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Manage projects",
		Long:    "List, create, delete, export and import Rundeck projects and move them between instances",
	}

	cmd.AddCommand(newProjectsListCommand())
	cmd.AddCommand(newProjectsCreateCommand())
	cmd.AddCommand(newProjectsDeleteCommand())
	cmd.AddCommand(newProjectsExportCommand())
	cmd.AddCommand(newProjectsImportCommand())
	cmd.AddCommand(newProjectsBackupCommand())
	cmd.AddCommand(newProjectsRestoreCommand())
	cmd.AddCommand(newProjectsReplicateCommand())
	cmd.AddCommand(newProjectsPromoteCommand())
	cmd.AddCommand(newProjectsUnzipToRepoCommand())
	cmd.AddCommand(newProjectsZipDirsCommand())
	cmd.AddCommand(newProjectsConfigCommand())

	return cmd
}

func newProjectsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Long:  "List all projects of the instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			projects, err := client.Projects().List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list projects: %w", err)
			}

			return writeOutput(cmd.OutOrStdout(), projects, func(table *tablewriter.Table) error {
				for _, project := range projects {
					err := appendRow(table, project.Name, project.Description)
					if err != nil {
						return err
					}
				}

				return nil
			}, "Name", "Description")
		},
	}
}

func newProjectsCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create PROJECT_NAME",
		Short: "Create a project",
		Long:  "Create an empty project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			err = client.Projects().Create(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to create project: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Project %s created\n", args[0])

			return nil
		},
	}
}

func newProjectsDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete PROJECT_NAME",
		Short: "Delete a project",
		Long:  "Delete a project with all its jobs and execution history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Really delete project %s? (y/N): ", args[0])

				var answer string

				_, _ = fmt.Fscanln(cmd.InOrStdin(), &answer)
				if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled")

					return nil
				}
			}

			client, err := createClient(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			err = client.Projects().Delete(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to delete project: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Project %s deleted\n", args[0])

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "delete without confirmation")

	return cmd
}

func newProjectsExportCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export [PROJECT_NAME...]",
		Short: "Export projects to zip files",
		Long:  "Export the named projects, or every project, to <dir>/<project>.zip",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			runner, closeRunner, err := newRunner(cmd)
			if err != nil {
				return err
			}
			defer closeRunner()

			written, err := runner.ExportProjects(cmd.Context(), client, dir, args...)
			if err != nil {
				return fmt.Errorf("failed to export projects: %w", err)
			}

			return writePaths(cmd, written)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory to write archives to")

	return cmd
}

func newProjectsImportCommand() *cobra.Command {
	var (
		keepExisting     bool
		skipExecutions   bool
		rollbackDir      string
		selectedProjects []string
	)

	cmd := &cobra.Command{
		Use:   "import DIR",
		Short: "Import project zip files",
		Long: `Import every <project>.zip in DIR. Existing projects are deleted first
unless --keep-existing is given; with --rollback-dir they are snapshotted and
restored when their import fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			runner, closeRunner, err := newRunner(cmd)
			if err != nil {
				return err
			}
			defer closeRunner()

			imported, err := runner.ImportProjects(cmd.Context(), client, args[0], workflow.ImportProjectOptions{
				DeleteExisting:   !keepExisting,
				ImportExecutions: !skipExecutions,
				RollbackDir:      rollbackDir,
				Projects:         selectedProjects,
			})
			if err != nil {
				return fmt.Errorf("failed to import projects: %w", err)
			}

			return writeNames(cmd, "Project", imported)
		},
	}

	cmd.Flags().BoolVar(&keepExisting, "keep-existing", false, "import over existing projects instead of deleting them")
	cmd.Flags().BoolVar(&skipExecutions, "skip-executions", false, "do not import execution history")
	cmd.Flags().StringVar(&rollbackDir, "rollback-dir", "", "snapshot deleted projects here and restore them on failure")
	cmd.Flags().StringSliceVarP(&selectedProjects, "project", "p", nil, "only import these projects")

	return cmd
}

func newProjectsBackupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backup-to-file FILE",
		Short: "Back up all projects to one zip file",
		Long:  "Export every project and pack the archives into a single zip file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			runner, closeRunner, err := newRunner(cmd)
			if err != nil {
				return err
			}
			defer closeRunner()

			staging, cleanup, err := stagingDir()
			if err != nil {
				return err
			}
			defer cleanup()

			written, err := runner.BackupToFile(cmd.Context(), client, staging, args[0])
			if err != nil {
				return fmt.Errorf("failed to back up projects: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Backed up %d projects to %s\n", len(written), args[0])

			return nil
		},
	}
}

func newProjectsRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore-from-file FILE",
		Short: "Restore projects from a backup file",
		Long:  "Restore every project of a zip file written by backup-to-file, replacing existing projects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := os.Stat(args[0])
			if err != nil {
				return fmt.Errorf("failed to read backup: %w", err)
			}

			client, err := createClient(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			runner, closeRunner, err := newRunner(cmd)
			if err != nil {
				return err
			}
			defer closeRunner()

			staging, cleanup, err := stagingDir()
			if err != nil {
				return err
			}
			defer cleanup()

			restored, err := runner.RestoreFromFile(cmd.Context(), client, args[0], staging)
			if err != nil {
				return fmt.Errorf("failed to restore projects: %w", err)
			}

			return writeNames(cmd, "Project", restored)
		},
	}
}

func writePaths(cmd *cobra.Command, paths []string) error {
	return writeNames(cmd, "File", paths)
}

func writeNames(cmd *cobra.Command, header string, names []string) error {
	return writeOutput(cmd.OutOrStdout(), names, func(table *tablewriter.Table) error {
		for _, name := range names {
			err := appendRow(table, name)
			if err != nil {
				return err
			}
		}

		return nil
	}, header)
}

// ensureDistinct rejects transfers from an instance onto itself.
func ensureDistinct(source, destination string) error {
	if strings.EqualFold(rdclient.NormalizeEndpoint(source), rdclient.NormalizeEndpoint(destination)) {
		return constants.ErrSameSourceAndTarget
	}

	return nil
}
