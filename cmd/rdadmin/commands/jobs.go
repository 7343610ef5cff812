package commands

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/rundeck-admin/internal/constants"
	"github.com/fivetwenty-io/rundeck-admin/pkg/rundeck"
)

// NewJobsCommand creates the jobs command group.
func NewJobsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "jobs",
		Aliases: []string{"job"},
		Short:   "Manage jobs",
		Long:    "List, run, delete, export, import and copy job definitions",
	}

	cmd.AddCommand(newJobsListCommand())
	cmd.AddCommand(newJobsRunCommand())
	cmd.AddCommand(newJobsDeleteByGroupCommand())
	cmd.AddCommand(newJobsExportCommand())
	cmd.AddCommand(newJobsImportCommand())
	cmd.AddCommand(newJobsCopyToProjectCommand())

	return cmd
}

func newJobsListCommand() *cobra.Command {
	var filter rundeck.JobFilter

	cmd := &cobra.Command{
		Use:   "list PROJECT_NAME",
		Short: "List jobs",
		Long:  "List the jobs of a project, optionally filtered by exact name or group path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			jobs, err := client.Jobs().List(cmd.Context(), args[0], &filter)
			if err != nil {
				return fmt.Errorf("failed to list jobs: %w", err)
			}

			return writeOutput(cmd.OutOrStdout(), jobs, func(table *tablewriter.Table) error {
				for _, job := range jobs {
					err := appendRow(table, job.ID, job.Group, job.Name, job.Description)
					if err != nil {
						return err
					}
				}

				return nil
			}, "ID", "Group", "Name", "Description")
		},
	}

	cmd.Flags().StringVar(&filter.Name, "name", "", "exact job name")
	cmd.Flags().StringVar(&filter.GroupPath, "group", "", "exact group path")

	return cmd
}

func newJobsRunCommand() *cobra.Command {
	var (
		project string
		name    string
		opts    rundeck.RunOptions
	)

	cmd := &cobra.Command{
		Use:   "run [JOB_ID]",
		Short: "Run a job",
		Long:  "Run a job by ID, or by exact name within --project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && (name == "" || project == "") {
				return constants.ErrJobNameOrIDRequired
			}

			client, err := createClient(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			var result *rundeck.RunResult

			if len(args) == 1 {
				result, err = client.Jobs().Run(cmd.Context(), args[0], &opts)
			} else {
				result, err = client.Jobs().RunByName(cmd.Context(), project, name, &opts)
			}

			if err != nil {
				return fmt.Errorf("failed to run job: %w", err)
			}

			return writeOutput(cmd.OutOrStdout(), result, func(table *tablewriter.Table) error {
				rows := [][]string{
					{"Execution", fmt.Sprint(result.ID)},
					{"Status", result.Status},
					{"Link", result.Permalink},
				}

				for _, row := range rows {
					err := appendRow(table, row...)
					if err != nil {
						return err
					}
				}

				return nil
			}, "Property", "Value")
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "project of the job when running by name")
	cmd.Flags().StringVar(&name, "name", "", "exact job name")
	cmd.Flags().StringVar(&opts.ArgString, "arg-string", "", "job options, e.g. \"-opt1 value\"")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "log level (DEBUG, VERBOSE, INFO, WARN, ERROR)")
	cmd.Flags().StringVar(&opts.AsUser, "as-user", "", "run as this user")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "node filter")

	return cmd
}

func newJobsDeleteByGroupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-by-group PROJECT_NAME GROUP_PATH",
		Short: "Delete every job of a group",
		Long:  "Delete every job whose group path is exactly GROUP_PATH",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[1] == "" {
				return rundeck.ErrGroupPathRequired
			}

			client, err := createClient(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			result, err := client.Jobs().DeleteByGroup(cmd.Context(), args[0], args[1])
			if result != nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d jobs were deleted successfully\n", result.Succeeded)
			}

			if err != nil {
				return fmt.Errorf("failed to delete jobs: %w", err)
			}

			return nil
		},
	}
}

func newJobsExportCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "export PROJECT_NAME",
		Short: "Export job definitions",
		Long:  "Write the job definitions of a project as YAML to --file, or to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			definitions, err := client.Jobs().Export(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to export jobs: %w", err)
			}

			if file == "" {
				_, err = cmd.OutOrStdout().Write(definitions)

				return err
			}

			err = os.WriteFile(file, definitions, constants.ArchiveFilePerm)
			if err != nil {
				return fmt.Errorf("failed to write %s: %w", file, err)
			}

			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "The file %s was created successfully\n", file)

			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "file to write")

	return cmd
}

func newJobsImportCommand() *cobra.Command {
	opts := rundeck.DefaultJobImportOptions()

	cmd := &cobra.Command{
		Use:   "import PROJECT_NAME FILE",
		Short: "Import job definitions",
		Long:  "Import YAML job definitions from FILE into a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// #nosec G304 -- the operator names the file
			definitions, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[1], err)
			}

			client, err := createClient(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			result, err := client.Jobs().Import(cmd.Context(), args[0], definitions, opts)
			if result != nil {
				writeErr := writeJobImport(cmd, result)
				if writeErr != nil {
					return writeErr
				}
			}

			if err != nil {
				return fmt.Errorf("failed to import jobs: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&opts.DupeOption, "dupe-option", opts.DupeOption, "existing jobs: skip, create or update")
	cmd.Flags().StringVar(&opts.UUIDOption, "uuid-option", opts.UUIDOption, "job UUIDs: preserve or remove")

	return cmd
}

func newJobsCopyToProjectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "copy-to-project SOURCE_PROJECT DESTINATION_PROJECT",
		Short: "Copy all jobs to another project",
		Long:  "Copy every job of SOURCE_PROJECT to DESTINATION_PROJECT, keeping the group hierarchy and creating new UUIDs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == args[1] {
				return constants.ErrSameSourceAndTarget
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

			result, err := runner.CopyJobs(cmd.Context(), client, args[0], args[1], staging)
			if result != nil {
				writeErr := writeJobImport(cmd, result)
				if writeErr != nil {
					return writeErr
				}
			}

			if err != nil {
				return fmt.Errorf("failed to copy jobs: %w", err)
			}

			return nil
		},
	}
}

func writeJobImport(cmd *cobra.Command, result *rundeck.JobImportResult) error {
	return writeOutput(cmd.OutOrStdout(), result, func(table *tablewriter.Table) error {
		sections := []struct {
			state   string
			entries []rundeck.JobImportEntry
		}{
			{"succeeded", result.Succeeded},
			{"failed", result.Failed},
			{"skipped", result.Skipped},
		}

		for _, section := range sections {
			for _, entry := range section.entries {
				err := appendRow(table, section.state, entry.Group, entry.Name, entry.Error)
				if err != nil {
					return err
				}
			}
		}

		return nil
	}, "State", "Group", "Name", "Error")
}
