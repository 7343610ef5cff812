package commands

import (
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/rundeck-admin/pkg/rundeck"
)

const executionTimeLayout = "2006-01-02 15:04:05"

// NewExecutionsCommand creates the executions command group.
func NewExecutionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "executions",
		Aliases: []string{"execution", "exec"},
		Short:   "Manage execution history",
		Long:    "List and purge job executions",
	}

	cmd.AddCommand(newExecutionsListCommand())
	cmd.AddCommand(newExecutionsPurgeCommand())

	return cmd
}

func newExecutionsListCommand() *cobra.Command {
	query := rundeck.ExecutionQuery{Max: rundeck.DefaultPageSize}

	cmd := &cobra.Command{
		Use:   "list PROJECT_NAME",
		Short: "List executions",
		Long:  "List one page of executions of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			list, err := client.Executions().List(cmd.Context(), args[0], &query)
			if err != nil {
				return fmt.Errorf("failed to list executions: %w", err)
			}

			return writeOutput(cmd.OutOrStdout(), list, func(table *tablewriter.Table) error {
				for _, execution := range list.Executions {
					err := appendRow(table,
						fmt.Sprint(execution.ID),
						execution.Status,
						formatTime(execution.StartedAt),
						formatTime(execution.EndedAt),
					)
					if err != nil {
						return err
					}
				}

				return nil
			}, "ID", "Status", "Started", "Ended")
		},
	}

	cmd.Flags().IntVar(&query.Offset, "offset", 0, "index of the first execution")
	cmd.Flags().IntVar(&query.Max, "max", rundeck.DefaultPageSize, "page size")

	return cmd
}

func newExecutionsPurgeCommand() *cobra.Command {
	var daysToKeep int

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete old executions",
		Long:  "Delete, in every project, the executions that ended more than --days-to-keep days ago",
		Args:  cobra.NoArgs,
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

			result, err := runner.PurgeExecutions(cmd.Context(), client, daysToKeep)

			writeErr := writeOutput(cmd.OutOrStdout(), result, func(table *tablewriter.Table) error {
				return appendRow(table,
					fmt.Sprint(result.Requested),
					fmt.Sprint(result.Succeeded),
					fmt.Sprint(result.Failed),
				)
			}, "Total", "Success", "Failed")
			if writeErr != nil {
				return writeErr
			}

			if err != nil {
				return fmt.Errorf("failed to purge executions: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&daysToKeep, "days-to-keep", 0, "keep executions that ended within this many days")
	_ = cmd.MarkFlagRequired("days-to-keep")

	return cmd
}

func formatTime(value *time.Time) string {
	if value == nil {
		return ""
	}

	return value.Format(executionTimeLayout)
}
