package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/fivetwenty-io/rundeck-admin/pkg/rundeck"
)

// PurgeCutoff returns midnight UTC daysToKeep days before now. Executions
// ending before it are purged.
func PurgeCutoff(now time.Time, daysToKeep int) time.Time {
	today := now.UTC()
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	return midnight.AddDate(0, 0, -daysToKeep)
}

// PurgeExecutions deletes, across every project of c, the executions that
// ended before PurgeCutoff. Ids are collected for all projects first and
// deleted in one chunked pass.
func (r *Runner) PurgeExecutions(ctx context.Context, c rundeck.Client, daysToKeep int) (rundeck.BatchResult, error) {
	const workflow = "purge-executions"

	if daysToKeep < 0 {
		return rundeck.BatchResult{}, fmt.Errorf("%w: %d", rundeck.ErrInvalidDaysToKeep, daysToKeep)
	}

	end := PurgeCutoff(r.now(), daysToKeep)
	base := Event{Workflow: workflow, Instance: c.Instance()}

	projects, err := c.Projects().ListNames(ctx)
	if err != nil {
		return rundeck.BatchResult{}, r.fail(ctx, base, err)
	}

	var ids []int64

	for _, project := range projects {
		projectIDs, listErr := c.Executions().ListIDs(ctx, project, &rundeck.ExecutionQuery{End: &end})
		if listErr != nil {
			event := base
			event.Project = project

			return rundeck.BatchResult{}, r.fail(ctx, event, listErr)
		}

		r.logger.Debug("executions selected for purge", map[string]interface{}{
			"project": project,
			"count":   len(projectIDs),
			"end":     end.Format(rundeck.ISO8601),
		})

		ids = append(ids, projectIDs...)
	}

	ids = rundeck.Dedupe(ids)

	result, err := c.Executions().Delete(ctx, ids)

	event := base
	event.Kind = EventExecutionsPurge
	event.Result = &result
	event.Message = fmt.Sprintf("Total executions: %d Success: %d Failed: %d",
		result.Requested, result.Succeeded, result.Failed)

	if err != nil {
		event.Error = err.Error()
	}

	r.emit(ctx, event)

	return result, err
}
