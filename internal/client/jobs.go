package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/fivetwenty-io/rundeck-admin/internal/constants"
	internalhttp "github.com/fivetwenty-io/rundeck-admin/internal/http"
	"github.com/fivetwenty-io/rundeck-admin/pkg/rundeck"
)

// JobsClient implements rundeck.JobsClient.
type JobsClient struct {
	httpClient *internalhttp.Client
}

// NewJobsClient creates a new jobs client.
func NewJobsClient(httpClient *internalhttp.Client) *JobsClient {
	return &JobsClient{httpClient: httpClient}
}

// List implements rundeck.JobsClient.List.
func (c *JobsClient) List(ctx context.Context, project string, filter *rundeck.JobFilter) ([]rundeck.Job, error) {
	if project == "" {
		return nil, rundeck.ErrProjectNameRequired
	}

	resp, err := c.httpClient.Get(ctx, projectPath(project, "/jobs"), filter.ToParams())
	if err != nil {
		return nil, fmt.Errorf("listing jobs in project %s: %w", project, err)
	}

	var jobs []rundeck.Job

	err = json.Unmarshal(resp.Body, &jobs)
	if err != nil {
		return nil, fmt.Errorf("parsing jobs list: %w", err)
	}

	return jobs, nil
}

// ListIDs implements rundeck.JobsClient.ListIDs.
func (c *JobsClient) ListIDs(ctx context.Context, project string, filter *rundeck.JobFilter) ([]string, error) {
	jobs, err := c.List(ctx, project, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(jobs))
	for _, job := range jobs {
		if job.ID != "" {
			ids = append(ids, job.ID)
		}
	}

	return ids, nil
}

// FindOne implements rundeck.JobsClient.FindOne. Anything but exactly one
// match is an *rundeck.AmbiguousMatchError.
func (c *JobsClient) FindOne(ctx context.Context, project, name string) (string, error) {
	if name == "" {
		return "", rundeck.ErrJobNameRequired
	}

	ids, err := c.ListIDs(ctx, project, &rundeck.JobFilter{Name: name})
	if err != nil {
		return "", err
	}

	if len(ids) != 1 {
		return "", &rundeck.AmbiguousMatchError{Project: project, Name: name, Count: len(ids)}
	}

	return ids[0], nil
}

// Run implements rundeck.JobsClient.Run. The execution is started and not
// awaited.
func (c *JobsClient) Run(ctx context.Context, id string, opts *rundeck.RunOptions) (*rundeck.RunResult, error) {
	if id == "" {
		return nil, rundeck.ErrJobIDRequired
	}

	_, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", rundeck.ErrInvalidJobID, id, err)
	}

	if opts == nil {
		opts = &rundeck.RunOptions{}
	}

	resp, err := c.httpClient.Post(ctx, apiPath("/job/%s/run", url.PathEscape(id)), opts)
	if err != nil {
		return nil, fmt.Errorf("running job %s: %w", id, err)
	}

	var result rundeck.RunResult

	err = json.Unmarshal(resp.Body, &result)
	if err != nil {
		return nil, fmt.Errorf("parsing run result: %w", err)
	}

	return &result, nil
}

// RunByName implements rundeck.JobsClient.RunByName.
func (c *JobsClient) RunByName(ctx context.Context, project, name string, opts *rundeck.RunOptions) (*rundeck.RunResult, error) {
	id, err := c.FindOne(ctx, project, name)
	if err != nil {
		return nil, err
	}

	return c.Run(ctx, id, opts)
}

// Delete implements rundeck.JobsClient.Delete. All ids go in one request.
// Server-reported failures are returned as an *rundeck.DeleteError next to
// the counts.
func (c *JobsClient) Delete(ctx context.Context, ids []string) (*rundeck.BatchResult, error) {
	result := &rundeck.BatchResult{}
	if len(ids) == 0 {
		return result, nil
	}

	resp, err := c.httpClient.Post(ctx, apiPath("/jobs/delete"), map[string][]string{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("deleting jobs: %w", err)
	}

	var bulk rundeck.BulkDeleteResponse

	err = json.Unmarshal(resp.Body, &bulk)
	if err != nil {
		return nil, fmt.Errorf("parsing delete response: %w", err)
	}

	result.Add(&bulk)

	if bulk.FailedCount > 0 || len(bulk.Failures) > 0 {
		return result, &rundeck.DeleteError{
			Requested: bulk.RequestCount,
			Failed:    bulk.FailedCount,
			Failures:  bulk.Failures,
		}
	}

	return result, nil
}

// DeleteByGroup implements rundeck.JobsClient.DeleteByGroup. An empty group
// is rejected since the listing would otherwise match every job.
func (c *JobsClient) DeleteByGroup(ctx context.Context, project, group string) (*rundeck.BatchResult, error) {
	if group == "" {
		return nil, rundeck.ErrGroupPathRequired
	}

	ids, err := c.ListIDs(ctx, project, &rundeck.JobFilter{GroupPath: group})
	if err != nil {
		return nil, err
	}

	return c.Delete(ctx, ids)
}

// Export implements rundeck.JobsClient.Export. Definitions come back as YAML.
func (c *JobsClient) Export(ctx context.Context, project string) ([]byte, error) {
	if project == "" {
		return nil, rundeck.ErrProjectNameRequired
	}

	data, err := c.httpClient.Download(ctx, projectPath(project, "/jobs/export"),
		map[string]string{"format": "yaml"}, constants.ContentTypeYAML)
	if err != nil {
		return nil, fmt.Errorf("exporting jobs of project %s: %w", project, err)
	}

	return data, nil
}

// Import implements rundeck.JobsClient.Import. Any failed or skipped entry
// makes the import an *rundeck.ImportError.
func (c *JobsClient) Import(
	ctx context.Context,
	project string,
	definitions []byte,
	opts *rundeck.JobImportOptions,
) (*rundeck.JobImportResult, error) {
	if project == "" {
		return nil, rundeck.ErrProjectNameRequired
	}

	if opts == nil {
		opts = rundeck.DefaultJobImportOptions()
	}

	resp, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method: http.MethodPost,
		Path:   projectPath(project, "/jobs/import"),
		Query: map[string]string{
			"dupeOption": opts.DupeOption,
			"uuidOption": opts.UUIDOption,
		},
		RawBody:     definitions,
		ContentType: constants.ContentTypeYAML,
	})
	if err != nil {
		return nil, fmt.Errorf("importing jobs into project %s: %w", project, err)
	}

	var result rundeck.JobImportResult

	err = json.Unmarshal(resp.Body, &result)
	if err != nil {
		return nil, fmt.Errorf("parsing job import result: %w", err)
	}

	if len(result.Failed) > 0 || len(result.Skipped) > 0 {
		messages := make([]string, 0, len(result.Failed))
		for _, entry := range result.Failed {
			if entry.Error != "" {
				messages = append(messages, entry.Name+": "+entry.Error)
			}
		}

		return &result, &rundeck.ImportError{
			Project:   project,
			Succeeded: len(result.Succeeded),
			Failed:    len(result.Failed),
			Skipped:   len(result.Skipped),
			Messages:  messages,
		}
	}

	return &result, nil
}
