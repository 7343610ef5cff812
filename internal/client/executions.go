package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/araddon/dateparse"

	internalhttp "github.com/fivetwenty-io/rundeck-admin/internal/http"
	"github.com/fivetwenty-io/rundeck-admin/pkg/rundeck"
)

// ExecutionsClient implements rundeck.ExecutionsClient.
type ExecutionsClient struct {
	httpClient *internalhttp.Client
	pageSize   int
	chunkSize  int
}

// NewExecutionsClient creates a new executions client.
func NewExecutionsClient(httpClient *internalhttp.Client) *ExecutionsClient {
	return &ExecutionsClient{
		httpClient: httpClient,
		pageSize:   rundeck.DefaultPageSize,
		chunkSize:  rundeck.DefaultChunkSize,
	}
}

type executionDate struct {
	UnixTime int64  `json:"unixtime"`
	Date     string `json:"date"`
}

// executionWire is the execution shape on the wire. Items without an id
// decode with a nil ID and are skipped by enumeration.
type executionWire struct {
	ID          *int64         `json:"id"`
	Status      string         `json:"status"`
	Project     string         `json:"project"`
	Href        string         `json:"href"`
	DateStarted *executionDate `json:"date-started"`
	DateEnded   *executionDate `json:"date-ended"`
}

type executionListWire struct {
	Paging     *rundeck.Paging `json:"paging"`
	Executions []executionWire `json:"executions"`
}

func parseExecutionDate(date *executionDate) *time.Time {
	if date == nil {
		return nil
	}

	if date.Date != "" {
		parsed, err := dateparse.ParseIn(date.Date, time.UTC)
		if err == nil {
			return &parsed
		}
	}

	if date.UnixTime > 0 {
		parsed := time.UnixMilli(date.UnixTime).UTC()

		return &parsed
	}

	return nil
}

func (w executionWire) toExecution() rundeck.Execution {
	execution := rundeck.Execution{
		Status:    w.Status,
		Project:   w.Project,
		Href:      w.Href,
		StartedAt: parseExecutionDate(w.DateStarted),
		EndedAt:   parseExecutionDate(w.DateEnded),
	}

	if w.ID != nil {
		execution.ID = *w.ID
	}

	return execution
}

func (c *ExecutionsClient) listPage(ctx context.Context, project string, query *rundeck.ExecutionQuery) (*executionListWire, error) {
	if project == "" {
		return nil, rundeck.ErrProjectNameRequired
	}

	resp, err := c.httpClient.Get(ctx, projectPath(project, "/executions"), query.ToParams())
	if err != nil {
		return nil, fmt.Errorf("listing executions in project %s: %w", project, err)
	}

	var page executionListWire

	err = json.Unmarshal(resp.Body, &page)
	if err != nil {
		return nil, fmt.Errorf("parsing executions list: %w", err)
	}

	if page.Paging == nil {
		return nil, fmt.Errorf("%w: executions list without paging", rundeck.ErrUnexpectedResponse)
	}

	return &page, nil
}

// List implements rundeck.ExecutionsClient.List. It returns one page.
func (c *ExecutionsClient) List(ctx context.Context, project string, query *rundeck.ExecutionQuery) (*rundeck.ExecutionList, error) {
	page, err := c.listPage(ctx, project, query)
	if err != nil {
		return nil, err
	}

	list := &rundeck.ExecutionList{
		Paging:     *page.Paging,
		Executions: make([]rundeck.Execution, 0, len(page.Executions)),
	}

	for _, wire := range page.Executions {
		list.Executions = append(list.Executions, wire.toExecution())
	}

	return list, nil
}

// ListIDs implements rundeck.ExecutionsClient.ListIDs. It walks every page
// matching query; query.Offset and query.Max are ignored.
func (c *ExecutionsClient) ListIDs(ctx context.Context, project string, query *rundeck.ExecutionQuery) ([]int64, error) {
	var end *time.Time
	if query != nil {
		end = query.End
	}

	fetch := func(ctx context.Context, offset, limit int) (*rundeck.Page[executionWire], error) {
		page, err := c.listPage(ctx, project, &rundeck.ExecutionQuery{Offset: offset, Max: limit, End: end})
		if err != nil {
			return nil, err
		}

		return &rundeck.Page[executionWire]{Items: page.Executions, Paging: *page.Paging}, nil
	}

	ids, _, err := rundeck.EnumerateIDs(ctx, fetch, func(wire executionWire) (int64, bool) {
		if wire.ID == nil {
			return 0, false
		}

		return *wire.ID, true
	}, c.pageSize)
	if err != nil {
		return ids, fmt.Errorf("enumerating executions in project %s: %w", project, err)
	}

	return ids, nil
}

// DeleteBatch implements rundeck.ExecutionsClient.DeleteBatch.
func (c *ExecutionsClient) DeleteBatch(ctx context.Context, ids []int64) (*rundeck.BulkDeleteResponse, error) {
	resp, err := c.httpClient.Post(ctx, apiPath("/executions/delete"), map[string][]int64{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("deleting executions: %w", err)
	}

	var bulk rundeck.BulkDeleteResponse

	err = json.Unmarshal(resp.Body, &bulk)
	if err != nil {
		return nil, fmt.Errorf("parsing bulk delete response: %w", err)
	}

	return &bulk, nil
}

// Delete implements rundeck.ExecutionsClient.Delete. Ids are sent in chunks
// and a failed chunk does not stop the rest.
func (c *ExecutionsClient) Delete(ctx context.Context, ids []int64) (rundeck.BatchResult, error) {
	return rundeck.DeleteInChunks(ctx, ids, c.chunkSize, c.DeleteBatch)
}
