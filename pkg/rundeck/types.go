package rundeck

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Project represents a Rundeck project.
type Project struct {
	Name        string `json:"name"                  yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	URL         string `json:"url,omitempty"         yaml:"url,omitempty"`
}

// ImportOptions selects what a project archive import restores.
type ImportOptions struct {
	// PreserveJobUUIDs keeps the job UUIDs stored in the archive.
	PreserveJobUUIDs bool
	// ImportExecutions restores the execution history.
	ImportExecutions bool
	// ImportConfig restores the project configuration.
	ImportConfig bool
	// ImportACL restores the project ACL policies.
	ImportACL bool
}

// DefaultImportOptions returns the options used for full project restores.
func DefaultImportOptions() *ImportOptions {
	return &ImportOptions{
		PreserveJobUUIDs: true,
		ImportExecutions: true,
		ImportConfig:     true,
		ImportACL:        true,
	}
}

// ImportStatus is the server's answer to a project archive import.
type ImportStatus struct {
	Status string   `json:"import_status" yaml:"import_status"`
	Errors []string `json:"errors"        yaml:"errors,omitempty"`
}

// Successful reports whether the import landed.
func (s *ImportStatus) Successful() bool {
	return s.Status == ImportStatusSuccessful
}

// ImportStatusSuccessful is the only import status treated as success.
const ImportStatusSuccessful = "successful"

// Job represents a job definition summary.
type Job struct {
	ID          string `json:"id"                    yaml:"id"`
	Name        string `json:"name"                  yaml:"name"`
	Group       string `json:"group,omitempty"       yaml:"group,omitempty"`
	Project     string `json:"project"               yaml:"project"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Href        string `json:"href,omitempty"        yaml:"href,omitempty"`
}

// JobFilter is an exact-match predicate on job name or group path.
type JobFilter struct {
	Name      string
	GroupPath string
}

// ToParams converts the filter to query parameters.
func (f *JobFilter) ToParams() map[string]string {
	params := map[string]string{}
	if f == nil {
		return params
	}

	if f.Name != "" {
		params["jobExactFilter"] = f.Name
	}

	if f.GroupPath != "" {
		params["groupPathExact"] = f.GroupPath
	}

	return params
}

// RunOptions are passed through to the job run endpoint.
type RunOptions struct {
	ArgString string `json:"argString,omitempty"`
	LogLevel  string `json:"loglevel,omitempty"`
	AsUser    string `json:"asUser,omitempty"`
	Filter    string `json:"filter,omitempty"`
}

// RunResult describes the execution started by a job run.
type RunResult struct {
	ID        int64  `json:"id"                  yaml:"id"`
	Status    string `json:"status"              yaml:"status"`
	Href      string `json:"href"                yaml:"href"`
	Permalink string `json:"permalink,omitempty" yaml:"permalink,omitempty"`
}

// JobImportOptions control how job definitions are merged.
type JobImportOptions struct {
	// DupeOption is one of "skip", "create" or "update".
	DupeOption string
	// UUIDOption is "preserve" or "remove".
	UUIDOption string
}

// DefaultJobImportOptions updates existing jobs and assigns new UUIDs.
func DefaultJobImportOptions() *JobImportOptions {
	return &JobImportOptions{
		DupeOption: "update",
		UUIDOption: "remove",
	}
}

// JobImportEntry is one job reported by the job import endpoint.
type JobImportEntry struct {
	Index   int    `json:"index"             yaml:"index"`
	ID      string `json:"id,omitempty"      yaml:"id,omitempty"`
	Name    string `json:"name"              yaml:"name"`
	Group   string `json:"group,omitempty"   yaml:"group,omitempty"`
	Project string `json:"project,omitempty" yaml:"project,omitempty"`
	Error   string `json:"error,omitempty"   yaml:"error,omitempty"`
}

// JobImportResult is the server's answer to a job definitions import.
type JobImportResult struct {
	Succeeded []JobImportEntry `json:"succeeded" yaml:"succeeded"`
	Failed    []JobImportEntry `json:"failed"    yaml:"failed"`
	Skipped   []JobImportEntry `json:"skipped"   yaml:"skipped"`
}

// Names returns the names of the successfully imported jobs.
func (r *JobImportResult) Names() []string {
	names := make([]string, 0, len(r.Succeeded))
	for _, entry := range r.Succeeded {
		names = append(names, entry.Name)
	}

	return names
}

// Execution represents one job execution.
type Execution struct {
	ID        int64      `json:"id"                   yaml:"id"`
	Status    string     `json:"status"               yaml:"status"`
	Project   string     `json:"project"              yaml:"project"`
	Href      string     `json:"href,omitempty"       yaml:"href,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"   yaml:"ended_at,omitempty"`
}

// ExecutionQuery filters the execution listing.
type ExecutionQuery struct {
	Offset int
	Max    int
	// End selects executions that ended before this instant.
	End *time.Time
}

// ISO8601 is the date-time layout expected by the execution query endpoint.
const ISO8601 = "2006-01-02T15:04:05Z"

// ToParams converts the query to query parameters.
func (q *ExecutionQuery) ToParams() map[string]string {
	params := map[string]string{}
	if q == nil {
		return params
	}

	params["offset"] = strconv.Itoa(q.Offset)
	if q.Max > 0 {
		params["max"] = strconv.Itoa(q.Max)
	}

	if q.End != nil {
		params["end"] = q.End.UTC().Format(ISO8601)
	}

	return params
}

// Paging is the page metadata returned with a listing.
type Paging struct {
	Count  int  `json:"count"           yaml:"count"`
	Total  *int `json:"total,omitempty" yaml:"total,omitempty"`
	Offset int  `json:"offset"          yaml:"offset"`
	Max    int  `json:"max"             yaml:"max"`
}

// Remaining returns how many items the server still holds past this page.
// Without a total, the page count stands in for it so enumeration stops on
// the first empty page.
func (p Paging) Remaining() int {
	if p.Total == nil {
		return p.Count
	}

	remaining := *p.Total - (p.Offset + p.Count)
	if remaining < 0 {
		return 0
	}

	return remaining
}

// ExecutionList is one page of executions.
type ExecutionList struct {
	Paging     Paging      `json:"paging"     yaml:"paging"`
	Executions []Execution `json:"executions" yaml:"executions"`
}

// FlexibleID accepts both string and numeric ids on the wire.
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*id = FlexibleID(text)

		return nil
	}

	var number json.Number

	err := json.Unmarshal(data, &number)
	if err != nil {
		return fmt.Errorf("decoding id %s: %w", string(data), err)
	}

	*id = FlexibleID(number.String())

	return nil
}

// BulkDeleteFailure describes one id the server refused to delete.
type BulkDeleteFailure struct {
	ID      FlexibleID `json:"id"      yaml:"id"`
	Message string     `json:"message" yaml:"message"`
}

// BulkDeleteResponse is the server's answer to one batched delete call.
type BulkDeleteResponse struct {
	RequestCount  int                 `json:"requestCount"  yaml:"requestCount"`
	SuccessCount  int                 `json:"successCount"  yaml:"successCount"`
	FailedCount   int                 `json:"failedCount"   yaml:"failedCount"`
	AllSuccessful bool                `json:"allsuccessful" yaml:"allsuccessful"`
	Failures      []BulkDeleteFailure `json:"failures"      yaml:"failures,omitempty"`
}

// SystemInfo is the subset of /system/info used for the liveness probe.
type SystemInfo struct {
	System struct {
		Rundeck struct {
			Version    string `json:"version"`
			APIVersion int    `json:"apiversion"`
			Node       string `json:"node"`
		} `json:"rundeck"`
		Executions struct {
			Active        *bool  `json:"active"`
			ExecutionMode string `json:"executionMode"`
		} `json:"executions"`
	} `json:"system"`
}
