package rundeck

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired        = errors.New("config is required")
	ErrEndpointRequired      = errors.New("API endpoint is required")
	ErrTokenRequired         = errors.New("API token is required")
	ErrProjectNameRequired   = errors.New("project name is required")
	ErrJobIDRequired         = errors.New("job ID is required")
	ErrJobNameRequired       = errors.New("job name is required")
	ErrGroupPathRequired     = errors.New("job group path is required")
	ErrInvalidJobID          = errors.New("invalid job ID")
	ErrUnencodableParameter  = errors.New("query parameter cannot be encoded without escaping")
	ErrSkipTLSOnlyInDev      = errors.New("skipTLS is only allowed in development environments")
	ErrInvalidChunkSize      = errors.New("chunk size must be positive")
	ErrInvalidPageSize       = errors.New("page size must be positive")
	ErrUnexpectedResponse    = errors.New("unexpected response shape")
	ErrInvalidDaysToKeep     = errors.New("days to keep must not be negative")
	ErrNoArchivesFound       = errors.New("no project archives found")
	ErrPathTraversalDetected = errors.New("archive entry escapes destination directory")
)

// APIError represents an error reported by the Rundeck API.
type APIError struct {
	StatusCode int    `json:"-"          yaml:"status_code"`
	ErrorCode  string `json:"errorCode"  yaml:"error_code"`
	Message    string `json:"message"    yaml:"message"`
	APIVersion int    `json:"apiversion" yaml:"api_version"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.ErrorCode == "" {
		return fmt.Sprintf("rundeck API error (status: %d): %s", e.StatusCode, e.Message)
	}

	return fmt.Sprintf("%s: %s (status: %d)", e.ErrorCode, e.Message, e.StatusCode)
}

// ParseAPIError builds an APIError from an error response body. Bodies that
// are not Rundeck JSON errors are kept as the message.
func ParseAPIError(statusCode int, data []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}

	err := json.Unmarshal(data, apiErr)
	if err != nil || apiErr.Message == "" {
		apiErr.Message = truncate(strings.TrimSpace(string(data)), maxErrorBodyLength)
	}

	return apiErr
}

const maxErrorBodyLength = 512

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}

	return text[:limit] + "..."
}

// IsNotFound checks if the error is a 404 from the API.
func IsNotFound(err error) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}

	return false
}

// IsUnauthorized checks if the error is an authentication or authorization failure.
func IsUnauthorized(err error) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
	}

	return false
}

// InstanceUnavailableError is returned when the liveness probe fails at
// construction. It is fatal and never retried.
type InstanceUnavailableError struct {
	Endpoint string
	Reason   string
	Err      error
}

// Error implements the error interface.
func (e *InstanceUnavailableError) Error() string {
	msg := fmt.Sprintf("rundeck %s is not active or its API is not available: %s", e.Endpoint, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the underlying error.
func (e *InstanceUnavailableError) Unwrap() error {
	return e.Err
}

// ImportError is returned when the server reports a non-successful project
// import, or failed or skipped entries in a job import.
type ImportError struct {
	Project   string
	Status    string
	Succeeded int
	Failed    int
	Skipped   int
	Messages  []string
}

// Error implements the error interface.
func (e *ImportError) Error() string {
	var msg string
	if e.Status != "" {
		msg = fmt.Sprintf("import failed for project %s because import_status = %s", e.Project, e.Status)
	} else {
		msg = fmt.Sprintf("jobs import failed for project %s: succeeded: %d failed: %d skipped: %d",
			e.Project, e.Succeeded, e.Failed, e.Skipped)
	}

	if len(e.Messages) > 0 {
		msg += " (" + strings.Join(e.Messages, "; ") + ")"
	}

	return msg
}

// AmbiguousMatchError is returned when a name lookup does not resolve to
// exactly one job.
type AmbiguousMatchError struct {
	Project string
	Name    string
	Count   int
}

// Error implements the error interface.
func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("%d jobs found matching %q in project %s, expected exactly one", e.Count, e.Name, e.Project)
}

// ConfigTypeError is returned when a project configuration payload is not a
// flat mapping. It is raised before any request is sent.
type ConfigTypeError struct {
	Project string
	Key     string
	Got     string
}

// Error implements the error interface.
func (e *ConfigTypeError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("config for project %s should be a mapping, got %s", e.Project, e.Got)
	}

	return fmt.Sprintf("config for project %s: value of %q should be a scalar, got %s", e.Project, e.Key, e.Got)
}

// DeleteError is returned when the server reports failures for a job delete.
type DeleteError struct {
	Requested int
	Failed    int
	Failures  []BulkDeleteFailure
}

// Error implements the error interface.
func (e *DeleteError) Error() string {
	details := make([]string, 0, len(e.Failures))
	for _, failure := range e.Failures {
		details = append(details, fmt.Sprintf("%s: %s", failure.ID, failure.Message))
	}

	msg := fmt.Sprintf("%d of %d jobs could not be deleted", e.Failed, e.Requested)
	if len(details) > 0 {
		msg += ": " + strings.Join(details, "; ")
	}

	return msg
}
