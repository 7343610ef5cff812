package rundeck

import (
	"context"
	"time"
)

// ProjectsClient defines operations on projects.
type ProjectsClient interface {
	List(ctx context.Context) ([]Project, error)
	ListNames(ctx context.Context) ([]string, error)
	Exists(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, name string) error
	Delete(ctx context.Context, name string) error
	Export(ctx context.Context, name string) ([]byte, error)
	Import(ctx context.Context, name string, archive []byte, opts *ImportOptions) (*ImportStatus, error)
	GetConfig(ctx context.Context, name string) (map[string]string, error)
	SetConfig(ctx context.Context, name string, config map[string]string) (map[string]string, error)
	SetConfigDocument(ctx context.Context, name string, document []byte) (map[string]string, error)
}

// JobsClient defines operations on job definitions.
type JobsClient interface {
	List(ctx context.Context, project string, filter *JobFilter) ([]Job, error)
	ListIDs(ctx context.Context, project string, filter *JobFilter) ([]string, error)
	FindOne(ctx context.Context, project, name string) (string, error)
	Run(ctx context.Context, id string, opts *RunOptions) (*RunResult, error)
	RunByName(ctx context.Context, project, name string, opts *RunOptions) (*RunResult, error)
	Delete(ctx context.Context, ids []string) (*BatchResult, error)
	DeleteByGroup(ctx context.Context, project, group string) (*BatchResult, error)
	Export(ctx context.Context, project string) ([]byte, error)
	Import(ctx context.Context, project string, definitions []byte, opts *JobImportOptions) (*JobImportResult, error)
}

// ExecutionsClient defines operations on execution history.
type ExecutionsClient interface {
	List(ctx context.Context, project string, query *ExecutionQuery) (*ExecutionList, error)
	ListIDs(ctx context.Context, project string, query *ExecutionQuery) ([]int64, error)
	DeleteBatch(ctx context.Context, ids []int64) (*BulkDeleteResponse, error)
	Delete(ctx context.Context, ids []int64) (BatchResult, error)
}

// SystemClient provides access to the system information endpoint.
type SystemClient interface {
	Info(ctx context.Context) (*SystemInfo, error)
}

// Client is a client scoped to exactly one Rundeck instance.
type Client interface {
	Projects() ProjectsClient
	Jobs() JobsClient
	Executions() ExecutionsClient
	System() SystemClient

	// Endpoint returns the base URL the client talks to.
	Endpoint() string
	// Instance returns the host name of the endpoint, used as a label in logs.
	Instance() string
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for one Rundeck instance.
//
// # Authentication
//
// Rundeck API tokens are opaque. Token takes precedence; when it is empty the
// token is read from TokenFile. The token is always sent as the "authtoken"
// query parameter, never as a header.
//
// # Retries
//
// No request is retried unless RetryMax is greater than zero, and even then
// only GET requests are retried. Mutating calls (delete, import, run) are
// never repeated by the transport.
type Config struct {
	// Endpoint: base URL of the Rundeck server (e.g., "https://rundeck.example.com").
	// rdclient.New trims a trailing slash and adds "https://" if no scheme is present.
	Endpoint string
	// Token: API token.
	Token string
	// TokenFile: path of a file holding the API token. Used when Token is empty.
	TokenFile string

	// HTTPTimeout: per-request timeout applied by the transport.
	HTTPTimeout time.Duration
	// RetryMax: maximum number of retries for GET requests. Zero disables retries.
	RetryMax int
	// RetryWaitMin: minimum backoff between retries.
	RetryWaitMin time.Duration
	// RetryWaitMax: maximum backoff between retries.
	RetryWaitMax time.Duration
	// Debug: enables request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger.
	Logger Logger
	// UserAgent: overrides the default User-Agent header.
	UserAgent string
	// SkipTLSVerify: disables TLS verification. Only honored when
	// RDADMIN_DEV_MODE is "true" or "1".
	SkipTLSVerify bool
}
