package client

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/fivetwenty-io/rundeck-admin/internal/auth"
	"github.com/fivetwenty-io/rundeck-admin/internal/constants"
	"github.com/fivetwenty-io/rundeck-admin/internal/http"
	"github.com/fivetwenty-io/rundeck-admin/pkg/rundeck"
)

// Client implements the rundeck.Client interface for one instance.
type Client struct {
	httpClient *http.Client
	baseURL    string
	instance   string
	logger     rundeck.Logger

	projects   *ProjectsClient
	jobs       *JobsClient
	executions *ExecutionsClient
	system     *SystemClient
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *rundeck.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.SkipTLSVerify {
		httpOpts = append(httpOpts, http.WithInsecureSkipVerify())
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return httpOpts
}

// New creates a client for the instance described by config and probes it.
// The config is expected to be normalised and validated by the caller.
func New(ctx context.Context, config *rundeck.Config, tokens auth.TokenSource) (*Client, error) {
	if config == nil {
		return nil, rundeck.ErrConfigRequired
	}

	if config.Endpoint == "" {
		return nil, rundeck.ErrEndpointRequired
	}

	parsed, err := url.Parse(config.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint: %w", err)
	}

	logger := config.Logger
	if logger == nil {
		logger = rundeck.NoopLogger{}
	}

	httpClient := http.NewClient(config.Endpoint, tokens, createHTTPClientOptions(config)...)

	client := &Client{
		httpClient: httpClient,
		baseURL:    config.Endpoint,
		instance:   parsed.Hostname(),
		logger:     logger,
	}

	client.initializeResourceClients()

	err = client.probe(ctx)
	if err != nil {
		return nil, err
	}

	return client, nil
}

func (c *Client) initializeResourceClients() {
	c.projects = NewProjectsClient(c.httpClient)
	c.jobs = NewJobsClient(c.httpClient)
	c.executions = NewExecutionsClient(c.httpClient)
	c.system = NewSystemClient(c.httpClient)
}

// probe fails construction unless system.executions.active is a boolean.
func (c *Client) probe(ctx context.Context) error {
	start := time.Now()

	info, err := c.system.Info(ctx)
	if err != nil {
		return &rundeck.InstanceUnavailableError{
			Endpoint: c.instance,
			Reason:   "system info request failed",
			Err:      err,
		}
	}

	if info.System.Executions.Active == nil {
		return &rundeck.InstanceUnavailableError{
			Endpoint: c.instance,
			Reason:   "system.executions.active is missing or not a boolean",
		}
	}

	c.logger.Debug("rundeck instance reachable", map[string]interface{}{
		"instance":         c.instance,
		"version":          info.System.Rundeck.Version,
		"executionsActive": *info.System.Executions.Active,
		"duration":         time.Since(start).String(),
	})

	return nil
}

// Projects implements rundeck.Client.Projects.
func (c *Client) Projects() rundeck.ProjectsClient {
	return c.projects
}

// Jobs implements rundeck.Client.Jobs.
func (c *Client) Jobs() rundeck.JobsClient {
	return c.jobs
}

// Executions implements rundeck.Client.Executions.
func (c *Client) Executions() rundeck.ExecutionsClient {
	return c.executions
}

// System implements rundeck.Client.System.
func (c *Client) System() rundeck.SystemClient {
	return c.system
}

// Endpoint implements rundeck.Client.Endpoint.
func (c *Client) Endpoint() string {
	return c.baseURL
}

// Instance implements rundeck.Client.Instance.
func (c *Client) Instance() string {
	return c.instance
}

func apiPath(format string, args ...interface{}) string {
	return constants.APIPrefix + fmt.Sprintf(format, args...)
}
