package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/rundeck-admin/internal/auth"
	"github.com/fivetwenty-io/rundeck-admin/internal/constants"
	"github.com/fivetwenty-io/rundeck-admin/pkg/rundeck"
)

// Logger is the logging interface used by the HTTP client.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Client sends requests to one Rundeck instance. Only one request is in
// flight per call; the client holds no per-request state.
type Client struct {
	baseURL   string
	tokens    auth.TokenSource
	logger    Logger
	debug     bool
	userAgent string
	timeout   time.Duration

	// reads retries GET requests when retries are enabled; writes never retries.
	reads  *retryablehttp.Client
	writes *retryablehttp.Client
}

// Request describes one API call.
type Request struct {
	Method string
	Path   string
	Query  map[string]string
	// Body is JSON-encoded when set.
	Body interface{}
	// RawBody is sent verbatim with ContentType; it takes precedence over Body.
	RawBody     []byte
	ContentType string
	Accept      string
	Headers     map[string]string
	// Timeout extends the client timeout for this request. It never shortens
	// it.
	Timeout time.Duration
}

// Response is a fully read API response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRetryConfig enables retries for GET requests.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.reads.RetryMax = retryMax
		c.reads.RetryWaitMin = waitMin
		c.reads.RetryWaitMax = waitMax
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
func WithInsecureSkipVerify() Option {
	return func(c *Client) {
		transport := &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // #nosec G402 -- gated by RDADMIN_DEV_MODE in rdclient
		}
		c.reads.HTTPClient.Transport = transport
		c.writes.HTTPClient.Transport = transport
	}
}

func newRetryableClient() *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = constants.DefaultRetryMax
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return client
}

// NewClient creates a new HTTP client for baseURL. tokens may be nil for
// endpoints that do not need authentication.
func NewClient(baseURL string, tokens auth.TokenSource, opts ...Option) *Client {
	client := &Client{
		baseURL:   baseURL,
		tokens:    tokens,
		userAgent: constants.DefaultUserAgent,
		timeout:   constants.DefaultHTTPTimeout,
		reads:     newRetryableClient(),
		writes:    newRetryableClient(),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// BaseURL returns the endpoint the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", nil
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("resolving API token: %w", err)
	}

	return token, nil
}

func encodeBody(req *Request) ([]byte, string, error) {
	if req.RawBody != nil {
		return req.RawBody, req.ContentType, nil
	}

	if req.Body == nil {
		return nil, req.ContentType, nil
	}

	data, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", fmt.Errorf("encoding request body: %w", err)
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = constants.ContentTypeJSON
	}

	return data, contentType, nil
}

// Do executes req. On a non-2xx status the response is returned together
// with a *rundeck.APIError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	uri, err := BuildURI(c.baseURL, req.Path, token, req.Query)
	if err != nil {
		return nil, fmt.Errorf("building request URI: %w", err)
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	var rawBody interface{}
	if body != nil {
		rawBody = body
	}

	timeout := c.requestTimeout(req)
	if timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, uri, rawBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	accept := req.Accept
	if accept == "" {
		accept = constants.ContentTypeJSON
	}

	httpReq.Header.Set("Accept", accept)
	httpReq.Header.Set("User-Agent", c.userAgent)

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	c.logRequest(req)

	client := c.writes
	if req.Method == http.MethodGet {
		client = c.reads
	}

	start := time.Now()

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing %s %s: %w", req.Method, req.Path, err)
	}

	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Body:       data,
		Headers:    httpResp.Header,
	}

	c.logResponse(req, resp, time.Since(start))

	if httpResp.StatusCode >= http.StatusBadRequest {
		return resp, rundeck.ParseAPIError(httpResp.StatusCode, data)
	}

	return resp, nil
}

func (c *Client) logRequest(req *Request) {
	if c.logger == nil || !c.debug {
		return
	}

	uri, _ := BuildURI(c.baseURL, req.Path, constants.RedactedToken, req.Query)
	c.logger.Debug("HTTP Request", map[string]interface{}{
		"method": req.Method,
		"uri":    uri,
	})
}

func (c *Client) logResponse(req *Request, resp *Response, elapsed time.Duration) {
	if c.logger == nil || !c.debug {
		return
	}

	c.logger.Debug("HTTP Response", map[string]interface{}{
		"method":      req.Method,
		"path":        req.Path,
		"status_code": resp.StatusCode,
		"bytes":       len(resp.Body),
		"duration":    elapsed.String(),
	})
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query map[string]string) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
	})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPut,
		Path:   path,
		Body:   body,
	})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodDelete,
		Path:   path,
	})
}

func (c *Client) requestTimeout(req *Request) time.Duration {
	return max(c.timeout, req.Timeout)
}

// Download performs a GET request and returns the raw body, asking for the
// given content type. Archive downloads get the extended timeout.
func (c *Client) Download(ctx context.Context, path string, query map[string]string, accept string) ([]byte, error) {
	resp, err := c.Do(ctx, &Request{
		Method:  http.MethodGet,
		Path:    path,
		Query:   query,
		Accept:  accept,
		Timeout: constants.ArchiveHTTPTimeout,
	})
	if err != nil {
		return nil, err
	}

	return bytes.Clone(resp.Body), nil
}
