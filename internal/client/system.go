package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fivetwenty-io/rundeck-admin/internal/http"
	"github.com/fivetwenty-io/rundeck-admin/pkg/rundeck"
)

// SystemClient implements rundeck.SystemClient.
type SystemClient struct {
	httpClient *http.Client
}

// NewSystemClient creates a new system client.
func NewSystemClient(httpClient *http.Client) *SystemClient {
	return &SystemClient{httpClient: httpClient}
}

// Info implements rundeck.SystemClient.Info.
func (c *SystemClient) Info(ctx context.Context) (*rundeck.SystemInfo, error) {
	resp, err := c.httpClient.Get(ctx, apiPath("/system/info"), nil)
	if err != nil {
		return nil, fmt.Errorf("getting system info: %w", err)
	}

	var info rundeck.SystemInfo

	err = json.Unmarshal(resp.Body, &info)
	if err != nil {
		return nil, fmt.Errorf("parsing system info: %w", err)
	}

	return &info, nil
}
