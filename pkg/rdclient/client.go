// Package rdclient provides the main entry point for creating Rundeck API clients
package rdclient

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"

	"github.com/fivetwenty-io/rundeck-admin/internal/auth"
	"github.com/fivetwenty-io/rundeck-admin/internal/client"
	"github.com/fivetwenty-io/rundeck-admin/internal/constants"
	"github.com/fivetwenty-io/rundeck-admin/pkg/rundeck"
)

// New creates a client for one Rundeck instance. The endpoint is normalised,
// the configuration validated, and the instance probed; a failed probe is
// returned as *rundeck.InstanceUnavailableError. config is not modified.
func New(ctx context.Context, config *rundeck.Config) (rundeck.Client, error) {
	return NewWithFs(ctx, afero.NewOsFs(), config)
}

// NewWithFs is New with the filesystem used to read Config.TokenFile.
func NewWithFs(ctx context.Context, fs afero.Fs, config *rundeck.Config) (rundeck.Client, error) {
	if config == nil {
		return nil, rundeck.ErrConfigRequired
	}

	if config.Endpoint == "" {
		return nil, rundeck.ErrEndpointRequired
	}

	normalized := *config
	normalized.Endpoint = NormalizeEndpoint(config.Endpoint)

	if normalized.SkipTLSVerify && !isDevelopmentEnvironment() {
		return nil, fmt.Errorf("%w (set %s=true)", rundeck.ErrSkipTLSOnlyInDev, constants.DevModeEnv)
	}

	err := normalized.Validate()
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenSource(fs, normalized.Token, normalized.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", rundeck.ErrTokenRequired, err)
	}

	rdClient, err := client.New(ctx, &normalized, tokens)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return rdClient, nil
}

// NewWithToken creates a new client with an API endpoint and token.
func NewWithToken(ctx context.Context, endpoint, token string) (rundeck.Client, error) {
	return New(ctx, &rundeck.Config{
		Endpoint: endpoint,
		Token:    token,
	})
}

// NormalizeEndpoint trims a trailing slash and defaults the scheme to https.
func NormalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSuffix(strings.TrimSpace(endpoint), "/")
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	return endpoint
}

// isDevelopmentEnvironment checks if we're in a development environment.
func isDevelopmentEnvironment() bool {
	devMode := os.Getenv(constants.DevModeEnv)

	return devMode == "true" || devMode == "1"
}
