package constants

import "errors"

// Configuration errors.
var (
	ErrNoEndpointConfigured = errors.New("no Rundeck endpoint configured, use 'rdadmin config set rundeck_api_endpoint <url>'")
	ErrNoTokenConfigured    = errors.New("no Rundeck token configured, use 'rdadmin config set-token' or set rundeck_token_file")
	ErrUnknownConfigKey     = errors.New("unknown configuration key")
	ErrEmptyTokenInput      = errors.New("token must not be empty")
	ErrInvalidConfigValue   = errors.New("invalid configuration value")
)

// Command errors.
var (
	ErrUnsupportedFormat     = errors.New("unsupported output format")
	ErrDestinationRequired   = errors.New("--to flag is required")
	ErrSameSourceAndTarget   = errors.New("source and destination must differ")
	ErrJobNameOrIDRequired   = errors.New("either a job ID or --name is required")
	ErrConfigInputRequired   = errors.New("either --file or key=value pairs are required")
	ErrInvalidKeyValue       = errors.New("expected key=value")
	ErrRepositoryDirRequired = errors.New("--repo-dir flag is required")
)
