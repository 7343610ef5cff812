package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600

	// ArchiveFilePerm is the permission for written project archives.
	ArchiveFilePerm = 0640

	// ArchiveDirPerm is the permission for directories created while unpacking.
	ArchiveDirPerm = 0750
)

// Rundeck API addressing.
const (
	// APIPrefix is prepended to every resource path.
	APIPrefix = "/api/14"

	// AuthTokenParam is the query parameter carrying the API token.
	AuthTokenParam = "authtoken"

	// RedactedToken replaces the token in logged URIs.
	RedactedToken = "REDACTED"

	// DefaultUserAgent identifies the client.
	DefaultUserAgent = "rdadmin/1.0"
)

// Content types.
const (
	// ContentTypeJSON is used for every JSON request and response.
	ContentTypeJSON = "application/json"

	// ContentTypeYAML is used for job definition export and import.
	ContentTypeYAML = "application/yaml"

	// ContentTypeZip is used for project archives.
	ContentTypeZip = "application/zip"

	// ContentTypeOctetStream is accepted for archive downloads.
	ContentTypeOctetStream = "application/octet-stream"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ArchiveHTTPTimeout is used for project export and import, which stream
	// whole archives.
	ArchiveHTTPTimeout = 10 * time.Minute
)

// Retry limits. Retries are disabled unless configured.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 0

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Environment.
const (
	// DevModeEnv enables development-only options such as skipping TLS
	// verification.
	DevModeEnv = "RDADMIN_DEV_MODE"

	// EnvPrefix is the prefix for environment variables bound to configuration.
	EnvPrefix = "RDADMIN"
)

// Archive handling.
const (
	// ArchiveExtension is the file extension of project archives.
	ArchiveExtension = ".zip"

	// RepositoryMarker marks a directory as a version-controlled repository.
	RepositoryMarker = ".git"

	// ManifestPath is the archive manifest relative to an unpacked archive.
	ManifestPath = "META-INF/MANIFEST.MF"

	// ProjectPropertiesPathFormat locates project.properties in an unpacked
	// archive; the argument is the project name.
	ProjectPropertiesPathFormat = "rundeck-%s/files/etc/project.properties"

	// ExportDatePattern matches the volatile export date in the manifest.
	ExportDatePattern = `^Rundeck-Archive-Export-Date`

	// CommentPattern matches comment lines in properties files.
	CommentPattern = `^#`
)

// Output formats.
const (
	// FormatJSON is the json output format.
	FormatJSON = "json"

	// FormatYAML is the yaml output format.
	FormatYAML = "yaml"

	// FormatTable is the table output format.
	FormatTable = "table"
)

// Event publishing.
const (
	// DefaultEventSubject is the NATS subject prefix workflow events are
	// published under; the event kind is appended.
	DefaultEventSubject = "rundeck.workflow.events"

	// NATSMaxReconnects bounds reconnect attempts of the event connection.
	NATSMaxReconnects = 5

	// NATSCloseTimeout bounds flushing and draining the event connection.
	NATSCloseTimeout = 5 * time.Second
)
