package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/rundeck-admin/internal/constants"
	internalhttp "github.com/fivetwenty-io/rundeck-admin/internal/http"
	"github.com/fivetwenty-io/rundeck-admin/pkg/rundeck"
)

// ProjectsClient implements rundeck.ProjectsClient.
type ProjectsClient struct {
	httpClient *internalhttp.Client
}

// NewProjectsClient creates a new projects client.
func NewProjectsClient(httpClient *internalhttp.Client) *ProjectsClient {
	return &ProjectsClient{httpClient: httpClient}
}

func projectPath(name, suffix string) string {
	return apiPath("/project/%s%s", url.PathEscape(name), suffix)
}

// List implements rundeck.ProjectsClient.List.
func (c *ProjectsClient) List(ctx context.Context) ([]rundeck.Project, error) {
	resp, err := c.httpClient.Get(ctx, apiPath("/projects"), nil)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	var projects []rundeck.Project

	err = json.Unmarshal(resp.Body, &projects)
	if err != nil {
		return nil, fmt.Errorf("parsing projects list: %w", err)
	}

	return projects, nil
}

// ListNames implements rundeck.ProjectsClient.ListNames.
func (c *ProjectsClient) ListNames(ctx context.Context) ([]string, error) {
	projects, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(projects))
	for _, project := range projects {
		names = append(names, project.Name)
	}

	return names, nil
}

// Exists implements rundeck.ProjectsClient.Exists.
func (c *ProjectsClient) Exists(ctx context.Context, name string) (bool, error) {
	names, err := c.ListNames(ctx)
	if err != nil {
		return false, err
	}

	for _, existing := range names {
		if existing == name {
			return true, nil
		}
	}

	return false, nil
}

// Create implements rundeck.ProjectsClient.Create.
func (c *ProjectsClient) Create(ctx context.Context, name string) error {
	if name == "" {
		return rundeck.ErrProjectNameRequired
	}

	_, err := c.httpClient.Post(ctx, apiPath("/projects"), map[string]string{"name": name})
	if err != nil {
		return fmt.Errorf("creating project %s: %w", name, err)
	}

	return nil
}

// Delete implements rundeck.ProjectsClient.Delete.
func (c *ProjectsClient) Delete(ctx context.Context, name string) error {
	if name == "" {
		return rundeck.ErrProjectNameRequired
	}

	_, err := c.httpClient.Delete(ctx, projectPath(name, ""))
	if err != nil {
		return fmt.Errorf("deleting project %s: %w", name, err)
	}

	return nil
}

// Export implements rundeck.ProjectsClient.Export.
func (c *ProjectsClient) Export(ctx context.Context, name string) ([]byte, error) {
	if name == "" {
		return nil, rundeck.ErrProjectNameRequired
	}

	data, err := c.httpClient.Download(ctx, projectPath(name, "/export"), nil, constants.ContentTypeZip)
	if err != nil {
		return nil, fmt.Errorf("exporting project %s: %w", name, err)
	}

	return data, nil
}

// Import implements rundeck.ProjectsClient.Import. A status other than
// "successful" is returned as an *rundeck.ImportError alongside the status.
func (c *ProjectsClient) Import(
	ctx context.Context,
	name string,
	archive []byte,
	opts *rundeck.ImportOptions,
) (*rundeck.ImportStatus, error) {
	if name == "" {
		return nil, rundeck.ErrProjectNameRequired
	}

	if opts == nil {
		opts = rundeck.DefaultImportOptions()
	}

	jobUUIDOption := "remove"
	if opts.PreserveJobUUIDs {
		jobUUIDOption = "preserve"
	}

	resp, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method: http.MethodPut,
		Path:   projectPath(name, "/import"),
		Query: map[string]string{
			"jobUuidOption":    jobUUIDOption,
			"importExecutions": strconv.FormatBool(opts.ImportExecutions),
			"importConfig":     strconv.FormatBool(opts.ImportConfig),
			"importACL":        strconv.FormatBool(opts.ImportACL),
		},
		RawBody:     archive,
		ContentType: constants.ContentTypeZip,
		Timeout:     constants.ArchiveHTTPTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("importing project %s: %w", name, err)
	}

	var status rundeck.ImportStatus

	err = json.Unmarshal(resp.Body, &status)
	if err != nil {
		return nil, fmt.Errorf("parsing import status for project %s: %w", name, err)
	}

	if status.Status == "" {
		return nil, fmt.Errorf("import of project %s: %w: missing import_status", name, rundeck.ErrUnexpectedResponse)
	}

	if !status.Successful() {
		return &status, &rundeck.ImportError{
			Project:  name,
			Status:   status.Status,
			Messages: status.Errors,
		}
	}

	return &status, nil
}

// GetConfig implements rundeck.ProjectsClient.GetConfig.
func (c *ProjectsClient) GetConfig(ctx context.Context, name string) (map[string]string, error) {
	if name == "" {
		return nil, rundeck.ErrProjectNameRequired
	}

	resp, err := c.httpClient.Get(ctx, projectPath(name, "/config"), nil)
	if err != nil {
		return nil, fmt.Errorf("getting config for project %s: %w", name, err)
	}

	config := map[string]string{}

	err = json.Unmarshal(resp.Body, &config)
	if err != nil {
		return nil, fmt.Errorf("parsing config for project %s: %w", name, err)
	}

	return config, nil
}

// SetConfig implements rundeck.ProjectsClient.SetConfig. The whole
// configuration is replaced and the server's view of it is returned.
func (c *ProjectsClient) SetConfig(ctx context.Context, name string, config map[string]string) (map[string]string, error) {
	if name == "" {
		return nil, rundeck.ErrProjectNameRequired
	}

	if config == nil {
		return nil, &rundeck.ConfigTypeError{Project: name, Got: "null"}
	}

	resp, err := c.httpClient.Put(ctx, projectPath(name, "/config"), config)
	if err != nil {
		return nil, fmt.Errorf("setting config for project %s: %w", name, err)
	}

	updated := map[string]string{}

	err = json.Unmarshal(resp.Body, &updated)
	if err != nil {
		return nil, fmt.Errorf("parsing config for project %s: %w", name, err)
	}

	return updated, nil
}

// SetConfigDocument implements rundeck.ProjectsClient.SetConfigDocument.
// document is YAML or JSON and must be a flat mapping of scalars.
func (c *ProjectsClient) SetConfigDocument(ctx context.Context, name string, document []byte) (map[string]string, error) {
	config, err := ParseConfigDocument(name, document)
	if err != nil {
		return nil, err
	}

	return c.SetConfig(ctx, name, config)
}

// ParseConfigDocument decodes a flat YAML or JSON mapping into string
// key/value pairs.
func ParseConfigDocument(project string, document []byte) (map[string]string, error) {
	var root yaml.Node

	err := yaml.Unmarshal(document, &root)
	if err != nil {
		return nil, fmt.Errorf("parsing config document for project %s: %w", project, err)
	}

	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, &rundeck.ConfigTypeError{Project: project, Got: "empty document"}
	}

	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, &rundeck.ConfigTypeError{Project: project, Got: nodeKind(mapping)}
	}

	config := make(map[string]string, len(mapping.Content)/2)

	for index := 0; index+1 < len(mapping.Content); index += 2 {
		key, value := mapping.Content[index], mapping.Content[index+1]

		if key.Kind != yaml.ScalarNode {
			return nil, &rundeck.ConfigTypeError{Project: project, Key: key.Value, Got: nodeKind(key)}
		}

		if value.Kind != yaml.ScalarNode {
			return nil, &rundeck.ConfigTypeError{Project: project, Key: key.Value, Got: nodeKind(value)}
		}

		config[key.Value] = value.Value
	}

	return config, nil
}

func nodeKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	default:
		return "unknown"
	}
}
