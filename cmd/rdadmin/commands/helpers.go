package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/rundeck-admin/internal/constants"
	"github.com/fivetwenty-io/rundeck-admin/pkg/rdclient"
	"github.com/fivetwenty-io/rundeck-admin/pkg/rundeck"
	"github.com/fivetwenty-io/rundeck-admin/pkg/workflow"
)

// tableFiller appends rows to a table that already has its header.
type tableFiller func(table *tablewriter.Table) error

func validateFormat(format string) error {
	switch format {
	case constants.FormatJSON, constants.FormatYAML, constants.FormatTable, "":
		return nil
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnsupportedFormat, format)
	}
}

// writeOutput renders data in the configured output format. Table output is
// produced by fill under the given header.
func writeOutput(w io.Writer, data interface{}, fill tableFiller, header ...string) error {
	output := viper.GetString(keyOutput)

	err := validateFormat(output)
	if err != nil {
		return err
	}

	switch output {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		err = encoder.Encode(data)
		if err != nil {
			return fmt.Errorf("failed to encode output as JSON: %w", err)
		}

		return nil
	case constants.FormatYAML:
		err = yaml.NewEncoder(w).Encode(data)
		if err != nil {
			return fmt.Errorf("failed to encode output as YAML: %w", err)
		}

		return nil
	default:
		table := tablewriter.NewWriter(w)

		headerCells := make([]any, 0, len(header))
		for _, cell := range header {
			headerCells = append(headerCells, cell)
		}

		table.Header(headerCells...)

		err = fill(table)
		if err != nil {
			return err
		}

		err = table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	}
}

// newLogger builds the CLI logger: info by default, debug with --verbose.
func newLogger(w io.Writer) hclog.Logger {
	level := hclog.Info
	if viper.GetBool("verbose") {
		level = hclog.Debug
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   "rdadmin",
		Level:  level,
		Output: w,
	})
}

func clientConfig(endpoint, token, tokenFile string, logger hclog.Logger) (*rundeck.Config, error) {
	timeout := constants.DefaultHTTPTimeout

	raw := viper.GetString(KeyTimeout)
	if raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", constants.ErrInvalidConfigValue, KeyTimeout, err)
		}

		timeout = parsed
	}

	return &rundeck.Config{
		Endpoint:      endpoint,
		Token:         token,
		TokenFile:     tokenFile,
		HTTPTimeout:   timeout,
		RetryMax:      viper.GetInt(KeyRetryMax),
		Debug:         viper.GetBool("verbose"),
		Logger:        rundeck.NewHCLogger(logger.Named("http")),
		SkipTLSVerify: viper.GetBool(KeySkipSSLValidation),
	}, nil
}

// createClient connects to the configured instance.
func createClient(ctx context.Context, cmd *cobra.Command) (rundeck.Client, error) {
	config := loadConfig()

	if config.Endpoint == "" {
		return nil, constants.ErrNoEndpointConfigured
	}

	return createClientFor(ctx, cmd, config.Endpoint, "", "")
}

// createClientFor connects to endpoint. Without an explicit token or token
// file the configured credentials are used.
func createClientFor(ctx context.Context, cmd *cobra.Command, endpoint, token, tokenFile string) (rundeck.Client, error) {
	if token == "" && tokenFile == "" {
		token = viper.GetString(KeyToken)
		tokenFile = viper.GetString(KeyTokenFile)
	}

	if token == "" && tokenFile == "" {
		return nil, constants.ErrNoTokenConfigured
	}

	config, err := clientConfig(endpoint, token, tokenFile, newLogger(cmd.ErrOrStderr()))
	if err != nil {
		return nil, err
	}

	return rdclient.New(ctx, config)
}

// newRunner builds a workflow runner that logs every event and, when an
// events URL is configured, publishes them to NATS. The returned function
// releases the NATS connection.
func newRunner(cmd *cobra.Command, opts ...workflow.Option) (*workflow.Runner, func(), error) {
	logger := rundeck.NewHCLogger(newLogger(cmd.ErrOrStderr())).Named("workflow")
	observers := workflow.MultiObserver{workflow.NewLoggingObserver(logger)}
	closeFn := func() {}

	url := viper.GetString(KeyEventsURL)
	if url != "" {
		publisher, closeNATS, err := workflow.ConnectNATS(url, viper.GetString(KeyEventsSubject), logger)
		if err != nil {
			return nil, nil, err
		}

		observers = append(observers, publisher)
		closeFn = func() {
			err := closeNATS()
			if err != nil {
				logger.Warn("closing event connection", map[string]interface{}{"error": err.Error()})
			}
		}
	}

	opts = append([]workflow.Option{
		workflow.WithObserver(observers),
		workflow.WithLogger(logger),
	}, opts...)

	return workflow.New(opts...), closeFn, nil
}

// stagingDir creates a fresh directory under tmp_directory, or under the
// system temporary directory when unset. The returned function removes it.
func stagingDir() (string, func(), error) {
	base := viper.GetString(KeyTmpDirectory)

	if base != "" {
		err := os.MkdirAll(base, constants.ArchiveDirPerm)
		if err != nil {
			return "", nil, fmt.Errorf("failed to create %s: %w", base, err)
		}
	}

	dir, err := os.MkdirTemp(base, "rdadmin-")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	return dir, func() { _ = os.RemoveAll(dir) }, nil
}

func appendRow(table *tablewriter.Table, cells ...string) error {
	err := table.Append(cells)
	if err != nil {
		return fmt.Errorf("failed to append table row: %w", err)
	}

	return nil
}
