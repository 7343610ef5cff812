package commands

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/rundeck-admin/internal/constants"
)

func newProjectsConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage project configuration",
		Long:  "Read and replace the configuration properties of a project",
	}

	cmd.AddCommand(newProjectsConfigGetCommand())
	cmd.AddCommand(newProjectsConfigSetCommand())

	return cmd
}

func newProjectsConfigGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get PROJECT_NAME",
		Short: "Show project configuration",
		Long:  "Display every configuration property of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			config, err := client.Projects().GetConfig(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get project config: %w", err)
			}

			return writeProperties(cmd, config)
		},
	}
}

func newProjectsConfigSetCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "set PROJECT_NAME [KEY=VALUE...]",
		Short: "Replace project configuration",
		Long: `Replace the configuration of a project, either with KEY=VALUE pairs or
with a YAML document holding a flat mapping (--file).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, pairs := args[0], args[1:]

			if file == "" && len(pairs) == 0 {
				return constants.ErrConfigInputRequired
			}

			var properties map[string]string

			if file == "" {
				parsed, err := parseKeyValues(pairs)
				if err != nil {
					return err
				}

				properties = parsed
			}

			client, err := createClient(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			var config map[string]string

			if file != "" {
				// #nosec G304 -- the operator names the file
				document, readErr := os.ReadFile(file)
				if readErr != nil {
					return fmt.Errorf("failed to read %s: %w", file, readErr)
				}

				config, err = client.Projects().SetConfigDocument(cmd.Context(), project, document)
			} else {
				config, err = client.Projects().SetConfig(cmd.Context(), project, properties)
			}

			if err != nil {
				return fmt.Errorf("failed to set project config: %w", err)
			}

			return writeProperties(cmd, config)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file holding the configuration")

	return cmd
}

func parseKeyValues(pairs []string) (map[string]string, error) {
	properties := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidKeyValue, pair)
		}

		properties[key] = value
	}

	return properties, nil
}

func writeProperties(cmd *cobra.Command, properties map[string]string) error {
	keys := make([]string, 0, len(properties))
	for key := range properties {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return writeOutput(cmd.OutOrStdout(), properties, func(table *tablewriter.Table) error {
		for _, key := range keys {
			err := appendRow(table, key, properties[key])
			if err != nil {
				return err
			}
		}

		return nil
	}, "Key", "Value")
}
