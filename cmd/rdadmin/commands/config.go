package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/rundeck-admin/internal/constants"
)

// ConfigDirName is the directory under $HOME holding config.yml.
const ConfigDirName = ".rdadmin"

// Configuration keys, shared by the config file, flags and RDADMIN_*
// environment variables.
const (
	KeyEndpoint          = "rundeck_api_endpoint"
	KeyToken             = "rundeck_token"
	KeyTokenFile         = "rundeck_token_file"
	KeyTmpDirectory      = "tmp_directory"
	KeyRetryMax          = "retry_max"
	KeyTimeout           = "http_timeout"
	KeySkipSSLValidation = "skip_ssl_validation"
	KeyEventsURL         = "events_url"
	KeyEventsSubject     = "events_subject"
	keyOutput            = "output"
)

// Config represents the CLI configuration file.
type Config struct {
	Endpoint          string `json:"rundeck_api_endpoint,omitempty" yaml:"rundeck_api_endpoint,omitempty"`
	Token             string `json:"rundeck_token,omitempty"        yaml:"rundeck_token,omitempty"`
	TokenFile         string `json:"rundeck_token_file,omitempty"   yaml:"rundeck_token_file,omitempty"`
	TmpDirectory      string `json:"tmp_directory,omitempty"        yaml:"tmp_directory,omitempty"`
	Output            string `json:"output,omitempty"               yaml:"output,omitempty"`
	RetryMax          int    `json:"retry_max,omitempty"            yaml:"retry_max,omitempty"`
	HTTPTimeout       string `json:"http_timeout,omitempty"         yaml:"http_timeout,omitempty"`
	SkipSSLValidation bool   `json:"skip_ssl_validation,omitempty"  yaml:"skip_ssl_validation,omitempty"`
	EventsURL         string `json:"events_url,omitempty"           yaml:"events_url,omitempty"`
	EventsSubject     string `json:"events_subject,omitempty"       yaml:"events_subject,omitempty"`
}

// configSetters maps each settable key to the field it writes.
var configSetters = map[string]func(*Config, string) error{
	KeyEndpoint:     func(c *Config, v string) error { c.Endpoint = v; return nil },
	KeyToken:        func(c *Config, v string) error { c.Token = v; return nil },
	KeyTokenFile:    func(c *Config, v string) error { c.TokenFile = v; return nil },
	KeyTmpDirectory: func(c *Config, v string) error { c.TmpDirectory = v; return nil },
	keyOutput: func(c *Config, v string) error {
		err := validateFormat(v)
		if err != nil {
			return err
		}

		c.Output = v

		return nil
	},
	KeyRetryMax: func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", constants.ErrInvalidConfigValue, KeyRetryMax)
		}

		c.RetryMax = n

		return nil
	},
	KeyTimeout:           func(c *Config, v string) error { c.HTTPTimeout = v; return nil },
	KeySkipSSLValidation: func(c *Config, v string) error { c.SkipSSLValidation = parseBoolValue(v); return nil },
	KeyEventsURL:         func(c *Config, v string) error { c.EventsURL = v; return nil },
	KeyEventsSubject:     func(c *Config, v string) error { c.EventsSubject = v; return nil },
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the rdadmin configuration file",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigSetTokenCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration with the token masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			config.Token = maskToken(config.Token)

			return writeOutput(cmd.OutOrStdout(), config, func(table *tablewriter.Table) error {
				for _, row := range configRows(config) {
					err := appendRow(table, row...)
					if err != nil {
						return err
					}
				}

				return nil
			}, "Key", "Value")
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Keys: " + strings.Join(configKeys(), ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			err := setConfigValue(config, args[0], args[1])
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			value := args[1]
			if args[0] == KeyToken {
				value = maskToken(value)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s to %s\n", args[0], value)

			return nil
		},
	}
}

func newConfigSetTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-token",
		Short: "Store the API token",
		Long:  "Prompt for the Rundeck API token without echoing it and store it in the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Rundeck API token: ")

			tokenBytes, err := term.ReadPassword(int(syscall.Stdin))

			_, _ = fmt.Fprintln(cmd.ErrOrStderr())

			if err != nil {
				return fmt.Errorf("failed to read token: %w", err)
			}

			token := strings.TrimSpace(string(tokenBytes))
			if token == "" {
				return constants.ErrEmptyTokenInput
			}

			config := loadConfig()
			config.Token = token

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Token saved")

			return nil
		},
	}
}

func loadConfig() *Config {
	return &Config{
		Endpoint:          viper.GetString(KeyEndpoint),
		Token:             viper.GetString(KeyToken),
		TokenFile:         viper.GetString(KeyTokenFile),
		TmpDirectory:      viper.GetString(KeyTmpDirectory),
		Output:            viper.GetString(keyOutput),
		RetryMax:          viper.GetInt(KeyRetryMax),
		HTTPTimeout:       viper.GetString(KeyTimeout),
		SkipSSLValidation: viper.GetBool(KeySkipSSLValidation),
		EventsURL:         viper.GetString(KeyEventsURL),
		EventsSubject:     viper.GetString(KeyEventsSubject),
	}
}

func saveConfigStruct(config *Config) error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get user home directory: %w", err)
		}

		configDir := filepath.Join(home, ConfigDirName)

		err = os.MkdirAll(configDir, constants.ConfigDirPerm)
		if err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}

		configFile = filepath.Join(configDir, "config.yml")
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func setConfigValue(config *Config, key, value string) error {
	setter, ok := configSetters[key]
	if !ok {
		return fmt.Errorf("%w: %s (valid keys: %s)", constants.ErrUnknownConfigKey, key, strings.Join(configKeys(), ", "))
	}

	return setter(config, value)
}

func configKeys() []string {
	keys := make([]string, 0, len(configSetters))
	for key := range configSetters {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

func configRows(config *Config) [][]string {
	return [][]string{
		{KeyEndpoint, formatConfigValue(config.Endpoint)},
		{KeyToken, formatConfigValue(config.Token)},
		{KeyTokenFile, formatConfigValue(config.TokenFile)},
		{KeyTmpDirectory, formatConfigValue(config.TmpDirectory)},
		{keyOutput, formatConfigValue(config.Output)},
		{KeyRetryMax, fmt.Sprint(config.RetryMax)},
		{KeyTimeout, formatConfigValue(config.HTTPTimeout)},
		{KeySkipSSLValidation, fmt.Sprint(config.SkipSSLValidation)},
		{KeyEventsURL, formatConfigValue(config.EventsURL)},
		{KeyEventsSubject, formatConfigValue(config.EventsSubject)},
	}
}

func formatConfigValue(value string) string {
	if value == "" {
		return "(not set)"
	}

	return value
}

func maskToken(token string) string {
	const visible = 4

	if token == "" {
		return ""
	}

	if len(token) <= visible {
		return strings.Repeat("*", len(token))
	}

	return strings.Repeat("*", len(token)-visible) + token[len(token)-visible:]
}

func parseBoolValue(value string) bool {
	switch strings.ToLower(value) {
	case "true", "yes", "1", "on":
		return true
	default:
		return false
	}
}
