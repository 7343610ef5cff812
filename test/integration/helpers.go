//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestConfig holds configuration for integration tests.
type TestConfig struct {
	Endpoint   string
	Token      string
	BinaryPath string
	Verbose    bool
}

// LoadTestConfig loads configuration from environment variables.
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		Endpoint:   os.Getenv("RDADMIN_IT_ENDPOINT"),
		Token:      os.Getenv("RDADMIN_IT_TOKEN"),
		BinaryPath: getBinaryPath(),
		Verbose:    os.Getenv("RDADMIN_IT_VERBOSE") == "true",
	}
}

// getBinaryPath determines the path to the rdadmin binary.
func getBinaryPath() string {
	if path := os.Getenv("RDADMIN_BINARY_PATH"); path != "" {
		return path
	}

	for _, candidate := range []string{"../../rdadmin", "./rdadmin", "../rdadmin"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "rdadmin"
}

// SkipIfMissingConfig skips the test unless a live instance is configured.
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.Endpoint == "" || config.Token == "" {
		t.Skip("RDADMIN_IT_ENDPOINT or RDADMIN_IT_TOKEN not set, skipping integration test")
	}

	if _, err := exec.LookPath(config.BinaryPath); err != nil {
		t.Skipf("rdadmin binary not found at %s, skipping integration test", config.BinaryPath)
	}
}

// CommandRunner runs rdadmin against the configured instance.
type CommandRunner struct {
	config *TestConfig
	t      *testing.T
	home   string
}

// NewCommandRunner creates a runner with an isolated home directory so the
// operator's config file is never read.
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	return &CommandRunner{config: config, t: t, home: t.TempDir()}
}

// Run executes an rdadmin command and returns its output.
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command(runner.config.BinaryPath, args...)
	cmd.Env = append(os.Environ(),
		"HOME="+runner.home,
		"RDADMIN_RUNDECK_API_ENDPOINT="+runner.config.Endpoint,
		"RDADMIN_RUNDECK_TOKEN="+runner.config.Token,
		"RDADMIN_TMP_DIRECTORY="+runner.home,
	)

	var stdoutBuf, stderrBuf bytes.Buffer

	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.BinaryPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// CleanupProject deletes a project, ignoring failures.
func (runner *CommandRunner) CleanupProject(name string) {
	_, _, _ = runner.Run("projects", "delete", name, "--force")
}

// ProjectNames lists the project names of the instance.
func (runner *CommandRunner) ProjectNames() []string {
	stdout, stderr, err := runner.Run("projects", "list", "--output", "json")
	require.NoError(runner.t, err, "Failed to list projects: %s", stderr)

	var projects []struct {
		Name string `json:"name"`
	}

	require.NoError(runner.t, json.Unmarshal([]byte(stdout), &projects))

	names := make([]string, 0, len(projects))
	for _, project := range projects {
		names = append(names, project.Name)
	}

	return names
}

// GenerateTestName generates a project name unique to this run.
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
