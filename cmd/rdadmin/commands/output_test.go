package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/rundeck-admin/internal/constants"
)

// These tests change global viper state and must not run in parallel.

func withViper(t *testing.T, values map[string]interface{}) {
	t.Helper()

	viper.Reset()

	for key, value := range values {
		viper.Set(key, value)
	}

	t.Cleanup(viper.Reset)
}

func TestWriteOutput(t *testing.T) {
	data := []map[string]string{{"name": "alpha"}, {"name": "beta"}}
	fill := func(table *tablewriter.Table) error {
		for _, row := range data {
			err := appendRow(table, row["name"])
			if err != nil {
				return err
			}
		}

		return nil
	}

	t.Run("json", func(t *testing.T) {
		withViper(t, map[string]interface{}{"output": constants.FormatJSON})

		var buf bytes.Buffer
		require.NoError(t, writeOutput(&buf, data, fill, "Name"))

		var decoded []map[string]string
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, data, decoded)
	})

	t.Run("yaml", func(t *testing.T) {
		withViper(t, map[string]interface{}{"output": constants.FormatYAML})

		var buf bytes.Buffer
		require.NoError(t, writeOutput(&buf, data, fill, "Name"))

		var decoded []map[string]string
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, data, decoded)
	})

	t.Run("table", func(t *testing.T) {
		withViper(t, map[string]interface{}{"output": constants.FormatTable})

		var buf bytes.Buffer
		require.NoError(t, writeOutput(&buf, data, fill, "Name"))
		assert.Contains(t, buf.String(), "alpha")
		assert.Contains(t, buf.String(), "beta")
	})

	t.Run("unsupported", func(t *testing.T) {
		withViper(t, map[string]interface{}{"output": "xml"})

		err := writeOutput(&bytes.Buffer{}, data, fill, "Name")
		require.ErrorIs(t, err, constants.ErrUnsupportedFormat)
	})
}

func TestCreateClient_RequiresConfiguration(t *testing.T) {
	withViper(t, nil)

	cmd := NewProjectsCommand()

	_, err := createClient(t.Context(), cmd)
	require.ErrorIs(t, err, constants.ErrNoEndpointConfigured)

	viper.Set(KeyEndpoint, "https://rundeck.example.com")

	_, err = createClient(t.Context(), cmd)
	require.ErrorIs(t, err, constants.ErrNoTokenConfigured)
}

func TestProjectsListCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "cli-token", request.URL.Query().Get("authtoken"))

		writer.Header().Set("Content-Type", "application/json")

		switch request.URL.Path {
		case "/api/14/system/info":
			_, _ = fmt.Fprint(writer, `{"system":{"executions":{"active":true}}}`)
		case "/api/14/projects":
			_, _ = fmt.Fprint(writer, `[{"name":"alpha","description":"Alpha"},{"name":"beta"}]`)
		default:
			writer.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	withViper(t, map[string]interface{}{
		KeyEndpoint: server.URL,
		KeyToken:    "cli-token",
		"output":    constants.FormatJSON,
	})

	var stdout, stderr bytes.Buffer

	cmd := NewProjectsCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"list"})

	require.NoError(t, cmd.ExecuteContext(t.Context()))

	var projects []struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &projects))
	require.Len(t, projects, 2)
	assert.Equal(t, "alpha", projects[0].Name)
	assert.False(t, strings.Contains(stderr.String(), "cli-token"))
}
