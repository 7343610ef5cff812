package client

import (
	"context"
	"net/http"
	"testing"

	"github.com/fivetwenty-io/rundeck-admin/internal/auth"
	"github.com/fivetwenty-io/rundeck-admin/pkg/rundeck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestNew_LivenessProbe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
		reason  string
	}{
		{
			name:   "active instance",
			status: http.StatusOK,
			body:   `{"system":{"rundeck":{"version":"2.6.9"},"executions":{"active":true,"executionMode":"active"}}}`,
		},
		{
			name:   "passive instance still counts as reachable",
			status: http.StatusOK,
			body:   `{"system":{"executions":{"active":false}}}`,
		},
		{
			name:    "active field missing",
			status:  http.StatusOK,
			body:    `{"system":{"executions":{}}}`,
			wantErr: true,
			reason:  "missing or not a boolean",
		},
		{
			name:    "active field is not a boolean",
			status:  http.StatusOK,
			body:    `{"system":{"executions":{"active":"yes"}}}`,
			wantErr: true,
			reason:  "system info request failed",
		},
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"error":true,"message":"unauthorized"}`,
			wantErr: true,
			reason:  "system info request failed",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, "/api/14/system/info", request.URL.Path)
				writer.WriteHeader(testCase.status)
				_, _ = writer.Write([]byte(testCase.body))
			})

			client, err := New(context.Background(), &rundeck.Config{Endpoint: server.URL, Token: testToken}, auth.StaticToken(testToken))
			if !testCase.wantErr {
				require.NoError(t, err)
				assert.Equal(t, server.URL, client.Endpoint())
				assert.Equal(t, "127.0.0.1", client.Instance())
				assert.NotNil(t, client.Projects())
				assert.NotNil(t, client.Jobs())
				assert.NotNil(t, client.Executions())
				assert.NotNil(t, client.System())

				return
			}

			require.Error(t, err)

			var unavailable *rundeck.InstanceUnavailableError
			require.ErrorAs(t, err, &unavailable)
			assert.Contains(t, unavailable.Reason, testCase.reason)
			assert.Contains(t, err.Error(), "is not active or its API is not available")
		})
	}
}

func TestNew_RequiresConfig(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), nil, nil)
	require.ErrorIs(t, err, rundeck.ErrConfigRequired)

	_, err = New(context.Background(), &rundeck.Config{}, nil)
	require.ErrorIs(t, err, rundeck.ErrEndpointRequired)
}

func TestNew_UnreachableInstance(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), &rundeck.Config{Endpoint: "http://127.0.0.1:1"}, auth.StaticToken("t"))

	var unavailable *rundeck.InstanceUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "127.0.0.1", unavailable.Endpoint)
	assert.Error(t, unavailable.Unwrap())
}
