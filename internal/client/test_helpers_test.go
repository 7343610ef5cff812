package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fivetwenty-io/rundeck-admin/internal/auth"
	internalhttp "github.com/fivetwenty-io/rundeck-admin/internal/http"
	"github.com/stretchr/testify/assert"
)

const testToken = "test-token"

// NewTestClient creates a client for baseURL without probing the instance.
func NewTestClient(baseURL string) *Client {
	client := &Client{
		httpClient: internalhttp.NewClient(baseURL, auth.StaticToken(testToken)),
		baseURL:    baseURL,
		instance:   "test",
	}

	client.initializeResourceClients()

	return client
}

// newTestServer starts a server that checks the token on every request.
func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, testToken, request.URL.Query().Get("authtoken"))
		assert.Empty(t, request.Header.Get("Authorization"))
		handler(writer, request)
	}))
	t.Cleanup(server.Close)

	return server
}

func writeJSON(t *testing.T, writer http.ResponseWriter, status int, body interface{}) {
	t.Helper()

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	assert.NoError(t, json.NewEncoder(writer).Encode(body))
}
