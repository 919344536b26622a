package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Artmann/squeal/pkg/config"
)

func TestHealth(t *testing.T) {
	mux := http.NewServeMux()
	NewHealthHandler(&config.Config{Version: "1.2.3"}, zap.NewNop()).RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body HealthResponse
	decodeBody(t, resp, &body)

	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "1.2.3", body.Version)
}
