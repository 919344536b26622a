package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Artmann/squeal/pkg/models"
)

func newQueriesServer(runner *mockQueryRunner) *httptest.Server {
	mux := http.NewServeMux()
	NewQueriesHandler(runner, zap.NewNop()).RegisterRoutes(mux)
	return httptest.NewServer(mux)
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()

	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestCreateQuery(t *testing.T) {
	runner := newMockQueryRunner()
	server := newQueriesServer(runner)
	defer server.Close()

	resp := postJSON(t, server.URL+"/queries", `{
		"id": "query-1",
		"content": "SELECT * FROM users",
		"databaseId": "db-1",
		"worksheetId": "ws-1",
		"queriedAt": 1756600000000
	}`)

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body CreateQueryResponse
	decodeBody(t, resp, &body)

	assert.Equal(t, "query-1", body.Query.ID)
	assert.Equal(t, "SELECT * FROM users", body.Query.Content)
	assert.Equal(t, "db-1", body.Query.DatabaseID)
	assert.Equal(t, "ws-1", body.Query.WorksheetID)
	assert.Equal(t, int64(1756600000000), body.Query.QueriedAt)
	assert.Nil(t, body.Query.FinishedAt)
	assert.Nil(t, body.Query.Result)
	assert.Nil(t, body.Query.Error)

	require.Len(t, runner.submitted, 1)
}

func TestCreateQueryAllowsEmptyContent(t *testing.T) {
	runner := newMockQueryRunner()
	server := newQueriesServer(runner)
	defer server.Close()

	resp := postJSON(t, server.URL+"/queries", `{
		"id": "query-1",
		"content": "",
		"databaseId": "db-1",
		"worksheetId": "ws-1",
		"queriedAt": 1756600000000
	}`)

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateQueryValidation(t *testing.T) {
	server := newQueriesServer(newMockQueryRunner())
	defer server.Close()

	resp := postJSON(t, server.URL+"/queries", `{"content": "SELECT 1"}`)

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body ErrorBody
	decodeBody(t, resp, &body)

	assert.Equal(t, "Validation error", body.Error.Message)
	assert.Equal(t, "Required.", body.Error.Details["id"])
	assert.Equal(t, "Required.", body.Error.Details["databaseId"])
	assert.Equal(t, "Required.", body.Error.Details["worksheetId"])
	assert.Equal(t, "Required.", body.Error.Details["queriedAt"])
	assert.NotContains(t, body.Error.Details, "content")
}

func TestCreateQueryInvalidJSON(t *testing.T) {
	server := newQueriesServer(newMockQueryRunner())
	defer server.Close()

	resp := postJSON(t, server.URL+"/queries", `{not json`)

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body ErrorBody
	decodeBody(t, resp, &body)
	assert.Equal(t, "Invalid JSON in request body.", body.Error.Message)
}

func TestCreateQueryDuplicateID(t *testing.T) {
	runner := newMockQueryRunner(&models.Query{ID: "query-1"})
	server := newQueriesServer(runner)
	defer server.Close()

	resp := postJSON(t, server.URL+"/queries", `{
		"id": "query-1",
		"content": "SELECT 1",
		"databaseId": "db-1",
		"worksheetId": "ws-1",
		"queriedAt": 1756600000000
	}`)

	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var body ErrorBody
	decodeBody(t, resp, &body)
	assert.Equal(t, "Query already exists", body.Error.Message)
}

func TestGetQueryPending(t *testing.T) {
	runner := newMockQueryRunner(&models.Query{
		ID:          "query-1",
		Content:     "SELECT 1",
		DatabaseID:  "db-1",
		WorksheetID: "ws-1",
		QueriedAt:   1756600000000,
	})
	server := newQueriesServer(runner)
	defer server.Close()

	resp, err := http.Get(server.URL + "/queries/query-1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body GetQueryResponse
	decodeBody(t, resp, &body)

	assert.Equal(t, "query-1", body.Query.ID)
	assert.Nil(t, body.Query.FinishedAt)
	assert.Nil(t, body.Query.Result)
	assert.Nil(t, body.Query.Error)
}

func TestGetQueryFinished(t *testing.T) {
	finishedAt := int64(1756600001234)
	runner := newMockQueryRunner(&models.Query{
		ID:         "query-1",
		Content:    "SELECT id FROM users",
		DatabaseID: "db-1",
		QueriedAt:  1756600000000,
		FinishedAt: &finishedAt,
		Result: &models.QueryResult{
			Columns: []string{"id"},
			Rows:    [][]any{{float64(1)}, {float64(2)}},
		},
	})
	server := newQueriesServer(runner)
	defer server.Close()

	resp, err := http.Get(server.URL + "/queries/query-1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body GetQueryResponse
	decodeBody(t, resp, &body)

	require.NotNil(t, body.Query.FinishedAt)
	assert.Equal(t, finishedAt, *body.Query.FinishedAt)
	require.NotNil(t, body.Query.Result)
	assert.Equal(t, []string{"id"}, body.Query.Result.Columns)
	assert.Len(t, body.Query.Result.Rows, 2)
	assert.Nil(t, body.Query.Error)
}

func TestGetQueryFailed(t *testing.T) {
	finishedAt := int64(1756600001234)
	message := `relation "users" does not exist`
	runner := newMockQueryRunner(&models.Query{
		ID:         "query-1",
		QueriedAt:  1756600000000,
		FinishedAt: &finishedAt,
		Error:      &message,
	})
	server := newQueriesServer(runner)
	defer server.Close()

	resp, err := http.Get(server.URL + "/queries/query-1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body GetQueryResponse
	decodeBody(t, resp, &body)

	require.NotNil(t, body.Query.Error)
	assert.Equal(t, message, *body.Query.Error)
	assert.Nil(t, body.Query.Result)
}

func TestGetQueryNotFound(t *testing.T) {
	server := newQueriesServer(newMockQueryRunner())
	defer server.Close()

	resp, err := http.Get(server.URL + "/queries/missing")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body ErrorBody
	decodeBody(t, resp, &body)
	assert.Equal(t, "Query not found", body.Error.Message)
}

func TestListQueries(t *testing.T) {
	runner := newMockQueryRunner(
		&models.Query{ID: "query-1", QueriedAt: 1},
		&models.Query{ID: "query-2", QueriedAt: 2},
	)
	server := newQueriesServer(runner)
	defer server.Close()

	resp, err := http.Get(server.URL + "/queries")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body ListQueriesResponse
	decodeBody(t, resp, &body)
	assert.Len(t, body.Queries, 2)
}
