package handlers

import (
	"encoding/json"
	"io"
	"json-storage/handlers/api/status"
	"json-storage/stores/filesystem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := filesystem.NewDocumentStore(dir)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	srv := httptest.NewServer(NewRouter(store, Options{
		StoragePath:  dir,
		Version:      "test",
		MaxBodyBytes: 1024,
		Logger:       logger,
	}))
	t.Cleanup(srv.Close)
	return srv, dir
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, string) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestScenario(t *testing.T) {
	srv, dir := newTestServer(t)

	code, body := do(t, srv, http.MethodPost, "/json", `{"id":"user1","data":{"name":"ann"}}`)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"message":"JSON created","id":"user1"}`, body)

	code, body = do(t, srv, http.MethodGet, "/json/user1", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"id":"user1","data":{"name":"ann"}}`, body)

	code, body = do(t, srv, http.MethodPost, "/json", `{"id":"user1","data":{"name":"zed"}}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.JSONEq(t, `{"detail":"JSON with this ID already exists"}`, body)

	// PUT carries the document itself, not the {id, data} envelope.
	code, body = do(t, srv, http.MethodPut, "/json/user1", `{"name":"bob"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"message":"JSON updated","id":"user1"}`, body)

	raw, err := os.ReadFile(filepath.Join(dir, "user1.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"bob"}`, string(raw))

	code, body = do(t, srv, http.MethodGet, "/json/user1", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"id":"user1","data":{"name":"bob"}}`, body)

	code, body = do(t, srv, http.MethodDelete, "/json/user1", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"message":"JSON deleted","id":"user1"}`, body)

	code, body = do(t, srv, http.MethodGet, "/json/user1", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.JSONEq(t, `{"detail":"JSON not found"}`, body)
}

func TestMissingDocuments(t *testing.T) {
	srv, dir := newTestServer(t)

	code, _ := do(t, srv, http.MethodPut, "/json/nobody", `{"a":1}`)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = do(t, srv, http.MethodDelete, "/json/nobody", "")
	assert.Equal(t, http.StatusNotFound, code)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMalformedRequests(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{"create empty body", http.MethodPost, "/json", "", http.StatusUnprocessableEntity},
		{"create invalid json", http.MethodPost, "/json", `{"id":`, http.StatusUnprocessableEntity},
		{"create missing id", http.MethodPost, "/json", `{"data":{}}`, http.StatusUnprocessableEntity},
		{"create missing data", http.MethodPost, "/json", `{"id":"x"}`, http.StatusUnprocessableEntity},
		{"create array data", http.MethodPost, "/json", `{"id":"x","data":[1]}`, http.StatusUnprocessableEntity},
		{"create traversal id", http.MethodPost, "/json", `{"id":"../x","data":{}}`, http.StatusUnprocessableEntity},
		{"create too large", http.MethodPost, "/json", `{"id":"x","data":{"pad":"` + strings.Repeat("a", 2048) + `"}}`, http.StatusRequestEntityTooLarge},
		{"update scalar body", http.MethodPut, "/json/x", `42`, http.StatusUnprocessableEntity},
		{"update invalid json", http.MethodPut, "/json/x", `{`, http.StatusUnprocessableEntity},
		{"create trailing garbage", http.MethodPost, "/json", `{"id":"u","data":{"a":1}} this is not json`, http.StatusUnprocessableEntity},
		{"create second value", http.MethodPost, "/json", `{"id":"u","data":{}} {"id":"v","data":{}}`, http.StatusUnprocessableEntity},
		{"update trailing braces", http.MethodPut, "/json/x", `{"a":2}}}}`, http.StatusUnprocessableEntity},
		{"read invalid id", http.MethodGet, "/json/..%2Fx", "", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.code, code, body)
			var resp map[string]string
			require.NoError(t, json.Unmarshal([]byte(body), &resp))
			assert.NotEmpty(t, resp["detail"])
		})
	}
}

func TestTrailingDataStoresNothing(t *testing.T) {
	srv, dir := newTestServer(t)

	code, _ := do(t, srv, http.MethodPost, "/json", `{"id":"u","data":{"a":1}} this is not json`)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	_, err := os.Stat(filepath.Join(dir, "u.json"))
	assert.True(t, os.IsNotExist(err))

	code, _ = do(t, srv, http.MethodPost, "/json", "{\"id\":\"u\",\"data\":{\"a\":1}}\n\t ")
	require.Equal(t, http.StatusOK, code, "trailing whitespace is allowed")
	code, _ = do(t, srv, http.MethodPut, "/json/u", `{"a":2}}}}`)
	require.Equal(t, http.StatusUnprocessableEntity, code)

	raw, err := os.ReadFile(filepath.Join(dir, "u.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(raw))
}

func TestCorruptDocumentHidesDetails(t *testing.T) {
	srv, dir := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"a":`), 0644))

	code, body := do(t, srv, http.MethodGet, "/json/broken", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.JSONEq(t, `{"detail":"internal server error"}`, body)
}

func TestStatusEndpoints(t *testing.T) {
	srv, dir := newTestServer(t)

	code, body := do(t, srv, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, code)
	var root status.RootResponse
	require.NoError(t, json.Unmarshal([]byte(body), &root))
	assert.Equal(t, dir, root.StoragePath)
	assert.Equal(t, status.DocsPath, root.Docs)
	assert.NotEmpty(t, root.Message)

	code, body = do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"healthy","version":"test"}`, body)

	code, body = do(t, srv, http.MethodGet, "/docs", "")
	assert.Equal(t, http.StatusOK, code)
	var docs status.DocsResponse
	require.NoError(t, json.Unmarshal([]byte(body), &docs))
	assert.Contains(t, docs.Routes, status.Route{Method: http.MethodPost, Path: "/json"})
	assert.Contains(t, docs.Routes, status.Route{Method: http.MethodDelete, Path: "/json/{id}"})
}

func TestRequestIDHeader(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Len(t, resp.Header.Get("X-Request-Id"), 26)
}
