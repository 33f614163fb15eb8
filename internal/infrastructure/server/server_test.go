package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/webruntime/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/infrastructure/monitoring"
)

func writeDescriptor(t *testing.T, root, dir, name, body string) {
	t.Helper()
	path := filepath.Join(root, dir)
	require.NoError(t, os.MkdirAll(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, name), []byte(body), 0o644))
}

func newTestServer(t *testing.T, appsDir string) *Server {
	t.Helper()

	cfg := config.Default()
	cfg.Runtime.AppsDir = appsDir
	cfg.Runtime.ContainerAppID = "com.example.container"
	cfg.RateLimit.Enabled = false

	metrics := monitoring.NewRegistryMetrics()
	srv, err := NewServer(cfg, WithLogger(logging.NewNop()), WithMetrics(metrics))
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		_ = sonic.ConfigStd.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func installApps(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeDescriptor(t, root, "container", "appinfo.json",
		`{"id": "com.example.container", "title": "Container", "trustLevel": "internal"}`)
	writeDescriptor(t, root, "debug", "appinfo.yaml",
		"id: com.example.debug\ntitle: Debug\ninspectable: true\n")
	return root
}

func TestServerLaunchesContainerAtStartup(t *testing.T) {
	srv := newTestServer(t, installApps(t))

	list := srv.Manager().List()
	require.Len(t, list, 1)
	assert.Equal(t, "com.example.container", list[0].Manifest().ID())
	assert.Equal(t, 2, srv.Catalog().Len())
}

func TestServerWithoutInstallRoot(t *testing.T) {
	srv := newTestServer(t, filepath.Join(t.TempDir(), "missing"))

	assert.Equal(t, 0, srv.Catalog().Len())
	assert.Empty(t, srv.Manager().List())

	w, body := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestServerRootAndMetrics(t *testing.T) {
	srv := newTestServer(t, installApps(t))

	w, body := do(t, srv, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "online", body["status"])

	w, _ = do(t, srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "webruntime_catalog_apps 2")
}

func TestServerCatalogRoutes(t *testing.T) {
	root := installApps(t)
	srv := newTestServer(t, root)

	w, body := do(t, srv, http.MethodGet, "/catalog", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, body["count"])

	w, body = do(t, srv, http.MethodGet, "/catalog/com.example.debug", "")
	require.Equal(t, http.StatusOK, w.Code)
	entry := body["entry"].(map[string]interface{})
	assert.Equal(t, "yaml", entry["format"])

	w, _ = do(t, srv, http.MethodGet, "/catalog/com.example.unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	writeDescriptor(t, root, "late", "appinfo.toml", "id = \"com.example.late\"\n")
	w, body = do(t, srv, http.MethodPost, "/catalog/rescan", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, body["loaded"])
	assert.Equal(t, 3, srv.Catalog().Len())
}

func TestServerInstanceLifecycle(t *testing.T) {
	srv := newTestServer(t, installApps(t))

	w, body := do(t, srv, http.MethodPost, "/catalog/com.example.debug/launch", `{"params": "{\"page\":1}"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, false, body["reused"])
	instanceID := body["instance"].(map[string]interface{})["id"].(string)

	w, body = do(t, srv, http.MethodPost, "/catalog/com.example.debug/launch", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["reused"])
	assert.EqualValues(t, 2, body["launches"])

	w, body = do(t, srv, http.MethodPost, "/instances/"+instanceID+"/call", `{"method": "launchParams"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, `{"page":1}`, body["payload"])

	w, body = do(t, srv, http.MethodPost, "/instances/"+instanceID+"/call", `{"method": "setContainerAppReady", "params": ["com.example.container"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["ok"])

	w, body = do(t, srv, http.MethodPost, "/instances/"+instanceID+"/eval", `{"script": "PalmSystem.identifier()"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "com.example.debug", body["result"])

	w, _ = do(t, srv, http.MethodGet, "/instances/"+instanceID, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, srv, http.MethodDelete, "/instances/"+instanceID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = do(t, srv, http.MethodGet, "/instances/"+instanceID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServerContainerReadiness(t *testing.T) {
	srv := newTestServer(t, installApps(t))

	container := srv.Manager().List()[0]
	w, body := do(t, srv, http.MethodPost, "/instances/"+container.ID().String()+"/call",
		`{"method": "setContainerAppReady", "params": ["com.example.container"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["ok"])

	w, body = do(t, srv, http.MethodGet, "/instances", "")
	require.Equal(t, http.StatusOK, w.Code)
	stats := body["stats"].(map[string]interface{})
	assert.Equal(t, true, stats["container_ready"])
}

func TestServerRejectsMalformedInstanceID(t *testing.T) {
	srv := newTestServer(t, installApps(t))

	w, _ := do(t, srv, http.MethodGet, "/instances/not-an-id", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServerShutdownWithoutRun(t *testing.T) {
	cfg := config.Default()
	cfg.Runtime.AppsDir = t.TempDir()
	cfg.RateLimit.Enabled = false

	srv, err := NewServer(cfg, WithLogger(logging.NewNop()), WithMetrics(monitoring.NewRegistryMetrics()))
	require.NoError(t, err)
	assert.NoError(t, srv.Shutdown(context.Background()))
}

func TestServerValidatesInput(t *testing.T) {
	srv := newTestServer(t, installApps(t))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"bad app id", http.MethodGet, "/catalog/bad%20id", "", http.StatusBadRequest},
		{"launch params not json", http.MethodPost, "/catalog/com.example.debug/launch", `{"params": "{oops"}`, http.StatusBadRequest},
		{"launch body not json", http.MethodPost, "/catalog/com.example.debug/launch", `[`, http.StatusBadRequest},
		{"unknown app", http.MethodPost, "/catalog/com.example.unknown/launch", "", http.StatusNotFound},
		{"display affinity wraps", http.MethodPost, "/catalog/com.example.debug/launch", `{"display_affinity": 4294967296}`, http.StatusBadRequest},
		{"display affinity above int32", http.MethodPost, "/catalog/com.example.debug/launch", `{"display_affinity": 2147483648}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := do(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code)
		})
	}
	assert.Len(t, srv.Manager().List(), 1)
}
