package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/filesmanager/backend/internal/cache"
	"github.com/filesmanager/backend/internal/middleware"
	"github.com/filesmanager/backend/internal/queue"
	"github.com/filesmanager/backend/internal/services"
	"github.com/filesmanager/backend/internal/session"
	"github.com/filesmanager/backend/internal/storage"
	"github.com/filesmanager/backend/internal/store/sqlstore"
	"github.com/filesmanager/backend/internal/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/afero"
)

type testEnv struct {
	app    *fiber.App
	store  *sqlstore.Store
	blobs  *storage.LocalStorage
	broker *queue.MemoryBroker
	redis  *miniredis.Miniredis
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s := testutil.NewStore(t)
	server, rdb := testutil.NewRedis(t)
	kv := cache.NewWithClient(rdb)
	blobs := storage.NewLocalStorageFs(afero.NewMemMapFs(), "/tmp/files_manager")
	broker := queue.NewMemoryBroker(100)
	jobs := queue.NewJobs(broker)

	auth := services.NewAuthService(s.Users(), session.NewStore(kv, 0), jobs)
	files := services.NewFileService(s.Files(), blobs, jobs)

	app := NewApp(Deps{
		Auth:    auth,
		Files:   files,
		Backend: s,
		Cache:   kv,
	})

	return &testEnv{app: app, store: s, blobs: blobs, broker: broker, redis: server}
}

func basicAuth(email, password string) map[string]string {
	encoded := base64.StdEncoding.EncodeToString([]byte(email + ":" + password))
	return map[string]string{"Authorization": "Basic " + encoded}
}

func tokenHeaders(token string) map[string]string {
	return map[string]string{middleware.TokenHeader: token}
}

// registerAndLogin creates a user through the API and returns its id and a session token.
func registerAndLogin(t *testing.T, app *fiber.App, email, password string) (string, string) {
	t.Helper()

	resp := performJSONRequest(t, app, http.MethodPost, "/users", map[string]any{"email": email, "password": password}, nil)
	assertStatus(t, resp, fiber.StatusCreated)
	user := decodeJSONMap(t, resp)

	resp = performRequest(t, app, http.MethodGet, "/connect", nil, basicAuth(email, password))
	assertStatus(t, resp, fiber.StatusOK)
	token, _ := decodeJSONMap(t, resp)["token"].(string)
	if token == "" {
		t.Fatal("expected a token from /connect")
	}

	id, _ := user["id"].(string)
	return id, token
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	encoded, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	requestHeaders := map[string]string{"Content-Type": "application/json"}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	return performRequest(t, app, method, path, bytes.NewReader(encoded), requestHeaders)
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}
	return raw
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw := readBody(t, resp)
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}
	return payload
}

func decodeJSONList(t *testing.T, resp *http.Response) []map[string]any {
	t.Helper()
	raw := readBody(t, resp)
	var payload []map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON list: %v body=%q", err, string(raw))
	}
	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertError(t *testing.T, resp *http.Response, status int, expected string) {
	t.Helper()
	assertStatus(t, resp, status)
	if got, _ := decodeJSONMap(t, resp)["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}
