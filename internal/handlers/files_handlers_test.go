package handlers

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/filesmanager/backend/internal/queue"
	"github.com/filesmanager/backend/internal/testutil"
	"github.com/filesmanager/backend/internal/worker"
	"github.com/gofiber/fiber/v2"
)

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func createFile(t *testing.T, app *fiber.App, token string, payload map[string]any) map[string]any {
	t.Helper()
	resp := performJSONRequest(t, app, http.MethodPost, "/files", payload, tokenHeaders(token))
	assertStatus(t, resp, fiber.StatusCreated)
	return decodeJSONMap(t, resp)
}

func TestCreateFileValidation(t *testing.T) {
	env := setupTestEnv(t)
	_, token := registerAndLogin(t, env.app, "a@x.com", "pw1")
	leaf := createFile(t, env.app, token, map[string]any{"name": "a.txt", "type": "file", "data": b64("x")})

	tests := []struct {
		name    string
		payload map[string]any
		message string
	}{
		{"missing name", map[string]any{"type": "folder"}, "Missing name"},
		{"missing type", map[string]any{"name": "x"}, "Missing type"},
		{"bad type", map[string]any{"name": "x", "type": "video"}, "Missing type"},
		{"missing data", map[string]any{"name": "x", "type": "file"}, "Missing data"},
		{"unknown parent", map[string]any{"name": "x", "type": "folder", "parentId": "33333333-3333-3333-3333-333333333333"}, "Parent not found"},
		{"unparsable parent", map[string]any{"name": "x", "type": "folder", "parentId": "zzz"}, "Parent not found"},
		{"numeric non-root parent", map[string]any{"name": "x", "type": "folder", "parentId": 7}, "Parent not found"},
		{"parent is a file", map[string]any{"name": "x", "type": "folder", "parentId": leaf["id"]}, "Parent is not a folder"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := performJSONRequest(t, env.app, http.MethodPost, "/files", tt.payload, tokenHeaders(token))
			assertError(t, resp, fiber.StatusBadRequest, tt.message)
		})
	}

	t.Run("requires a token", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/files", map[string]any{"name": "x", "type": "folder"}, nil)
		assertError(t, resp, fiber.StatusUnauthorized, "Unauthorized")
	})
}

func TestCreateFileView(t *testing.T) {
	env := setupTestEnv(t)
	userID, token := registerAndLogin(t, env.app, "a@x.com", "pw1")

	folder := createFile(t, env.app, token, map[string]any{"name": "docs", "type": "folder", "parentId": 0})
	if folder["parentId"] != float64(0) {
		t.Fatalf("expected numeric root parentId, got %#v", folder["parentId"])
	}
	if folder["userId"] != userID || folder["isPublic"] != false || folder["type"] != "folder" {
		t.Fatalf("unexpected folder view %v", folder)
	}
	if _, leaked := folder["localPath"]; leaked {
		t.Fatal("localPath must not be exposed")
	}

	child := createFile(t, env.app, token, map[string]any{
		"name": "p.png", "type": "image", "data": b64("png"), "parentId": folder["id"], "isPublic": true,
	})
	if child["parentId"] != folder["id"] || child["isPublic"] != true {
		t.Fatalf("unexpected child view %v", child)
	}
	if n := env.broker.Len(queue.FileQueue); n != 1 {
		t.Fatalf("expected 1 thumbnail job, got %d", n)
	}
}

func TestGetAndPublish(t *testing.T) {
	env := setupTestEnv(t)
	_, owner := registerAndLogin(t, env.app, "a@x.com", "pw1")
	_, other := registerAndLogin(t, env.app, "b@x.com", "pw2")

	file := createFile(t, env.app, owner, map[string]any{"name": "a.txt", "type": "file", "data": b64("x")})
	id := file["id"].(string)

	t.Run("owner can read metadata", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/files/"+id, nil, tokenHeaders(owner))
		assertStatus(t, resp, fiber.StatusOK)
		if body := decodeJSONMap(t, resp); body["name"] != "a.txt" {
			t.Fatalf("unexpected body %v", body)
		}
	})

	t.Run("foreign and missing look the same", func(t *testing.T) {
		for _, path := range []string{"/files/" + id, "/files/44444444-4444-4444-4444-444444444444", "/files/garbage"} {
			resp := performRequest(t, env.app, http.MethodGet, path, nil, tokenHeaders(other))
			assertError(t, resp, fiber.StatusNotFound, "Not found")
		}
		resp := performRequest(t, env.app, http.MethodPut, "/files/"+id+"/publish", nil, tokenHeaders(other))
		assertError(t, resp, fiber.StatusNotFound, "Not found")
	})

	t.Run("publish and unpublish", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodPut, "/files/"+id+"/publish", nil, tokenHeaders(owner))
		assertStatus(t, resp, fiber.StatusOK)
		if body := decodeJSONMap(t, resp); body["isPublic"] != true {
			t.Fatalf("expected isPublic=true, got %v", body)
		}

		resp = performRequest(t, env.app, http.MethodPut, "/files/"+id+"/unpublish", nil, tokenHeaders(owner))
		assertStatus(t, resp, fiber.StatusOK)
		if body := decodeJSONMap(t, resp); body["isPublic"] != false {
			t.Fatalf("expected isPublic=false, got %v", body)
		}
	})

	t.Run("requires a token", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/files/"+id, nil, nil)
		assertError(t, resp, fiber.StatusUnauthorized, "Unauthorized")
		resp = performRequest(t, env.app, http.MethodPut, "/files/"+id+"/publish", nil, nil)
		assertError(t, resp, fiber.StatusUnauthorized, "Unauthorized")
	})
}

func TestListFiles(t *testing.T) {
	env := setupTestEnv(t)
	_, token := registerAndLogin(t, env.app, "a@x.com", "pw1")

	folder := createFile(t, env.app, token, map[string]any{"name": "docs", "type": "folder"})
	for i := 0; i < 21; i++ {
		createFile(t, env.app, token, map[string]any{"name": fmt.Sprintf("f%02d", i), "type": "file", "data": b64("x"), "parentId": folder["id"]})
	}

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"root by default", "", 1},
		{"root by zero", "?parentId=0", 1},
		{"first page", "?parentId=" + folder["id"].(string), 20},
		{"second page", "?parentId=" + folder["id"].(string) + "&page=1", 1},
		{"junk page", "?parentId=" + folder["id"].(string) + "&page=abc", 20},
		{"unknown parent", "?parentId=nope", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := performRequest(t, env.app, http.MethodGet, "/files"+tt.query, nil, tokenHeaders(token))
			assertStatus(t, resp, fiber.StatusOK)
			if got := decodeJSONList(t, resp); len(got) != tt.want {
				t.Fatalf("expected %d entries, got %d", tt.want, len(got))
			}
		})
	}

	t.Run("insertion order", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/files?parentId="+folder["id"].(string), nil, tokenHeaders(token))
		list := decodeJSONList(t, resp)
		if list[0]["name"] != "f00" || list[19]["name"] != "f19" {
			t.Fatalf("unexpected order: first=%v last=%v", list[0]["name"], list[19]["name"])
		}
	})
}

func TestFileData(t *testing.T) {
	env := setupTestEnv(t)
	_, owner := registerAndLogin(t, env.app, "a@x.com", "pw1")
	_, other := registerAndLogin(t, env.app, "b@x.com", "pw2")

	file := createFile(t, env.app, owner, map[string]any{"name": "note.txt", "type": "file", "data": b64("hello world")})
	folder := createFile(t, env.app, owner, map[string]any{"name": "docs", "type": "folder", "isPublic": true})
	dataPath := "/files/" + file["id"].(string) + "/data"

	t.Run("private file hidden from anonymous and other users", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, dataPath, nil, nil)
		assertError(t, resp, fiber.StatusNotFound, "Not found")
		resp = performRequest(t, env.app, http.MethodGet, dataPath, nil, tokenHeaders(other))
		assertError(t, resp, fiber.StatusNotFound, "Not found")
		resp = performRequest(t, env.app, http.MethodGet, dataPath, nil, tokenHeaders("stale"))
		assertError(t, resp, fiber.StatusNotFound, "Not found")
	})

	t.Run("owner reads private file", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, dataPath, nil, tokenHeaders(owner))
		assertStatus(t, resp, fiber.StatusOK)
		if ct := resp.Header.Get("Content-Type"); ct != "text/plain; charset=utf-8" {
			t.Errorf("unexpected content type %q", ct)
		}
		if body := string(readBody(t, resp)); body != "hello world" {
			t.Fatalf("unexpected body %q", body)
		}
	})

	t.Run("folder has no content", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/files/"+folder["id"].(string)+"/data", nil, nil)
		assertError(t, resp, fiber.StatusBadRequest, "A folder doesn't have content")
	})

	t.Run("missing variant", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, dataPath+"?size=100", nil, tokenHeaders(owner))
		assertError(t, resp, fiber.StatusNotFound, "Not found")
	})
}

func TestImageVariantsServedAfterWorkerRuns(t *testing.T) {
	env := setupTestEnv(t)
	_, token := registerAndLogin(t, env.app, "a@x.com", "pw1")

	original := testutil.PNG(t, 640, 480)
	img := createFile(t, env.app, token, map[string]any{
		"name": "pic.png",
		"type": "image",
		"data": base64.StdEncoding.EncodeToString(original),
	})
	dataPath := "/files/" + img["id"].(string) + "/data"

	resp := performRequest(t, env.app, http.MethodGet, dataPath+"?size=500", nil, tokenHeaders(token))
	assertError(t, resp, fiber.StatusNotFound, "Not found")

	ctx := context.Background()
	payload, err := env.broker.Pop(ctx, queue.FileQueue, time.Second)
	if err != nil {
		t.Fatalf("expected queued thumbnail job: %v", err)
	}
	if err := worker.NewThumbnailProcessor(env.store.Files(), env.blobs).Handle(ctx, payload); err != nil {
		t.Fatalf("thumbnail job failed: %v", err)
	}

	for _, size := range []int{100, 250, 500} {
		resp := performRequest(t, env.app, http.MethodGet, fmt.Sprintf("%s?size=%d", dataPath, size), nil, tokenHeaders(token))
		assertStatus(t, resp, fiber.StatusOK)
		if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("size %d: unexpected content type %q", size, ct)
		}
		if body := readBody(t, resp); len(body) == 0 || len(body) == len(original) {
			t.Fatalf("size %d: expected a distinct variant, got %d bytes", size, len(body))
		}
	}
}

func TestScenario(t *testing.T) {
	env := setupTestEnv(t)
	_, token := registerAndLogin(t, env.app, "a@x.com", "pw1")

	docs := createFile(t, env.app, token, map[string]any{"name": "docs", "type": "folder"})
	note := createFile(t, env.app, token, map[string]any{
		"name": "note.txt", "type": "file", "data": b64("hello world"), "parentId": docs["id"],
	})
	id := note["id"].(string)

	resp := performRequest(t, env.app, http.MethodGet, "/files/"+id, nil, tokenHeaders(token))
	assertStatus(t, resp, fiber.StatusOK)
	got := decodeJSONMap(t, resp)
	if got["name"] != "note.txt" || got["type"] != "file" || got["parentId"] != docs["id"] {
		t.Fatalf("unexpected metadata %v", got)
	}

	resp = performRequest(t, env.app, http.MethodGet, "/files/"+id+"/data", nil, nil)
	assertError(t, resp, fiber.StatusNotFound, "Not found")

	resp = performRequest(t, env.app, http.MethodPut, "/files/"+id+"/publish", nil, tokenHeaders(token))
	assertStatus(t, resp, fiber.StatusOK)

	resp = performRequest(t, env.app, http.MethodGet, "/files/"+id+"/data", nil, nil)
	assertStatus(t, resp, fiber.StatusOK)
	if body := string(readBody(t, resp)); body != "hello world" {
		t.Fatalf("expected hello world, got %q", body)
	}
}
