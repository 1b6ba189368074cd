package services

import (
	"context"
	"encoding/base64"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/filesmanager/backend/internal/cache"
	"github.com/filesmanager/backend/internal/models"
	"github.com/filesmanager/backend/internal/session"
	"github.com/filesmanager/backend/internal/storage"
	"github.com/filesmanager/backend/internal/store"
	"github.com/filesmanager/backend/internal/store/sqlstore"
	"github.com/filesmanager/backend/internal/testutil"
	"github.com/filesmanager/backend/internal/worker"
	"github.com/spf13/afero"
)

type recordingJobs struct {
	mu         sync.Mutex
	thumbnails []models.ThumbnailJob
	welcomes   []models.WelcomeJob
	err        error
}

func (r *recordingJobs) EnqueueThumbnail(_ context.Context, job models.ThumbnailJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.thumbnails = append(r.thumbnails, job)
	return r.err
}

func (r *recordingJobs) EnqueueWelcome(_ context.Context, job models.WelcomeJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.welcomes = append(r.welcomes, job)
	return r.err
}

type harness struct {
	fs    afero.Fs
	store *sqlstore.Store
	blobs *storage.LocalStorage
	jobs  *recordingJobs
	auth  *AuthService
	files *FileService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s := testutil.NewStore(t)
	_, rdb := testutil.NewRedis(t)
	fs := afero.NewMemMapFs()
	blobs := storage.NewLocalStorageFs(fs, "/tmp/files_manager")
	jobs := &recordingJobs{}
	sessions := session.NewStore(cache.NewWithClient(rdb), 0)

	return &harness{
		fs:    fs,
		store: s,
		blobs: blobs,
		jobs:  jobs,
		auth:  NewAuthService(s.Users(), sessions, jobs),
		files: NewFileService(s.Files(), blobs, jobs),
	}
}

// failingInsert passes reads through and fails every insert.
type failingInsert struct {
	store.Files
	err error
}

func (f failingInsert) InsertUnder(context.Context, *models.File) error {
	return f.err
}

func (h *harness) register(t *testing.T, email, password string) *models.User {
	t.Helper()
	user, err := h.auth.Register(context.Background(), email, password)
	if err != nil {
		t.Fatalf("failed registering %s: %v", email, err)
	}
	return user
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestParseBasicAuth(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		email    string
		password string
		ok       bool
	}{
		{"valid", "Basic " + b64("a@x.com:pw1"), "a@x.com", "pw1", true},
		{"password with colon", "Basic " + b64("a@x.com:p:w"), "a@x.com", "p:w", true},
		{"lowercase scheme", "basic " + b64("a@x.com:pw1"), "a@x.com", "pw1", true},
		{"missing scheme", b64("a@x.com:pw1"), "", "", false},
		{"bearer", "Bearer " + b64("a@x.com:pw1"), "", "", false},
		{"not base64", "Basic !!!", "", "", false},
		{"no colon", "Basic " + b64("a@x.com"), "", "", false},
		{"empty password", "Basic " + b64("a@x.com:"), "", "", false},
		{"empty", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email, password, ok := ParseBasicAuth(tt.header)
			if ok != tt.ok || email != tt.email || password != tt.password {
				t.Fatalf("got (%q, %q, %v), want (%q, %q, %v)", email, password, ok, tt.email, tt.password, tt.ok)
			}
		})
	}
}

func TestAuthService(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	user := h.register(t, "a@x.com", "pw1")

	t.Run("register queues one welcome job and hashes the password", func(t *testing.T) {
		if len(h.jobs.welcomes) != 1 || h.jobs.welcomes[0].UserID != user.ID {
			t.Fatalf("expected one welcome job for %s, got %+v", user.ID, h.jobs.welcomes)
		}
		if user.PasswordHash == "pw1" || user.PasswordHash == "" {
			t.Fatalf("expected hashed password, got %q", user.PasswordHash)
		}
	})

	t.Run("register validation", func(t *testing.T) {
		if _, err := h.auth.Register(ctx, "", "pw"); !errors.Is(err, ErrMissingEmail) {
			t.Fatalf("expected ErrMissingEmail, got %v", err)
		}
		if _, err := h.auth.Register(ctx, "b@x.com", ""); !errors.Is(err, ErrMissingPassword) {
			t.Fatalf("expected ErrMissingPassword, got %v", err)
		}
		if _, err := h.auth.Register(ctx, "a@x.com", "other"); !errors.Is(err, ErrEmailTaken) {
			t.Fatalf("expected ErrEmailTaken, got %v", err)
		}
	})

	t.Run("authenticate then resolve returns the same user", func(t *testing.T) {
		token, err := h.auth.Authenticate(ctx, "a@x.com", "pw1")
		if err != nil {
			t.Fatalf("authenticate: %v", err)
		}
		userID, err := h.auth.ResolveSession(ctx, token)
		if err != nil || userID != user.ID {
			t.Fatalf("expected %s, got %s err=%v", user.ID, userID, err)
		}
	})

	t.Run("bad credentials are unauthorized", func(t *testing.T) {
		cases := [][2]string{{"a@x.com", "wrong"}, {"nobody@x.com", "pw1"}, {"", "pw1"}, {"a@x.com", ""}}
		for _, c := range cases {
			if _, err := h.auth.Authenticate(ctx, c[0], c[1]); !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized for %v, got %v", c, err)
			}
		}
	})

	t.Run("end session revokes the token", func(t *testing.T) {
		token, err := h.auth.Authenticate(ctx, "a@x.com", "pw1")
		if err != nil {
			t.Fatalf("authenticate: %v", err)
		}
		if err := h.auth.EndSession(ctx, token); err != nil {
			t.Fatalf("end session: %v", err)
		}
		if _, err := h.auth.ResolveSession(ctx, token); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized after logout, got %v", err)
		}
		if err := h.auth.EndSession(ctx, token); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized on second logout, got %v", err)
		}
	})

	t.Run("unknown and empty tokens", func(t *testing.T) {
		for _, token := range []string{"", "never-issued"} {
			if _, err := h.auth.ResolveSession(ctx, token); !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized for %q, got %v", token, err)
			}
		}
	})

	t.Run("passwords longer than 72 bytes register and log in", func(t *testing.T) {
		long := strings.Repeat("p", 80)
		registered, err := h.auth.Register(ctx, "long@x.com", long)
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		token, err := h.auth.Authenticate(ctx, "long@x.com", long)
		if err != nil {
			t.Fatalf("authenticate: %v", err)
		}
		userID, err := h.auth.ResolveSession(ctx, token)
		if err != nil || userID != registered.ID {
			t.Fatalf("expected %s, got %s err=%v", registered.ID, userID, err)
		}
		if _, err := h.auth.Authenticate(ctx, "long@x.com", long[:79]+"q"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized for a different tail, got %v", err)
		}
	})

	t.Run("me", func(t *testing.T) {
		me, err := h.auth.Me(ctx, user.ID)
		if err != nil || me.Email != "a@x.com" {
			t.Fatalf("expected a@x.com, got %+v err=%v", me, err)
		}
		if _, err := h.auth.Me(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized for missing user, got %v", err)
		}
	})

	t.Run("welcome enqueue failure does not fail registration", func(t *testing.T) {
		h.jobs.err = errors.New("queue down")
		defer func() { h.jobs.err = nil }()
		if _, err := h.auth.Register(ctx, "c@x.com", "pw"); err != nil {
			t.Fatalf("expected registration to succeed, got %v", err)
		}
	})
}

func TestCreateEntryValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	user := h.register(t, "a@x.com", "pw1")

	plain, err := h.files.CreateEntry(ctx, user.ID, CreateEntryInput{Name: "f.txt", Type: "file", Data: b64("x")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	tests := []struct {
		name string
		in   CreateEntryInput
		want error
	}{
		{"missing name", CreateEntryInput{Type: "folder"}, ErrMissingName},
		{"missing type", CreateEntryInput{Name: "n"}, ErrMissingType},
		{"unknown type", CreateEntryInput{Name: "n", Type: "symlink"}, ErrMissingType},
		{"missing data", CreateEntryInput{Name: "n", Type: "file"}, ErrMissingData},
		{"invalid data", CreateEntryInput{Name: "n", Type: "image", Data: "%%%"}, ErrInvalidData},
		{"unknown parent", CreateEntryInput{Name: "n", Type: "folder", ParentID: "11111111-1111-1111-1111-111111111111"}, ErrParentNotFound},
		{"unparsable parent", CreateEntryInput{Name: "n", Type: "folder", ParentID: "not-an-id"}, ErrParentNotFound},
		{"parent is a file", CreateEntryInput{Name: "n", Type: "folder", ParentID: plain.ID}, ErrParentNotAFolder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := h.files.CreateEntry(ctx, user.ID, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	t.Run("failed validation writes nothing", func(t *testing.T) {
		n, err := h.store.Files().Count(ctx)
		if err != nil || n != 1 {
			t.Fatalf("expected only the seed record, got %d err=%v", n, err)
		}
		entries, err := afero.ReadDir(h.fs, "/tmp/files_manager")
		if err != nil {
			t.Fatalf("readdir: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected only the seed blob, got %d", len(entries))
		}
	})
}

func TestCreateEntryKinds(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	user := h.register(t, "a@x.com", "pw1")

	t.Run("folder has no blob", func(t *testing.T) {
		folder, err := h.files.CreateEntry(ctx, user.ID, CreateEntryInput{Name: "docs", Type: "folder"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if folder.LocalPath != nil {
			t.Fatalf("folder acquired a localPath: %v", *folder.LocalPath)
		}
		if !folder.AtRoot() || folder.UserID != user.ID {
			t.Fatalf("unexpected folder %+v", folder)
		}
	})

	t.Run("file stores decoded payload", func(t *testing.T) {
		file, err := h.files.CreateEntry(ctx, user.ID, CreateEntryInput{Name: "a.txt", Type: "file", Data: b64("hello")})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		path, ok := file.BlobPath()
		if !ok {
			t.Fatal("expected blob path")
		}
		data, err := h.blobs.Get(ctx, path)
		if err != nil || string(data) != "hello" {
			t.Fatalf("expected hello, got %q err=%v", data, err)
		}
	})

	t.Run("only images queue exactly one thumbnail job", func(t *testing.T) {
		before := len(h.jobs.thumbnails)
		img, err := h.files.CreateEntry(ctx, user.ID, CreateEntryInput{Name: "p.png", Type: "image", Data: b64("png")})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if got := len(h.jobs.thumbnails) - before; got != 1 {
			t.Fatalf("expected 1 thumbnail job, got %d", got)
		}
		last := h.jobs.thumbnails[len(h.jobs.thumbnails)-1]
		if last.FileID != img.ID || last.UserID != user.ID {
			t.Fatalf("unexpected job %+v", last)
		}
	})

	t.Run("names are stored as given", func(t *testing.T) {
		for _, name := range []string{"  padded.txt ", "   "} {
			file, err := h.files.CreateEntry(ctx, user.ID, CreateEntryInput{Name: name, Type: "file", Data: b64("x")})
			if err != nil {
				t.Fatalf("create %q: %v", name, err)
			}
			if file.Name != name {
				t.Fatalf("expected name %q, got %q", name, file.Name)
			}
		}
	})

	t.Run("failed insert removes the written blob", func(t *testing.T) {
		before, err := afero.ReadDir(h.fs, "/tmp/files_manager")
		if err != nil {
			t.Fatalf("readdir: %v", err)
		}
		broken := NewFileService(failingInsert{Files: h.store.Files(), err: errors.New("db down")}, h.blobs, h.jobs)
		if _, err := broken.CreateEntry(ctx, user.ID, CreateEntryInput{Name: "lost.txt", Type: "file", Data: b64("x")}); err == nil {
			t.Fatal("expected the insert error")
		}
		after, err := afero.ReadDir(h.fs, "/tmp/files_manager")
		if err != nil {
			t.Fatalf("readdir: %v", err)
		}
		if len(after) != len(before) {
			t.Fatalf("expected %d blobs after a failed insert, got %d", len(before), len(after))
		}
	})

	t.Run("enqueue failure keeps the record", func(t *testing.T) {
		h.jobs.err = errors.New("queue down")
		defer func() { h.jobs.err = nil }()
		img, err := h.files.CreateEntry(ctx, user.ID, CreateEntryInput{Name: "q.png", Type: "image", Data: b64("png")})
		if err != nil {
			t.Fatalf("expected success despite enqueue failure, got %v", err)
		}
		if _, err := h.files.GetEntry(ctx, user.ID, img.ID); err != nil {
			t.Fatalf("record missing: %v", err)
		}
	})
}

func TestOwnershipCollapsesToNotFound(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner := h.register(t, "a@x.com", "pw1")
	other := h.register(t, "b@x.com", "pw2")

	file, err := h.files.CreateEntry(ctx, owner.ID, CreateEntryInput{Name: "a.txt", Type: "file", Data: b64("x")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, id := range []string{file.ID, "22222222-2222-2222-2222-222222222222", "garbage"} {
		if _, err := h.files.GetEntry(ctx, other.ID, id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("GetEntry(%s): expected ErrNotFound, got %v", id, err)
		}
		if _, err := h.files.SetPublic(ctx, other.ID, id, true); !errors.Is(err, ErrNotFound) {
			t.Fatalf("SetPublic(%s): expected ErrNotFound, got %v", id, err)
		}
	}

	reloaded, err := h.files.GetEntry(ctx, owner.ID, file.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.IsPublic {
		t.Fatal("foreign SetPublic must not mutate the record")
	}
}

func TestListEntries(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	user := h.register(t, "a@x.com", "pw1")
	other := h.register(t, "b@x.com", "pw2")

	folder, err := h.files.CreateEntry(ctx, user.ID, CreateEntryInput{Name: "docs", Type: "folder"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 25; i++ {
		if _, err := h.files.CreateEntry(ctx, user.ID, CreateEntryInput{Name: "f", Type: "file", Data: b64("x"), ParentID: folder.ID}); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	if _, err := h.files.CreateEntry(ctx, other.ID, CreateEntryInput{Name: "theirs", Type: "folder"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	tests := []struct {
		name   string
		parent string
		page   int
		want   int
	}{
		{"root", "", 0, 1},
		{"root by sentinel", "0", 0, 1},
		{"first page", folder.ID, 0, 20},
		{"second page", folder.ID, 1, 5},
		{"past the end", folder.ID, 2, 0},
		{"negative page", folder.ID, -3, 20},
		{"offset would overflow", "", math.MaxInt / 2, 0},
		{"max int page", folder.ID, math.MaxInt, 0},
		{"unknown parent", "garbage", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := h.files.ListEntries(ctx, user.ID, tt.parent, tt.page)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(files) != tt.want {
				t.Fatalf("expected %d entries, got %d", tt.want, len(files))
			}
			for _, f := range files {
				if f.UserID != user.ID {
					t.Fatalf("listed a foreign record %+v", f)
				}
			}
		})
	}
}

func TestReadContent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner := h.register(t, "a@x.com", "pw1")
	other := h.register(t, "b@x.com", "pw2")

	file, err := h.files.CreateEntry(ctx, owner.ID, CreateEntryInput{Name: "note.txt", Type: "file", Data: b64("hello world")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	folder, err := h.files.CreateEntry(ctx, owner.ID, CreateEntryInput{Name: "docs", Type: "folder", IsPublic: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	t.Run("private file", func(t *testing.T) {
		for _, viewer := range []string{"", other.ID} {
			if _, err := h.files.ReadContent(ctx, viewer, file.ID, 0); !errors.Is(err, ErrNotFound) {
				t.Fatalf("viewer %q: expected ErrNotFound, got %v", viewer, err)
			}
		}
		content, err := h.files.ReadContent(ctx, owner.ID, file.ID, 0)
		if err != nil || string(content.Data) != "hello world" {
			t.Fatalf("owner read failed: %+v err=%v", content, err)
		}
		if content.ContentType != "text/plain; charset=utf-8" {
			t.Errorf("unexpected content type %q", content.ContentType)
		}
	})

	t.Run("public file readable without a viewer", func(t *testing.T) {
		if _, err := h.files.SetPublic(ctx, owner.ID, file.ID, true); err != nil {
			t.Fatalf("publish: %v", err)
		}
		content, err := h.files.ReadContent(ctx, "", file.ID, 0)
		if err != nil || string(content.Data) != "hello world" {
			t.Fatalf("public read failed: %+v err=%v", content, err)
		}
	})

	t.Run("folder has no content", func(t *testing.T) {
		if _, err := h.files.ReadContent(ctx, owner.ID, folder.ID, 0); !errors.Is(err, ErrFolderHasNoContent) {
			t.Fatalf("expected ErrFolderHasNoContent, got %v", err)
		}
	})

	t.Run("missing record", func(t *testing.T) {
		if _, err := h.files.ReadContent(ctx, owner.ID, "nope", 0); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("missing variant does not fall back", func(t *testing.T) {
		if _, err := h.files.ReadContent(ctx, owner.ID, file.ID, 250); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("other sizes serve the original", func(t *testing.T) {
		content, err := h.files.ReadContent(ctx, owner.ID, file.ID, 42)
		if err != nil || string(content.Data) != "hello world" {
			t.Fatalf("expected original, got %+v err=%v", content, err)
		}
	})
}

func TestReadContentVariantAfterThumbnailing(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner := h.register(t, "a@x.com", "pw1")

	original := testutil.PNG(t, 800, 600)
	img, err := h.files.CreateEntry(ctx, owner.ID, CreateEntryInput{
		Name: "pic.png",
		Type: "image",
		Data: base64.StdEncoding.EncodeToString(original),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := h.files.ReadContent(ctx, owner.ID, img.ID, 250); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before thumbnailing, got %v", err)
	}

	processor := worker.NewThumbnailProcessor(h.store.Files(), h.blobs)
	if err := processor.Process(ctx, h.jobs.thumbnails[0]); err != nil {
		t.Fatalf("thumbnail job: %v", err)
	}

	content, err := h.files.ReadContent(ctx, owner.ID, img.ID, 250)
	if err != nil {
		t.Fatalf("expected variant, got %v", err)
	}
	if len(content.Data) == 0 || len(content.Data) == len(original) {
		t.Fatalf("expected a distinct non-empty variant, got %d bytes (original %d)", len(content.Data), len(original))
	}
	if content.ContentType != "image/png" {
		t.Errorf("unexpected content type %q", content.ContentType)
	}
}

func TestScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.register(t, "a@x.com", "pw1")

	email, password, ok := ParseBasicAuth("Basic " + b64("a@x.com:pw1"))
	if !ok {
		t.Fatal("failed parsing credentials")
	}
	token, err := h.auth.Authenticate(ctx, email, password)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	userID, err := h.auth.ResolveSession(ctx, token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	docs, err := h.files.CreateEntry(ctx, userID, CreateEntryInput{Name: "docs", Type: "folder"})
	if err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	note, err := h.files.CreateEntry(ctx, userID, CreateEntryInput{Name: "note.txt", Type: "file", Data: b64("hello world"), ParentID: docs.ID})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	got, err := h.files.GetEntry(ctx, userID, note.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	view := got.View()
	if view.Name != "note.txt" || view.Type != models.FileTypeFile || view.ParentID != docs.ID {
		t.Fatalf("unexpected view %+v", view)
	}

	if _, err := h.files.ReadContent(ctx, "", note.ID, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before publish, got %v", err)
	}
	if _, err := h.files.SetPublic(ctx, userID, note.ID, true); err != nil {
		t.Fatalf("publish: %v", err)
	}
	content, err := h.files.ReadContent(ctx, "", note.ID, 0)
	if err != nil || string(content.Data) != "hello world" {
		t.Fatalf("expected hello world, got %+v err=%v", content, err)
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := map[string]string{
		"a.png":     "image/png",
		"A.PNG":     "image/png",
		"noext":     "application/octet-stream",
		"x.unknown": "application/octet-stream",
	}
	for name, want := range tests {
		if got := ContentTypeFor(name); got != want {
			t.Errorf("ContentTypeFor(%q) = %q, want %q", name, got, want)
		}
	}
}
