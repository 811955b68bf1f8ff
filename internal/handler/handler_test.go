package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/metric/noop"

	"projectmanager/internal/auth"
	"projectmanager/internal/model"
	"projectmanager/internal/repository"
	"projectmanager/internal/telemetry"
)

// newTestServer wires the full /api surface the way cmd/server does, against
// an in-memory database, a discard logger, and no-op metrics.
func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	db, err := repository.Open("file::memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	taskRepo := repository.NewTaskRepository(db)
	metrics, err := telemetry.NewMetrics(noop.NewMeterProvider().Meter("test"), taskRepo.CountOpen)
	if err != nil {
		t.Fatalf("create metrics: %v", err)
	}

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	authSvc := auth.NewService(repository.NewUserRepository(db), tokens)

	authHandler := NewAuthHandler(authSvc, logger, metrics)
	projectHandler := NewProjectHandler(repository.NewProjectRepository(db), logger, metrics)
	taskHandler := NewTaskHandler(taskRepo, logger, metrics)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Mount("/auth", authHandler.Routes())
		r.Group(func(r chi.Router) {
			r.Use(Authenticator(tokens, logger))
			r.Mount("/projects", projectHandler.Routes(taskHandler))
			r.Mount("/tasks", taskHandler.Routes())
		})
	})
	return r
}

func doJSON(t *testing.T, srv http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func registerAndLogin(t *testing.T, srv http.Handler, username, password string) string {
	t.Helper()

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username, "password": password,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %q: status %d, body %s", username, rec.Code, rec.Body)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username, "password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %q: status %d, body %s", username, rec.Code, rec.Body)
	}
	return decode[map[string]string](t, rec)["token"]
}

func TestEndToEndScenario(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "bob", "abcdef")

	rec := doJSON(t, srv, http.MethodPost, "/api/projects", token, map[string]string{"title": "Trip"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create project: status %d, body %s", rec.Code, rec.Body)
	}
	project := decode[model.Project](t, rec)
	if project.ID == 0 || project.Title != "Trip" {
		t.Fatalf("created project %+v", project)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/projects/1/tasks", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list tasks: status %d, body %s", rec.Code, rec.Body)
	}
	if got := decode[[]model.Task](t, rec); len(got) != 0 {
		t.Fatalf("expected empty task list, got %v", got)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/projects/1/tasks", token, map[string]string{"title": "Pack bags"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task: status %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/projects/1/tasks?completed=false", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("filtered list: status %d, body %s", rec.Code, rec.Body)
	}
	tasks := decode[[]model.Task](t, rec)
	if len(tasks) != 1 || tasks[0].Title != "Pack bags" {
		t.Fatalf("filtered list = %v, want one task Pack bags", tasks)
	}
}

func TestUnauthenticatedRequests(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/projects", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token: status %d, want 401", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/projects", "not-a-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status %d, want 401", rec.Code)
	}

	expired := auth.NewTokenManager("test-secret", -time.Minute)
	token, err := expired.Issue(&model.User{ID: 1, Username: "bob"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/projects", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expired token: status %d, want 401", rec.Code)
	}
}

func TestLoginFailureShape(t *testing.T) {
	srv := newTestServer(t)
	registerAndLogin(t, srv, "alice", "secret1")

	wrongPass := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "wrong",
	})
	unknownUser := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "nobody", "password": "secret1",
	})

	if wrongPass.Code != http.StatusUnauthorized || unknownUser.Code != http.StatusUnauthorized {
		t.Fatalf("statuses %d/%d, want 401/401", wrongPass.Code, unknownUser.Code)
	}
	// Identical bodies, so callers cannot enumerate usernames.
	if wrongPass.Body.String() != unknownUser.Body.String() {
		t.Errorf("failure bodies differ: %q vs %q", wrongPass.Body, unknownUser.Body)
	}
}

func TestRegisterRejections(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "al", "password": "abcdef",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("short username: status %d, want 400", rec.Code)
	}

	registerAndLogin(t, srv, "alice", "secret1")
	rec = doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "password": "secret2",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate username: status %d, want 400", rec.Code)
	}
}

func TestCrossUserIsolation(t *testing.T) {
	srv := newTestServer(t)
	aliceToken := registerAndLogin(t, srv, "alice", "secret1")
	bobToken := registerAndLogin(t, srv, "bob", "secret2")

	rec := doJSON(t, srv, http.MethodPost, "/api/projects", aliceToken, map[string]string{"title": "Secret"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create project: status %d, body %s", rec.Code, rec.Body)
	}
	project := decode[model.Project](t, rec)

	rec = doJSON(t, srv, http.MethodPost, "/api/projects/1/tasks", aliceToken, map[string]string{"title": "Hidden"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task: status %d, body %s", rec.Code, rec.Body)
	}
	task := decode[model.Task](t, rec)

	if rec = doJSON(t, srv, http.MethodGet, "/api/projects/1", bobToken, nil); rec.Code != http.StatusNotFound {
		t.Errorf("bob gets alice's project: status %d, want 404", rec.Code)
	}
	if rec = doJSON(t, srv, http.MethodDelete, "/api/projects/1", bobToken, nil); rec.Code != http.StatusNotFound {
		t.Errorf("bob deletes alice's project: status %d, want 404", rec.Code)
	}
	if rec = doJSON(t, srv, http.MethodGet, "/api/projects", bobToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("bob lists projects: status %d", rec.Code)
	} else if got := decode[[]model.Project](t, rec); len(got) != 0 {
		t.Errorf("bob sees %d projects, want 0", len(got))
	}
	if rec = doJSON(t, srv, http.MethodPut, "/api/tasks/1", bobToken, map[string]any{
		"title": "hijacked", "isCompleted": true,
	}); rec.Code != http.StatusNotFound {
		t.Errorf("bob updates alice's task: status %d, want 404", rec.Code)
	}
	if rec = doJSON(t, srv, http.MethodDelete, "/api/tasks/1", bobToken, nil); rec.Code != http.StatusNotFound {
		t.Errorf("bob deletes alice's task: status %d, want 404", rec.Code)
	}

	// Alice still sees both untouched.
	rec = doJSON(t, srv, http.MethodGet, "/api/projects/1", aliceToken, nil)
	if rec.Code != http.StatusOK || decode[model.Project](t, rec).ID != project.ID {
		t.Errorf("alice's project damaged: status %d, body %s", rec.Code, rec.Body)
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/projects/1/tasks", aliceToken, nil)
	if got := decode[[]model.Task](t, rec); len(got) != 1 || got[0].ID != task.ID || got[0].Title != "Hidden" {
		t.Errorf("alice's tasks damaged: %v", got)
	}
}

func TestTaskProjectReferenceMismatch(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "alice", "secret1")

	rec := doJSON(t, srv, http.MethodPost, "/api/projects", token, map[string]string{"title": "Trip"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create project: status %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/projects/1/tasks", token, map[string]any{
		"title": "Pack bags", "projectId": 2,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("mismatched reference: status %d, want 400", rec.Code)
	}

	// A matching body reference is fine.
	rec = doJSON(t, srv, http.MethodPost, "/api/projects/1/tasks", token, map[string]any{
		"title": "Pack bags", "projectId": 1,
	})
	if rec.Code != http.StatusCreated {
		t.Errorf("matching reference: status %d, want 201", rec.Code)
	}
}

func TestTaskUpdateAndDeleteOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "alice", "secret1")

	doJSON(t, srv, http.MethodPost, "/api/projects", token, map[string]string{"title": "Trip"})
	rec := doJSON(t, srv, http.MethodPost, "/api/projects/1/tasks", token, map[string]string{"title": "Pack bags"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task: status %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPut, "/api/tasks/1", token, map[string]any{"isCompleted": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("update task: status %d, body %s", rec.Code, rec.Body)
	}
	updated := decode[model.Task](t, rec)
	if updated.Title != "Pack bags" || !updated.IsCompleted {
		t.Errorf("updated task %+v, want title kept and completed", updated)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/api/tasks/1", token, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete task: status %d, want 204", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodDelete, "/api/tasks/1", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: status %d, want 404", rec.Code)
	}
}

func TestProjectValidation(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "alice", "secret1")

	rec := doJSON(t, srv, http.MethodPost, "/api/projects", token, map[string]string{"title": "ab"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("short title: status %d, want 400", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/projects/1/tasks", token, map[string]string{"title": "  "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank task title: status %d, want 400", rec.Code)
	}
}
