package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/splax/taskhub/internal/domain"
	"github.com/splax/taskhub/internal/repository"
	"github.com/splax/taskhub/internal/service/auth"
	"github.com/splax/taskhub/internal/service/task"
	"github.com/splax/taskhub/pkg/config"
)

// memoryStore backs both repositories for router tests, enforcing the
// same uniqueness rules the SQL schema would.
type memoryStore struct {
	mu         sync.Mutex
	nextUserID int64
	nextTaskID int64
	users      map[int64]domain.User
	tasks      map[int64]domain.Task
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: make(map[int64]domain.User), tasks: make(map[int64]domain.Task)}
}

func (m *memoryStore) CreateUser(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return repository.ErrConflict
		}
	}
	m.nextUserID++
	user.ID = m.nextUserID
	m.users[user.ID] = *user
	return nil
}

func (m *memoryStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == email {
			found := existing
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryStore) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.users[id]; ok {
		found := existing
		return &found, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memoryStore) CreateTask(ctx context.Context, t *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.tasks {
		if existing.UserID == t.UserID && existing.Title == t.Title {
			return repository.ErrConflict
		}
	}
	m.nextTaskID++
	t.ID = m.nextTaskID
	t.UpdatedAt = t.CreatedAt
	m.tasks[t.ID] = *t
	return nil
}

func (m *memoryStore) ListTasksByOwner(ctx context.Context, ownerID int64) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tasks := make([]domain.Task, 0)
	for id := int64(1); id <= m.nextTaskID; id++ {
		if t, ok := m.tasks[id]; ok && t.UserID == ownerID {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

func (m *memoryStore) GetTask(ctx context.Context, ownerID, taskID int64) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok || t.UserID != ownerID {
		return nil, repository.ErrNotFound
	}
	found := t
	return &found, nil
}

func (m *memoryStore) UpdateTask(ctx context.Context, t *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.tasks[t.ID]
	if !ok || existing.UserID != t.UserID {
		return repository.ErrNotFound
	}
	existing.Title = t.Title
	existing.Done = t.Done
	existing.UpdatedAt = time.Now().UTC()
	m.tasks[t.ID] = existing
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = existing.UpdatedAt
	return nil
}

func (m *memoryStore) DeleteTask(ctx context.Context, ownerID, taskID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok || t.UserID != ownerID {
		return repository.ErrNotFound
	}
	delete(m.tasks, taskID)
	return nil
}

func setupRouter(t *testing.T) *Router {
	t.Helper()
	store := newMemoryStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.APIConfig{JWTSecret: "router-test-secret", AccessTokenTTL: time.Minute}
	authSvc := auth.New(store, log, cfg)
	taskSvc := task.New(store, log)
	return NewRouter(log, authSvc, taskSvc, nil)
}

func doJSON(t *testing.T, router *Router, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, router *Router, email, password string) (int64, string) {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{"email": email, "password": password})
	if rec.Code != http.StatusOK {
		t.Fatalf("register %s: expected 200, got %d (%s)", email, rec.Code, rec.Body)
	}
	rec = doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d (%s)", email, rec.Code, rec.Body)
	}
	var resp struct {
		AccountID   int64  `json:"account_id"`
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.AccountID == 0 || resp.AccessToken == "" {
		t.Fatalf("incomplete login response: %s", rec.Body)
	}
	return resp.AccountID, resp.AccessToken
}

func TestRegisterValidation(t *testing.T) {
	router := setupRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{"email": " ", "password": "pw1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	router := setupRouter(t)
	first := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{"email": "a@x.com", "password": "pw1"})
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", first.Code)
	}
	second := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{"email": "a@x.com", "password": "pw2"})
	if second.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate email, got %d", second.Code)
	}
}

func TestLoginFailuresAreByteIdentical(t *testing.T) {
	router := setupRouter(t)
	registerAndLogin(t, router, "a@x.com", "pw1")

	wrongPassword := doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{"email": "a@x.com", "password": "nope"})
	unknownEmail := doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{"email": "b@x.com", "password": "pw1"})

	if wrongPassword.Code != http.StatusUnauthorized || unknownEmail.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", wrongPassword.Code, unknownEmail.Code)
	}
	if !bytes.Equal(wrongPassword.Body.Bytes(), unknownEmail.Body.Bytes()) {
		t.Fatalf("login failure bodies differ: %q vs %q", wrongPassword.Body, unknownEmail.Body)
	}
}

func TestTaskRoutesRequireAuth(t *testing.T) {
	router := setupRouter(t)
	paths := []struct{ method, path string }{
		{http.MethodGet, "/tasks"},
		{http.MethodPost, "/tasks"},
		{http.MethodPut, "/tasks/1"},
		{http.MethodDelete, "/tasks/1"},
	}
	for _, p := range paths {
		rec := doJSON(t, router, p.method, p.path, "", map[string]string{"title": "x"})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s without token: expected 401, got %d", p.method, p.path, rec.Code)
		}
	}
	rec := doJSON(t, router, http.MethodGet, "/tasks", "invalid-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("invalid token: expected 401, got %d", rec.Code)
	}
}

func TestTaskLifecycle(t *testing.T) {
	router := setupRouter(t)
	accountID, token := registerAndLogin(t, router, "a@x.com", "pw1")

	rec := doJSON(t, router, http.MethodPost, "/tasks", token, map[string]any{"title": "buy milk"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%s)", rec.Code, rec.Body)
	}
	var created domain.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created task: %v", err)
	}
	if created.UserID != accountID {
		t.Fatalf("task owner %d, expected %d", created.UserID, accountID)
	}

	rec = doJSON(t, router, http.MethodGet, "/tasks", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var listed []domain.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode task list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID || listed[0].Title != "buy milk" {
		t.Fatalf("unexpected list: %+v", listed)
	}

	rec = doJSON(t, router, http.MethodPut, fmt.Sprintf("/tasks/%d", created.ID), token, map[string]any{"title": "buy oat milk", "done": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d (%s)", rec.Code, rec.Body)
	}
	var updated domain.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode updated task: %v", err)
	}
	if updated.Title != "buy oat milk" || !updated.Done {
		t.Fatalf("unexpected updated task: %+v", updated)
	}

	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/tasks/%d", created.ID), token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}

	for _, p := range []struct{ method string }{{http.MethodGet}, {http.MethodPut}, {http.MethodDelete}} {
		rec = doJSON(t, router, p.method, fmt.Sprintf("/tasks/%d", created.ID), token, map[string]any{"title": "x"})
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s after delete: expected 404, got %d", p.method, rec.Code)
		}
	}
}

func TestTasksAreInvisibleAcrossAccounts(t *testing.T) {
	router := setupRouter(t)
	_, tokenA := registerAndLogin(t, router, "a@x.com", "pw1")
	_, tokenB := registerAndLogin(t, router, "b@x.com", "pw2")

	rec := doJSON(t, router, http.MethodPost, "/tasks", tokenA, map[string]any{"title": "a-secret"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", rec.Code)
	}
	var created domain.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created task: %v", err)
	}

	rec = doJSON(t, router, http.MethodGet, "/tasks", tokenB, nil)
	var listed []domain.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode task list: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("account B sees foreign tasks: %+v", listed)
	}

	// Foreign access must look exactly like a missing task, not a
	// distinct forbidden signal.
	foreign := doJSON(t, router, http.MethodPut, fmt.Sprintf("/tasks/%d", created.ID), tokenB, map[string]any{"title": "stolen"})
	missing := doJSON(t, router, http.MethodPut, "/tasks/99999", tokenB, map[string]any{"title": "stolen"})
	if foreign.Code != http.StatusNotFound || missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404/404, got %d/%d", foreign.Code, missing.Code)
	}
	if !bytes.Equal(foreign.Body.Bytes(), missing.Body.Bytes()) {
		t.Fatalf("foreign and missing bodies differ: %q vs %q", foreign.Body, missing.Body)
	}

	if rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/tasks/%d", created.ID), tokenB, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("foreign delete: expected 404, got %d", rec.Code)
	}

	// The owner still has the task untouched.
	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/tasks/%d", created.ID), tokenA, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner get: expected 200, got %d", rec.Code)
	}
}

func TestCreateDuplicateTitleConflicts(t *testing.T) {
	router := setupRouter(t)
	_, token := registerAndLogin(t, router, "a@x.com", "pw1")

	if rec := doJSON(t, router, http.MethodPost, "/tasks", token, map[string]any{"title": "buy milk"}); rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", rec.Code)
	}
	if rec := doJSON(t, router, http.MethodPost, "/tasks", token, map[string]any{"title": "buy milk"}); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate create: expected 409, got %d", rec.Code)
	}
}

func TestCreateEmptyTitleRejected(t *testing.T) {
	router := setupRouter(t)
	_, token := registerAndLogin(t, router, "a@x.com", "pw1")
	if rec := doJSON(t, router, http.MethodPost, "/tasks", token, map[string]any{"title": "   "}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHealthzWithoutDatabase(t *testing.T) {
	router := setupRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthzReportsDegradedDatabase(t *testing.T) {
	store := newMemoryStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.APIConfig{JWTSecret: "router-test-secret", AccessTokenTTL: time.Minute}
	router := NewRouter(log, auth.New(store, log, cfg), task.New(store, log), func(context.Context) error {
		return context.DeadlineExceeded
	})
	rec := doJSON(t, router, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
