package integration__test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskhub/taskhub/internal/cache"
	apphttp "github.com/taskhub/taskhub/internal/http"
	"github.com/taskhub/taskhub/internal/repo/memory"
)

// setupTestRouter wires the full middleware/handler stack against the
// in-process backend, so the flow below exercises exactly what a deployed
// instance would run, minus the database.
func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	usersRepo := memory.NewUsersRepo()

	deps := apphttp.Deps{
		Users:   usersRepo,
		UserIDs: usersRepo,
		Tasks:   memory.NewTasksRepo(),
		Cache:   cache.New(30 * time.Second),
	}

	return apphttp.NewRouter(logger, deps)
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader

	if body != "" {
		reader = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, path, reader)

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestAccountAndTaskFlow(t *testing.T) {
	router := setupTestRouter(t)

	// register
	w := doJSON(t, router, http.MethodPost, "/signup",
		`{"first_name":"Sam","last_name":"Doe","email":"sam@example.com","password":"secret"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("[signup] got status %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
	}

	var signupResp struct {
		Message string `json:"message"`
		UserID  string `json:"userId"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &signupResp); err != nil {
		t.Fatalf("failed to unmarshal signup response: %v", err)
	}

	if signupResp.UserID == "" {
		t.Fatalf("signup returned no userId, body=%s", w.Body.String())
	}

	userID := signupResp.UserID

	// login with the same credentials
	w = doJSON(t, router, http.MethodPost, "/login",
		`{"email":"sam@example.com","password":"secret"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("[login] got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
	}

	// create a task without a status; it must default to pending
	w = doJSON(t, router, http.MethodPost, "/tasks",
		`{"task_name":"write report","user_id":"`+userID+`"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("[create task] got status %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
	}

	var createResp struct {
		Message string `json:"message"`
		TaskID  string `json:"taskId"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &createResp); err != nil {
		t.Fatalf("failed to unmarshal create response: %v", err)
	}

	if createResp.TaskID == "" {
		t.Fatalf("create returned no taskId, body=%s", w.Body.String())
	}

	taskID := createResp.TaskID

	// list scoped to the owner contains exactly the new task, status pending
	w = doJSON(t, router, http.MethodGet, "/tasks?user_id="+userID, "")

	if w.Code != http.StatusOK {
		t.Fatalf("[list] got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
	}

	var listResp struct {
		Tasks []struct {
			ID       string `json:"id"`
			TaskName string `json:"task_name"`
			Status   string `json:"status"`
			UserID   string `json:"user_id"`
		} `json:"tasks"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("failed to unmarshal list response: %v", err)
	}

	if len(listResp.Tasks) != 1 {
		t.Fatalf("got %d tasks, want 1, body=%s", len(listResp.Tasks), w.Body.String())
	}

	if listResp.Tasks[0].ID != taskID || listResp.Tasks[0].Status != "pending" {
		t.Fatalf("unexpected task in list: %+v", listResp.Tasks[0])
	}

	// move the task to completed
	w = doJSON(t, router, http.MethodPatch, "/tasks/"+taskID,
		`{"status":"completed","user_id":"`+userID+`"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("[update] got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
	}

	var updateResp struct {
		Message string `json:"message"`
		Task    struct {
			Status string `json:"status"`
		} `json:"task"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &updateResp); err != nil {
		t.Fatalf("failed to unmarshal update response: %v", err)
	}

	if updateResp.Task.Status != "completed" {
		t.Fatalf("got status %q after update, want completed", updateResp.Task.Status)
	}

	// a delete with someone else's user_id must bounce and leave the task alone
	w = doJSON(t, router, http.MethodDelete, "/tasks/"+taskID,
		`{"user_id":"not-the-owner"}`)

	if w.Code != http.StatusNotFound {
		t.Fatalf("[foreign delete] got status %d, want %d, body=%s", w.Code, http.StatusNotFound, w.Body.String())
	}

	// the owner can delete
	w = doJSON(t, router, http.MethodDelete, "/tasks/"+taskID,
		`{"user_id":"`+userID+`"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("[delete] got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
	}

	// the task is gone
	w = doJSON(t, router, http.MethodGet, "/tasks?user_id="+userID, "")

	if w.Code != http.StatusOK {
		t.Fatalf("[list after delete] got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
	}

	var finalList struct {
		Tasks []json.RawMessage `json:"tasks"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &finalList); err != nil {
		t.Fatalf("failed to unmarshal final list: %v", err)
	}

	if len(finalList.Tasks) != 0 {
		t.Fatalf("expected an empty list after delete, body=%s", w.Body.String())
	}
}

func TestSignupIntegration_DuplicateEmail(t *testing.T) {
	router := setupTestRouter(t)

	body := `{"first_name":"Sam","last_name":"Doe","email":"sam@example.com","password":"secret"}`

	w1 := doJSON(t, router, http.MethodPost, "/signup", body)

	if w1.Code != http.StatusCreated {
		t.Fatalf("[first call] got status %d, want %d, body=%s", w1.Code, http.StatusCreated, w1.Body.String())
	}

	w2 := doJSON(t, router, http.MethodPost, "/signup", body)

	if w2.Code != http.StatusConflict {
		t.Fatalf("[second call] got status %d, want %d, body=%s", w2.Code, http.StatusConflict, w2.Body.String())
	}

	var resp struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}

	if err := json.Unmarshal(w2.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v", err)
	}

	if resp.Code != "email_taken" {
		t.Fatalf("expected error code 'email_taken', got '%s'", resp.Code)
	}

	if resp.Message != "Email already exists." {
		t.Fatalf("unexpected message: %q", resp.Message)
	}
}

func TestCreateTaskIntegration_UnknownUser(t *testing.T) {
	router := setupTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/tasks",
		`{"task_name":"orphan","user_id":"no-such-user"}`)

	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusNotFound, w.Body.String())
	}

	var resp struct {
		Message string `json:"message"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v", err)
	}

	if resp.Message != "User not found. Invalid user_id." {
		t.Fatalf("unexpected message: %q", resp.Message)
	}
}

func TestLoginIntegration_WrongPassword(t *testing.T) {
	router := setupTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/signup",
		`{"first_name":"Sam","last_name":"Doe","email":"sam@example.com","password":"secret"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("[signup] got status %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, "/login",
		`{"email":"sam@example.com","password":"wrong"}`)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusUnauthorized, w.Body.String())
	}
}
