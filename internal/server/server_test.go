package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sprint-tracker/internal/api"
	"sprint-tracker/internal/logger"
	"sprint-tracker/internal/notify"
	"sprint-tracker/internal/repository/memory"
	"sprint-tracker/internal/service"
)

func newRouter(t *testing.T) *chi.Mux {
	t.Helper()

	log := zap.NewNop()
	svc, err := service.New(&service.Config{ReminderLookAheadDays: 2, Timezone: "UTC"},
		memory.New(log), notify.NewLogNotifier(log), log)
	require.NoError(t, err)

	return NewRouter(svc, log, &logger.Config{SlowRequest: time.Second}, 5*time.Second)
}

func call(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func date(offset int) string {
	return time.Now().UTC().AddDate(0, 0, offset).Format(time.DateOnly)
}

func createSprint(t *testing.T, router http.Handler) api.Sprint {
	t.Helper()

	rec := call(t, router, http.MethodPost, "/sprints", map[string]string{
		"name":       "Sprint 1",
		"start_date": date(0),
		"end_date":   date(9),
		"project_id": "proj",
		"created_by": "owner",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[map[string]api.Sprint](t, rec)["sprint"]
}

func TestSprintReviewFlow(t *testing.T) {
	router := newRouter(t)

	sprint := createSprint(t, router)
	assert.Equal(t, "UPCOMING", sprint.Status)

	rec := call(t, router, http.MethodPost, "/sprints/"+sprint.ID+"/start", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "ACTIVE", decode[map[string]api.Sprint](t, rec)["sprint"].Status)

	rec = call(t, router, http.MethodPost, "/tasks", map[string]any{
		"title":        "Add login",
		"story_points": 3,
		"project_id":   "proj",
		"assignee_id":  "dev",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	task := decode[map[string]api.Task](t, rec)["task"]
	assert.Equal(t, "BACKLOG", task.Status)

	rec = call(t, router, http.MethodPut, "/tasks/"+task.ID+"/sprint", map[string]string{"sprint_id": sprint.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "TODO", decode[map[string]api.Task](t, rec)["task"].Status)

	rec = call(t, router, http.MethodPost, "/commits", map[string]any{
		"author_id":    "dev",
		"message":      "add login",
		"branch":       "feature/login",
		"task_id":      task.ID,
		"committed_at": time.Now().UTC(),
		"sha":          "abc123def456",
		"project_id":   "proj",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	commit := decode[map[string]api.PendingCommit](t, rec)["commit"]
	assert.Equal(t, "PENDING_REVIEW", commit.Status)

	rec = call(t, router, http.MethodGet, "/projects/proj/commits/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]api.PendingCommit](t, rec)["commits"], 1)

	rec = call(t, router, http.MethodPost, "/commits/"+commit.ID+"/review", map[string]string{
		"decision":    "APPROVE",
		"reviewer_id": "lead",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	review := decode[struct {
		Commit   api.PendingCommit   `json:"commit"`
		Approved *api.ApprovedCommit `json:"approved_commit"`
	}](t, rec)
	assert.Equal(t, "APPROVED", review.Commit.Status)
	require.NotNil(t, review.Approved)
	assert.Equal(t, "lead", review.Approved.ApprovedBy)

	rec = call(t, router, http.MethodGet, "/tasks/"+task.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	done := decode[map[string]api.Task](t, rec)["task"]
	assert.Equal(t, "DONE", done.Status)
	assert.NotNil(t, done.CompletedAt)

	rec = call(t, router, http.MethodPost, "/commits/"+commit.ID+"/review", map[string]string{
		"decision":    "APPROVE",
		"reviewer_id": "lead",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, api.CodeAlreadyReviewed, decode[errorBody](t, rec).Error.Code)

	rec = call(t, router, http.MethodPost, "/commits/"+commit.ID+"/merge", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "MERGED", decode[map[string]api.PendingCommit](t, rec)["commit"].Status)

	rec = call(t, router, http.MethodGet, "/projects/proj/commits/approved?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]api.ApprovedCommit](t, rec)["commits"], 1)

	rec = call(t, router, http.MethodGet, "/sprints/"+sprint.ID+"/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	progress := decode[map[string]api.Progress](t, rec)["progress"]
	assert.Equal(t, 1, progress.DoneTasks)
	assert.Equal(t, 3, progress.CompletedPoints)
	assert.Equal(t, 100.0, progress.CompletionPercentage)
	assert.Equal(t, 1, progress.Commits.Merged)

	rec = call(t, router, http.MethodPost, "/sprints/"+sprint.ID+"/complete", map[string]string{
		"retrospective_notes": "went well",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	completed := decode[map[string]api.Sprint](t, rec)["sprint"]
	assert.Equal(t, "COMPLETED", completed.Status)
	assert.Equal(t, "went well", completed.RetrospectiveNotes)

	rec = call(t, router, http.MethodGet, "/projects/proj/velocity", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	velocity := decode[map[string][]api.VelocityPoint](t, rec)["velocity"]
	require.Len(t, velocity, 1)
	assert.Equal(t, 3, velocity[0].CompletedPoints)
}

func TestReviewRejectRequiresReason(t *testing.T) {
	router := newRouter(t)

	rec := call(t, router, http.MethodPost, "/commits", map[string]any{
		"author_id":  "dev",
		"sha":        "feedface",
		"project_id": "proj",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	commit := decode[map[string]api.PendingCommit](t, rec)["commit"]

	rec = call(t, router, http.MethodPost, "/commits/"+commit.ID+"/review", map[string]string{
		"decision":    "REJECT",
		"reviewer_id": "lead",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, api.CodeMissingReason, decode[errorBody](t, rec).Error.Code)

	rec = call(t, router, http.MethodPost, "/commits/"+commit.ID+"/review", map[string]string{
		"decision":    "REJECT",
		"reviewer_id": "lead",
		"reason":      "missing tests",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "REJECTED", decode[map[string]api.PendingCommit](t, rec)["commit"].Status)
}

func TestIngestDuplicateSHA(t *testing.T) {
	router := newRouter(t)
	body := map[string]any{"author_id": "dev", "sha": "deadbeef", "project_id": "proj"}

	rec := call(t, router, http.MethodPost, "/commits", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, router, http.MethodPost, "/commits", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, api.CodeDuplicateCommit, decode[errorBody](t, rec).Error.Code)
}

func TestErrorResponses(t *testing.T) {
	router := newRouter(t)
	sprint := createSprint(t, router)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown sprint", http.MethodGet, "/sprints/missing", nil, http.StatusNotFound, api.CodeNotFound},
		{"unknown commit", http.MethodPost, "/commits/missing/merge", nil, http.StatusNotFound, api.CodeNotFound},
		{"empty body", http.MethodPost, "/sprints", nil, http.StatusBadRequest, api.CodeInvalidInput},
		{"bad date", http.MethodPost, "/sprints", map[string]string{"name": "x", "start_date": "soon", "end_date": date(1), "project_id": "proj"}, http.StatusBadRequest, api.CodeInvalidInput},
		{"inverted dates", http.MethodPost, "/sprints", map[string]string{"name": "x", "start_date": date(5), "end_date": date(1), "project_id": "proj"}, http.StatusBadRequest, api.CodeInvalidInput},
		{"complete upcoming", http.MethodPost, "/sprints/" + sprint.ID + "/complete", nil, http.StatusConflict, api.CodeInvalidTransition},
		{"cascade on complete", http.MethodPost, "/sprints/" + sprint.ID + "/complete", map[string]string{"policy": "CASCADE_DELETE_TASKS"}, http.StatusBadRequest, api.CodeInvalidInput},
		{"bad delete policy", http.MethodDelete, "/sprints/" + sprint.ID + "?policy=SHRED", nil, http.StatusBadRequest, api.CodeInvalidInput},
		{"bad limit", http.MethodGet, "/projects/proj/commits/approved?limit=-1", nil, http.StatusBadRequest, api.CodeInvalidInput},
		{"bad priority", http.MethodPost, "/backlog", map[string]string{"title": "x", "priority": "URGENT", "project_id": "proj"}, http.StatusBadRequest, api.CodeInvalidInput},
		{"task without title", http.MethodPost, "/tasks", map[string]string{"project_id": "proj"}, http.StatusBadRequest, api.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decode[errorBody](t, rec).Error.Code)
		})
	}
}

func TestCancelAndDeleteSprint(t *testing.T) {
	router := newRouter(t)
	sprint := createSprint(t, router)

	rec := call(t, router, http.MethodPost, "/sprints/"+sprint.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "CANCELLED", decode[map[string]api.Sprint](t, rec)["sprint"].Status)

	rec = call(t, router, http.MethodPost, "/sprints/"+sprint.ID+"/start", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = call(t, router, http.MethodDelete, "/sprints/"+sprint.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = call(t, router, http.MethodGet, "/sprints/"+sprint.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductBacklogOrder(t *testing.T) {
	router := newRouter(t)
	sprint := createSprint(t, router)

	for _, item := range []map[string]any{
		{"title": "low", "priority": "LOW", "project_id": "proj"},
		{"title": "critical", "priority": "CRITICAL", "project_id": "proj"},
		{"title": "planned", "priority": "HIGH", "project_id": "proj"},
	} {
		rec := call(t, router, http.MethodPost, "/backlog", item)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		if item["title"] == "planned" {
			id := decode[map[string]api.BacklogItem](t, rec)["backlog_item"].ID
			rec = call(t, router, http.MethodPut, "/backlog/"+id+"/sprint", map[string]string{"sprint_id": sprint.ID})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "SPRINT_BACKLOG", decode[map[string]api.BacklogItem](t, rec)["backlog_item"].Status)
		}
	}

	rec := call(t, router, http.MethodGet, "/projects/proj/backlog", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	backlog := decode[map[string][]api.BacklogItem](t, rec)["backlog"]
	require.Len(t, backlog, 2)
	assert.Equal(t, "critical", backlog[0].Title)
	assert.Equal(t, "low", backlog[1].Title)
}

func TestManualSweeps(t *testing.T) {
	router := newRouter(t)
	createSprint(t, router)

	rec := call(t, router, http.MethodPost, "/sweeps/daily", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[map[string]api.SweepResult](t, rec)["result"]
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Changed)
	assert.Empty(t, result.Failures)

	rec = call(t, router, http.MethodPost, "/sweeps/reminders", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[map[string]api.SweepResult](t, rec)["result"].Processed)
}
