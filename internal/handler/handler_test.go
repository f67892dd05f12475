package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

type memTaskRepo struct {
	mu    sync.Mutex
	tasks []model.Task
}

func (r *memTaskRepo) ListByOwner(_ context.Context, ownerID string) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Task{}
	for i := len(r.tasks) - 1; i >= 0; i-- {
		if r.tasks[i].AssignedTo == ownerID {
			out = append(out, r.tasks[i])
		}
	}
	return out, nil
}

func (r *memTaskRepo) Insert(_ context.Context, t model.Task) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = uuid.NewString()
	r.tasks = append(r.tasks, t)
	return t, nil
}

func (r *memTaskRepo) Update(_ context.Context, id, ownerID string, patch model.TaskPatch) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, t := range r.tasks {
		if t.ID == id && (ownerID == "" || t.AssignedTo == ownerID) {
			r.tasks[i] = patch.Apply(t)
			return r.tasks[i], nil
		}
	}
	return model.Task{}, repository.ErrNotFound
}

func (r *memTaskRepo) Delete(_ context.Context, id, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, t := range r.tasks {
		if t.ID == id {
			r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
			break
		}
	}
	return nil
}

type memNoteRepo struct {
	mu    sync.Mutex
	notes map[string]string
}

func (r *memNoteRepo) GetOrCreate(_ context.Context, ownerID string) (model.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notes[ownerID]; !ok {
		r.notes[ownerID] = ""
	}
	return model.Note{OwnerID: ownerID, Content: r.notes[ownerID]}, nil
}

func (r *memNoteRepo) Upsert(_ context.Context, ownerID, content string) (model.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes[ownerID] = content
	return model.Note{OwnerID: ownerID, Content: content}, nil
}

func newTestEngine(t *testing.T, caller string) (*gin.Engine, *memTaskRepo, *memNoteRepo) {
	gin.SetMode(gin.TestMode)
	tasks, notes := &memTaskRepo{}, &memNoteRepo{notes: map[string]string{}}
	th := NewTaskHandler(tasks, zaptest.NewLogger(t))
	nh := NewNoteHandler(notes, zaptest.NewLogger(t))

	r := gin.New()
	if caller != "" {
		r.Use(func(c *gin.Context) { c.Set(OwnerKey, caller) })
	}
	r.GET("/tasks/:ownerId", th.ListTasks)
	r.POST("/tasks", th.CreateTask)
	r.PUT("/tasks/:id", th.UpdateTask)
	r.DELETE("/tasks/:id", th.DeleteTask)
	r.GET("/notes/:ownerId", nh.GetNote)
	r.PUT("/notes/:ownerId", nh.PutNote)
	return r, tasks, notes
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateThenListNewestFirst(t *testing.T) {
	r, _, _ := newTestEngine(t, "")

	for _, title := range []string{"first", "second"} {
		w := do(r, http.MethodPost, "/tasks", map[string]any{
			"title": title, "description": "d", "priority": "Low", "assignedTo": "u1",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("create %s: status %d body %s", title, w.Code, w.Body.String())
		}
	}

	w := do(r, http.MethodGet, "/tasks/u1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: status %d", w.Code)
	}
	var tasks []model.Task
	if err := json.Unmarshal(w.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tasks) != 2 || tasks[0].Title != "second" || tasks[0].Status != model.StatusIncomplete {
		t.Fatalf("unexpected tasks %+v", tasks)
	}
}

func TestListUnknownOwnerIsEmptyArray(t *testing.T) {
	r, _, _ := newTestEngine(t, "")
	w := do(r, http.MethodGet, "/tasks/nobody", nil)
	if w.Code != http.StatusOK || w.Body.String() != "[]" {
		t.Fatalf("expected empty array, got %d %s", w.Code, w.Body.String())
	}
}

func TestCreateRejectsInvalidDraft(t *testing.T) {
	r, repo, _ := newTestEngine(t, "")
	w := do(r, http.MethodPost, "/tasks", map[string]any{"title": " ", "description": "", "progress": 120})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var body struct {
		Fields []model.FieldError `json:"fields"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if len(body.Fields) != 4 {
		t.Fatalf("expected title, description, progress and assignedTo errors, got %+v", body.Fields)
	}
	if len(repo.tasks) != 0 {
		t.Fatalf("invalid draft must not be stored")
	}
}

func TestUpdatePartialAndNotFound(t *testing.T) {
	r, repo, _ := newTestEngine(t, "")
	created, _ := repo.Insert(context.Background(), model.Task{Title: "a", Description: "b", Priority: model.PriorityMedium, AssignedTo: "u1"})

	w := do(r, http.MethodPut, "/tasks/"+created.ID, map[string]any{"progress": 55})
	if w.Code != http.StatusOK {
		t.Fatalf("update: status %d body %s", w.Code, w.Body.String())
	}
	var got model.Task
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Progress != 55 || got.Title != "a" {
		t.Fatalf("unexpected task %+v", got)
	}

	if w := do(r, http.MethodPut, "/tasks/"+uuid.NewString(), map[string]any{"progress": 1}); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", w.Code)
	}
	if w := do(r, http.MethodPut, "/tasks/not-a-uuid", map[string]any{"progress": 1}); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for malformed id, got %d", w.Code)
	}
	if w := do(r, http.MethodPut, "/tasks/"+created.ID, map[string]any{"progress": 300}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out of range progress, got %d", w.Code)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	r, repo, _ := newTestEngine(t, "")
	created, _ := repo.Insert(context.Background(), model.Task{Title: "a", Description: "b", AssignedTo: "u1"})

	for i := 0; i < 2; i++ {
		if w := do(r, http.MethodDelete, "/tasks/"+created.ID, nil); w.Code != http.StatusOK {
			t.Fatalf("delete #%d: status %d", i+1, w.Code)
		}
	}
	if len(repo.tasks) != 0 {
		t.Fatalf("expected task removed")
	}
}

func TestOwnerMismatchIsForbidden(t *testing.T) {
	r, _, _ := newTestEngine(t, "u1")
	if w := do(r, http.MethodGet, "/tasks/u2", nil); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	w := do(r, http.MethodPost, "/tasks", map[string]any{"title": "t", "description": "d"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected authenticated owner to be assigned, got %d %s", w.Code, w.Body.String())
	}
	var created model.Task
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.AssignedTo != "u1" {
		t.Fatalf("expected assignedTo u1, got %q", created.AssignedTo)
	}
}

func TestNoteFindOrCreateAndUpsert(t *testing.T) {
	r, _, notes := newTestEngine(t, "")

	w := do(r, http.MethodGet, "/notes/u1", nil)
	if w.Code != http.StatusOK || w.Body.String() != `{"content":""}` {
		t.Fatalf("unexpected first read %d %s", w.Code, w.Body.String())
	}
	if _, ok := notes.notes["u1"]; !ok {
		t.Fatalf("expected note to be created on first access")
	}

	w = do(r, http.MethodPut, "/notes/u1", map[string]string{"content": "abc"})
	if w.Code != http.StatusOK || w.Body.String() != `{"content":"abc"}` {
		t.Fatalf("unexpected upsert response %d %s", w.Code, w.Body.String())
	}
}
