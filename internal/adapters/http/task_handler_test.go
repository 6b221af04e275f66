package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taskdeck/core/internal/domain/entities"
	"github.com/taskdeck/core/internal/infrastructure/logger"
	"github.com/taskdeck/core/internal/ports"
)

type stubTaskService struct {
	lastFilter ports.TaskFilter
	lastCreate ports.CreateTaskRequest
	lastUpdate ports.UpdateTaskRequest
	deletedID  uuid.UUID
	created    *entities.Task
	stats      *entities.TaskStats
}

func (s *stubTaskService) CreateTask(ctx context.Context, req ports.CreateTaskRequest) (*entities.Task, error) {
	s.lastCreate = req
	return s.created, nil
}

func (s *stubTaskService) ListTasks(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	s.lastFilter = filter
	return []*entities.Task{}, nil
}

func (s *stubTaskService) UpdateTask(ctx context.Context, id uuid.UUID, req ports.UpdateTaskRequest) error {
	s.lastUpdate = req
	return nil
}

func (s *stubTaskService) DeleteTask(ctx context.Context, id uuid.UUID) error {
	s.deletedID = id
	return nil
}

func (s *stubTaskService) DashboardStats(ctx context.Context) (*entities.TaskStats, error) {
	return s.stats, nil
}

func (s *stubTaskService) Stats(ctx context.Context) (*entities.TaskStats, error) {
	return s.stats, nil
}

type stubExportService struct {
	doc *ports.ExportDocument
}

func (s *stubExportService) ExportCSV(ctx context.Context) (*ports.ExportDocument, error) {
	return s.doc, nil
}

type testValidator struct {
	v *validator.Validate
}

func (tv *testValidator) Validate(i interface{}) error {
	return tv.v.Struct(i)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = &testValidator{v: validator.New()}
	return e
}

func newTestHandler(task *stubTaskService, export *stubExportService) *TaskHandler {
	if export == nil {
		export = &stubExportService{}
	}
	return NewTaskHandler(task, export, logger.Nop())
}

func TestCreateTaskJSON(t *testing.T) {
	created := &entities.Task{ID: uuid.New(), Title: "Buy milk"}
	svc := &stubTaskService{created: created}
	h := newTestHandler(svc, nil)

	body := `{"title":"Buy milk","priority":"high","tags":["shopping","food"],"due_date":"2024-06-20"}`
	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := newTestEcho().NewContext(req, rec)

	if err := h.CreateTask(c); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp CreateTaskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response does not parse: %v", err)
	}
	if !resp.Success || resp.ID != created.ID {
		t.Errorf("unexpected response: %+v", resp)
	}

	if svc.lastCreate.Priority != entities.PriorityHigh {
		t.Errorf("priority not bound, got %q", svc.lastCreate.Priority)
	}
	if len(svc.lastCreate.Tags) != 2 || svc.lastCreate.Tags[0] != "shopping" {
		t.Errorf("tags not bound, got %v", svc.lastCreate.Tags)
	}
}

func TestCreateTaskMissingTitleReturns400(t *testing.T) {
	h := newTestHandler(&stubTaskService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(`{"description":"no title"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := newTestEcho().NewContext(req, rec)

	err := h.CreateTask(c)
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", he.Code)
	}
}

func TestCreateTaskInvalidPriorityReturns400(t *testing.T) {
	h := newTestHandler(&stubTaskService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(`{"title":"t","priority":"urgent"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := newTestEcho().NewContext(req, rec)

	err := h.CreateTask(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestCreateTaskMultipartWithFile(t *testing.T) {
	created := &entities.Task{ID: uuid.New(), Title: "Upload"}
	svc := &stubTaskService{created: created}
	h := newTestHandler(svc, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("title", "Upload")
	mw.WriteField("priority", "low")
	mw.WriteField("tags", `["a","b"]`)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	fw.Write([]byte("attachment body"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	c := newTestEcho().NewContext(req, rec)

	if err := h.CreateTask(c); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if svc.lastCreate.Title != "Upload" {
		t.Errorf("form fields not bound, got title %q", svc.lastCreate.Title)
	}
	if len(svc.lastCreate.Tags) != 2 {
		t.Errorf("multipart tags not parsed, got %v", svc.lastCreate.Tags)
	}
	if svc.lastCreate.Attachment == nil {
		t.Fatal("attachment not forwarded to service")
	}
	if svc.lastCreate.Attachment.Filename != "notes.txt" {
		t.Errorf("expected filename notes.txt, got %q", svc.lastCreate.Attachment.Filename)
	}
	data, err := io.ReadAll(svc.lastCreate.Attachment.Content)
	if err != nil {
		t.Fatalf("reading attachment failed: %v", err)
	}
	if string(data) != "attachment body" {
		t.Errorf("attachment content mangled: %q", data)
	}
}

func TestCreateTaskMultipartWithoutFile(t *testing.T) {
	svc := &stubTaskService{created: &entities.Task{ID: uuid.New()}}
	h := newTestHandler(svc, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("title", "No file")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	c := newTestEcho().NewContext(req, rec)

	if err := h.CreateTask(c); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if svc.lastCreate.Attachment != nil {
		t.Error("no attachment part must mean no attachment")
	}
}

func TestListTasksPassesFilterThrough(t *testing.T) {
	svc := &stubTaskService{}
	h := newTestHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks?status=completed&priority=high&category=work&search=milk", nil)
	rec := httptest.NewRecorder()
	c := newTestEcho().NewContext(req, rec)

	if err := h.ListTasks(c); err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}

	want := ports.TaskFilter{Status: "completed", Priority: "high", Category: "work", Search: "milk"}
	if svc.lastFilter != want {
		t.Errorf("expected filter %+v, got %+v", want, svc.lastFilter)
	}
}

func TestUpdateTaskInvalidIDReturns400(t *testing.T) {
	h := newTestHandler(&stubTaskService{}, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/tasks/not-a-uuid", strings.NewReader(`{"title":"t"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := newTestEcho().NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.UpdateTask(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestDeleteTaskAlwaysReportsSuccess(t *testing.T) {
	svc := &stubTaskService{}
	h := newTestHandler(svc, nil)

	id := uuid.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/tasks/"+id.String(), nil)
	rec := httptest.NewRecorder()
	c := newTestEcho().NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	if err := h.DeleteTask(c); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}

	var resp SuccessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response does not parse: %v", err)
	}
	if !resp.Success {
		t.Error("expected success true")
	}
	if svc.deletedID != id {
		t.Errorf("expected delete of %s, got %s", id, svc.deletedID)
	}
}

func TestStatsIncludesOverdue(t *testing.T) {
	svc := &stubTaskService{stats: &entities.TaskStats{Total: 4, Completed: 1, Pending: 3, Overdue: 2, CompletionRate: 25.0}}
	h := newTestHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	c := newTestEcho().NewContext(req, rec)

	if err := h.Stats(c); err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("response does not parse: %v", err)
	}
	if got["overdue"] != float64(2) {
		t.Errorf("expected overdue 2, got %v", got["overdue"])
	}
	if got["completion_rate"] != float64(25) {
		t.Errorf("expected completion_rate 25, got %v", got["completion_rate"])
	}
}

func TestExportServesDatedAttachment(t *testing.T) {
	doc := &ports.ExportDocument{
		Filename:    "tasks_export_" + time.Now().Format("20060102") + ".csv",
		ContentType: "text/csv",
		Data:        []byte("Title\n"),
	}
	h := newTestHandler(&stubTaskService{}, &stubExportService{doc: doc})

	req := httptest.NewRequest(http.MethodGet, "/export", nil)
	rec := httptest.NewRecorder()
	c := newTestEcho().NewContext(req, rec)

	if err := h.Export(c); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	disposition := rec.Header().Get(echo.HeaderContentDisposition)
	if !strings.Contains(disposition, doc.Filename) {
		t.Errorf("expected filename in disposition, got %q", disposition)
	}
	if !strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), "text/csv") {
		t.Errorf("expected text/csv, got %q", rec.Header().Get(echo.HeaderContentType))
	}
	if rec.Body.String() != "Title\n" {
		t.Errorf("body mangled: %q", rec.Body.String())
	}
}
