package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taskdeck/core/internal/application/services"
	"github.com/taskdeck/core/internal/infrastructure/logger"
	"github.com/taskdeck/core/internal/ports"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskService   ports.TaskService
	exportService ports.ExportService
	logger        *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService ports.TaskService, exportService ports.ExportService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService:   taskService,
		exportService: exportService,
		logger:        logger,
	}
}

// Dashboard renders the HTML dashboard: tasks in canonical order plus the
// dashboard statistics variant.
func (h *TaskHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()

	tasks, err := h.taskService.ListTasks(ctx, ports.TaskFilter{})
	if err != nil {
		h.logger.Errorw("Dashboard listing failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load tasks")
	}

	stats, err := h.taskService.DashboardStats(ctx)
	if err != nil {
		h.logger.Errorw("Dashboard stats failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load stats")
	}

	return c.Render(http.StatusOK, "index.html", map[string]interface{}{
		"Tasks": tasks,
		"Stats": stats,
	})
}

// ListTasks handles filtered task listing
func (h *TaskHandler) ListTasks(c echo.Context) error {
	filter := ports.TaskFilter{
		Status:   c.QueryParam("status"),
		Priority: c.QueryParam("priority"),
		Category: c.QueryParam("category"),
		Search:   c.QueryParam("search"),
	}

	tasks, err := h.taskService.ListTasks(c.Request().Context(), filter)
	if err != nil {
		h.logger.Errorw("List tasks failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve tasks")
	}

	return c.JSON(http.StatusOK, tasks)
}

// CreateTask handles task creation from either a JSON body or a multipart
// form carrying the fields plus an optional file part.
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if isMultipart(c) {
		if err := h.bindMultipartExtras(c, &req); err != nil {
			return err
		}
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), req)
	if err != nil {
		if services.IsValidationError(err) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		h.logger.Errorw("Create task failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create task")
	}

	return c.JSON(http.StatusOK, CreateTaskResponse{Success: true, ID: task.ID})
}

// bindMultipartExtras pulls out the pieces echo's binder does not cover:
// the tags field (a JSON array submitted as a form string) and the file part.
func (h *TaskHandler) bindMultipartExtras(c echo.Context, req *ports.CreateTaskRequest) error {
	if raw := c.FormValue("tags"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Tags); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "tags must be a JSON array")
		}
	}

	file, err := c.FormFile("file")
	if err != nil || file == nil || file.Filename == "" {
		return nil // no attachment
	}

	src, err := file.Open()
	if err != nil {
		// Same policy as a failed upload: the task is still created.
		h.logger.Errorw("Opening uploaded file failed", "filename", file.Filename, "error", err)
		return nil
	}
	c.Response().After(func() { src.Close() })

	req.Attachment = &ports.Attachment{Filename: file.Filename, Content: src}
	return nil
}

// UpdateTask handles full replacement of a task's mutable fields
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}

	var req ports.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.taskService.UpdateTask(c.Request().Context(), id, req); err != nil {
		if services.IsValidationError(err) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		h.logger.Errorw("Update task failed", "error", err, "task_id", id)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update task")
	}

	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// DeleteTask handles task deletion. Success is reported regardless of prior
// existence.
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}

	if err := h.taskService.DeleteTask(c.Request().Context(), id); err != nil {
		h.logger.Errorw("Delete task failed", "error", err, "task_id", id)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete task")
	}

	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// Stats handles the full statistics endpoint, overdue count included
func (h *TaskHandler) Stats(c echo.Context) error {
	stats, err := h.taskService.Stats(c.Request().Context())
	if err != nil {
		h.logger.Errorw("Stats failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to compute stats")
	}

	return c.JSON(http.StatusOK, stats)
}

// Export streams the CSV report as a dated download
func (h *TaskHandler) Export(c echo.Context) error {
	doc, err := h.exportService.ExportCSV(c.Request().Context())
	if err != nil {
		h.logger.Errorw("Export failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to export tasks")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+doc.Filename+`"`)
	return c.Blob(http.StatusOK, doc.ContentType, doc.Data)
}

func isMultipart(c echo.Context) bool {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	return strings.HasPrefix(ct, echo.MIMEMultipartForm)
}

// Response types
type SuccessResponse struct {
	Success bool `json:"success"`
}

type CreateTaskResponse struct {
	Success bool      `json:"success"`
	ID      uuid.UUID `json:"id"`
}
