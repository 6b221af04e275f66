package ports

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/taskdeck/core/internal/domain/entities"
)

// TaskService interface for task management operations
type TaskService interface {
	CreateTask(ctx context.Context, req CreateTaskRequest) (*entities.Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]*entities.Task, error)
	UpdateTask(ctx context.Context, id uuid.UUID, req UpdateTaskRequest) error
	DeleteTask(ctx context.Context, id uuid.UUID) error
	DashboardStats(ctx context.Context) (*entities.TaskStats, error)
	Stats(ctx context.Context) (*entities.TaskStats, error)
}

// ExportService interface for report generation
type ExportService interface {
	ExportCSV(ctx context.Context) (*ExportDocument, error)
}

// AttachmentUploader pushes a file to object storage and returns a durable
// public URL. The object key is derived from the task id and filename, so
// the same filename on two tasks never collides.
type AttachmentUploader interface {
	Upload(ctx context.Context, taskID uuid.UUID, filename string, content io.Reader) (string, error)
}

// Attachment is an optional file carried by a create request. It is set by
// the transport layer from a multipart part, never bound from JSON.
type Attachment struct {
	Filename string
	Content  io.Reader
}

// CreateTaskRequest carries the fields of a new task.
type CreateTaskRequest struct {
	Title       string            `json:"title" form:"title" validate:"required"`
	Description string            `json:"description" form:"description"`
	Priority    entities.Priority `json:"priority" form:"priority" validate:"omitempty,oneof=high medium low"`
	Category    string            `json:"category" form:"category"`
	DueDate     string            `json:"due_date" form:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Tags        []string          `json:"tags" form:"-"`

	Attachment *Attachment `json:"-" form:"-"`
}

// UpdateTaskRequest fully replaces the mutable fields of a task. The id,
// created_at and file_url are not replaceable.
type UpdateTaskRequest struct {
	Title       string            `json:"title" validate:"required"`
	Description string            `json:"description"`
	Priority    entities.Priority `json:"priority" validate:"omitempty,oneof=high medium low"`
	Category    string            `json:"category"`
	DueDate     string            `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Completed   bool              `json:"completed"`
	Tags        []string          `json:"tags"`
}

// ExportDocument is a rendered report ready to be served as a download.
type ExportDocument struct {
	Filename    string
	ContentType string
	Data        []byte
}
