package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck/core/internal/domain/entities"
	"github.com/taskdeck/core/internal/infrastructure/logger"
	"github.com/taskdeck/core/internal/ports"
)

// TaskService handles task-related operations: creation with defaults and
// best-effort attachment upload, filtered listing, permissive update/delete,
// and the two statistics variants.
type TaskService struct {
	taskRepo ports.TaskRepository
	uploader ports.AttachmentUploader // nil when storage is not configured
	logger   *logger.Logger
	now      func() time.Time
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, uploader ports.AttachmentUploader, logger *logger.Logger) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		uploader: uploader,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateTask creates a new task. The attachment, if present, is uploaded
// first; any upload failure is logged and swallowed so it can never block
// the creation itself.
func (s *TaskService) CreateTask(ctx context.Context, req ports.CreateTaskRequest) (*entities.Task, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, entities.ErrTitleRequired
	}
	if err := validateDueDate(req.DueDate); err != nil {
		return nil, err
	}

	task := &entities.Task{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Category:    req.Category,
		DueDate:     req.DueDate,
		Completed:   false,
		CreatedAt:   s.now().UTC(),
		Tags:        entities.StringList(req.Tags),
	}
	applyDefaults(task)

	if req.Attachment != nil && req.Attachment.Filename != "" {
		task.FileURL = s.uploadAttachment(ctx, task.ID, req.Attachment)
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Infow("Task created", "task_id", task.ID, "title", task.Title)

	return task, nil
}

// uploadAttachment returns the stored URL, or "" when the upload failed or
// no uploader is configured. Failure is operator-visible only.
func (s *TaskService) uploadAttachment(ctx context.Context, taskID uuid.UUID, att *ports.Attachment) string {
	if s.uploader == nil {
		s.logger.Warnw("Attachment ignored, storage not configured", "task_id", taskID, "filename", att.Filename)
		return ""
	}

	url, err := s.uploader.Upload(ctx, taskID, att.Filename, att.Content)
	if err != nil {
		s.logger.Errorw("Attachment upload failed", "task_id", taskID, "filename", att.Filename, "error", err)
		return ""
	}

	return url
}

// ListTasks retrieves tasks matching the filter in canonical order.
func (s *TaskService) ListTasks(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	tasks, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

// UpdateTask fully replaces the mutable fields of a task. A missing id is a
// silent success; id, created_at and file_url are never touched.
func (s *TaskService) UpdateTask(ctx context.Context, id uuid.UUID, req ports.UpdateTaskRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return entities.ErrTitleRequired
	}
	if err := validateDueDate(req.DueDate); err != nil {
		return err
	}

	task := &entities.Task{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Category:    req.Category,
		DueDate:     req.DueDate,
		Completed:   req.Completed,
		Tags:        entities.StringList(req.Tags),
	}
	applyDefaults(task)

	found, err := s.taskRepo.Update(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	if !found {
		s.logger.Debugw("Update on missing task id", "task_id", id)
	} else {
		s.logger.Infow("Task updated", "task_id", id, "title", task.Title)
	}

	return nil
}

// DeleteTask removes a task. Deleting a missing id is a no-op success.
func (s *TaskService) DeleteTask(ctx context.Context, id uuid.UUID) error {
	found, err := s.taskRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if !found {
		s.logger.Debugw("Delete on missing task id", "task_id", id)
	} else {
		s.logger.Infow("Task deleted", "task_id", id)
	}

	return nil
}

// DashboardStats computes the counts shown on the dashboard. Overdue stays
// zero in this variant.
func (s *TaskService) DashboardStats(ctx context.Context) (*entities.TaskStats, error) {
	tasks, err := s.taskRepo.List(ctx, ports.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}

	return s.computeStats(tasks, false), nil
}

// Stats computes the full statistics including the overdue count.
func (s *TaskService) Stats(ctx context.Context) (*entities.TaskStats, error) {
	tasks, err := s.taskRepo.List(ctx, ports.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}

	return s.computeStats(tasks, true), nil
}

func (s *TaskService) computeStats(tasks []*entities.Task, withOverdue bool) *entities.TaskStats {
	stats := &entities.TaskStats{Total: len(tasks)}

	now := s.now()
	for _, task := range tasks {
		if task.Completed {
			stats.Completed++
		}

		if !withOverdue {
			continue
		}
		overdue, err := task.IsOverdue(now)
		if err != nil {
			// A corrupt stored due date must not take down the whole
			// stats computation: skip the row.
			s.logger.Warnw("Skipping task with unparseable due date", "task_id", task.ID, "due_date", task.DueDate)
			continue
		}
		if overdue {
			stats.Overdue++
		}
	}

	stats.Pending = stats.Total - stats.Completed
	if stats.Total > 0 {
		rate := float64(stats.Completed) / float64(stats.Total) * 100
		stats.CompletionRate = math.Round(rate*10) / 10
	}

	return stats
}

// applyDefaults fills the documented field defaults on a task about to be
// written: priority medium, category "general", tags empty.
func applyDefaults(task *entities.Task) {
	if task.Priority == "" {
		task.Priority = entities.PriorityMedium
	}
	if task.Category == "" {
		task.Category = "general"
	}
	if task.Tags == nil {
		task.Tags = entities.StringList{}
	}
}

func validateDueDate(dueDate string) error {
	if dueDate == "" {
		return nil
	}
	if _, err := time.Parse(entities.DueDateLayout, dueDate); err != nil {
		return fmt.Errorf("%w: %q", entities.ErrInvalidDueDate, dueDate)
	}
	return nil
}

// IsValidationError reports whether err is caller input that should map to
// a 400 response rather than a server failure.
func IsValidationError(err error) bool {
	return errors.Is(err, entities.ErrTitleRequired) || errors.Is(err, entities.ErrInvalidDueDate)
}
