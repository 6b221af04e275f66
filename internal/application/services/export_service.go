package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/taskdeck/core/internal/infrastructure/logger"
	"github.com/taskdeck/core/internal/ports"
)

// exportHeader is the fixed CSV column set, in order.
var exportHeader = []string{"Title", "Description", "Priority", "Category", "Due Date", "Status", "Created At"}

// ExportService renders the full task set as a downloadable CSV document.
type ExportService struct {
	taskRepo ports.TaskRepository
	logger   *logger.Logger
	now      func() time.Time
}

// NewExportService creates a new export service
func NewExportService(taskRepo ports.TaskRepository, logger *logger.Logger) *ExportService {
	return &ExportService{
		taskRepo: taskRepo,
		logger:   logger,
		now:      time.Now,
	}
}

// ExportCSV serializes every task, newest first by creation time. Unlike the
// listings this deliberately ignores priority rank.
func (s *ExportService) ExportCSV(ctx context.Context) (*ports.ExportDocument, error) {
	tasks, err := s.taskRepo.ListByCreation(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export tasks: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for _, task := range tasks {
		row := []string{
			task.Title,
			task.Description,
			string(task.Priority),
			task.Category,
			task.DueDate,
			task.StatusText(),
			task.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	doc := &ports.ExportDocument{
		Filename:    fmt.Sprintf("tasks_export_%s.csv", s.now().Format("20060102")),
		ContentType: "text/csv",
		Data:        buf.Bytes(),
	}

	s.logger.Infow("Tasks exported", "rows", len(tasks), "filename", doc.Filename)

	return doc, nil
}
