package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck/core/internal/domain/entities"
	"github.com/taskdeck/core/internal/infrastructure/logger"
)

func TestExportCSVRoundTrip(t *testing.T) {
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	repo := &fakeTaskRepo{tasks: []*entities.Task{
		{ID: uuid.New(), Title: "older", Priority: entities.PriorityHigh, Category: "work", CreatedAt: base},
		{ID: uuid.New(), Title: "newer, with \"quotes\"", Description: "a,b", Priority: entities.PriorityLow, Category: "home", DueDate: "2024-06-10", Completed: true, CreatedAt: base.Add(time.Hour)},
	}}

	svc := NewExportService(repo, logger.Nop())
	doc, err := svc.ExportCSV(context.Background())
	if err != nil {
		t.Fatalf("ExportCSV failed: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(doc.Data)).ReadAll()
	if err != nil {
		t.Fatalf("exported CSV does not parse back: %v", err)
	}

	if len(records) != len(repo.tasks)+1 {
		t.Fatalf("expected %d rows incl. header, got %d", len(repo.tasks)+1, len(records))
	}

	wantHeader := []string{"Title", "Description", "Priority", "Category", "Due Date", "Status", "Created At"}
	for i, col := range wantHeader {
		if records[0][i] != col {
			t.Errorf("header column %d: expected %q, got %q", i, col, records[0][i])
		}
	}

	// Export order is created_at descending only; priority is ignored here.
	if records[1][0] != "newer, with \"quotes\"" || records[2][0] != "older" {
		t.Errorf("expected newest first, got rows %q, %q", records[1][0], records[2][0])
	}

	for _, row := range records[1:] {
		if status := row[5]; status != "Completed" && status != "Pending" {
			t.Errorf("status column must be Completed or Pending, got %q", status)
		}
	}
}

func TestExportCSVEmptyStore(t *testing.T) {
	svc := NewExportService(&fakeTaskRepo{}, logger.Nop())

	doc, err := svc.ExportCSV(context.Background())
	if err != nil {
		t.Fatalf("ExportCSV failed: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(doc.Data)).ReadAll()
	if err != nil {
		t.Fatalf("exported CSV does not parse back: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected header only, got %d rows", len(records))
	}
}

func TestExportCSVFilenameCarriesDate(t *testing.T) {
	svc := NewExportService(&fakeTaskRepo{}, logger.Nop())
	svc.now = func() time.Time { return time.Date(2024, 6, 15, 23, 59, 0, 0, time.UTC) }

	doc, err := svc.ExportCSV(context.Background())
	if err != nil {
		t.Fatalf("ExportCSV failed: %v", err)
	}

	if doc.Filename != "tasks_export_20240615.csv" {
		t.Errorf("expected tasks_export_20240615.csv, got %q", doc.Filename)
	}
	if doc.ContentType != "text/csv" {
		t.Errorf("expected text/csv, got %q", doc.ContentType)
	}
}
