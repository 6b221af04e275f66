package entities

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrTaskNotFound   = errors.New("task not found")
	ErrTitleRequired  = errors.New("title is required")
	ErrInvalidDueDate = errors.New("invalid due date")
)

// DueDateLayout is the calendar-date format tasks carry in due_date.
// There are no timezone semantics: comparisons are date-only.
const DueDateLayout = "2006-01-02"

// Priority of a task. Anything outside the three known values sorts last.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// Rank returns the canonical sort rank: high=1, medium=2, low=3,
// unrecognized values after everything else.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// StringList is an ordered list of tags stored as a JSON array inside a
// TEXT column. Round-trips preserve insertion order.
type StringList []string

// Value implements driver.Valuer. A nil list serializes as an empty array
// so the column never holds SQL NULL.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("scan tags: unsupported type %T", src)
	}

	if len(data) == 0 {
		*l = StringList{}
		return nil
	}

	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("scan tags: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

// Task is the sole entity in the system: a single to-do item with metadata
// and an optional uploaded attachment.
type Task struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Priority    Priority   `json:"priority" db:"priority"`
	Category    string     `json:"category" db:"category"`
	DueDate     string     `json:"due_date" db:"due_date"`
	Completed   bool       `json:"completed" db:"completed"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	FileURL     string     `json:"file_url" db:"file_url"`
	Tags        StringList `json:"tags" db:"tags"`
}

// HasDueDate reports whether the task carries a deadline at all.
func (t *Task) HasDueDate() bool {
	return t.DueDate != ""
}

// IsOverdue reports whether the task is incomplete with a due date strictly
// earlier than the calendar date of now. Returns ErrInvalidDueDate (wrapped)
// when the stored due date does not parse.
func (t *Task) IsOverdue(now time.Time) (bool, error) {
	if t.Completed || !t.HasDueDate() {
		return false, nil
	}

	due, err := time.Parse(DueDateLayout, t.DueDate)
	if err != nil {
		return false, fmt.Errorf("%w: %q", ErrInvalidDueDate, t.DueDate)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return due.Before(today), nil
}

// StatusText renders the completed flag the way reports show it.
func (t *Task) StatusText() string {
	if t.Completed {
		return "Completed"
	}
	return "Pending"
}

// TaskStats aggregates the task set. Overdue is only populated by the full
// stats computation; the dashboard variant leaves it at zero.
type TaskStats struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Pending        int     `json:"pending"`
	Overdue        int     `json:"overdue"`
	CompletionRate float64 `json:"completion_rate"`
}
