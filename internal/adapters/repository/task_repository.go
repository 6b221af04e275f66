package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/taskdeck/core/internal/domain/entities"
	"github.com/taskdeck/core/internal/ports"
)

const taskColumns = `id, title, description, priority, category, due_date, completed, created_at, file_url, tags`

// canonicalOrder sorts by priority rank first, newest first within a rank.
// Unrecognized priority values fall through the ELSE arm and sort last.
// Listing and filtered queries must use this ordering identically.
const canonicalOrder = ` ORDER BY CASE priority
		WHEN 'high' THEN 1
		WHEN 'medium' THEN 2
		WHEN 'low' THEN 3
		ELSE 4
	END, created_at DESC`

// TaskRepositoryImpl implements the TaskRepository interface
type TaskRepositoryImpl struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sqlx.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entities.Task) error {
	query := `
		INSERT INTO tasks (id, title, description, priority, category, due_date, completed, created_at, file_url, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.Title, task.Description, task.Priority, task.Category,
		task.DueDate, task.Completed, task.CreatedAt, task.FileURL, task.Tags,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("create task: id %s already exists: %w", task.ID, err)
		}
		return fmt.Errorf("create task: %w", err)
	}

	return nil
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	var task entities.Task
	err := r.db.GetContext(ctx, &task, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task by id: %w", err)
	}

	return &task, nil
}

func (r *TaskRepositoryImpl) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	query, args := buildListQuery(filter)

	tasks := []*entities.Task{}
	err := r.db.SelectContext(ctx, &tasks, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) ListByCreation(ctx context.Context) ([]*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at DESC`

	tasks := []*entities.Task{}
	err := r.db.SelectContext(ctx, &tasks, query)
	if err != nil {
		return nil, fmt.Errorf("list tasks by creation: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, task *entities.Task) (bool, error) {
	query := `
		UPDATE tasks
		SET title = $2, description = $3, priority = $4, category = $5,
			due_date = $6, completed = $7, tags = $8
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		task.ID, task.Title, task.Description, task.Priority, task.Category,
		task.DueDate, task.Completed, task.Tags,
	)
	if err != nil {
		return false, fmt.Errorf("update task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `DELETE FROM tasks WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// buildListQuery assembles the filtered listing query. Criteria are
// AND-joined and every value goes through a bound placeholder; no user
// input is ever concatenated into the SQL text.
func buildListQuery(filter ports.TaskFilter) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)

	next := func() string { return fmt.Sprintf("$%d", len(args)) }

	if ports.Constrains(filter.Status) {
		args = append(args, filter.Status == "completed")
		clauses = append(clauses, "completed = "+next())
	}

	if ports.Constrains(filter.Priority) {
		args = append(args, filter.Priority)
		clauses = append(clauses, "priority = "+next())
	}

	if ports.Constrains(filter.Category) {
		args = append(args, filter.Category)
		clauses = append(clauses, "category = "+next())
	}

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		args = append(args, pattern)
		p := next()
		clauses = append(clauses, "(LOWER(title) LIKE "+p+" OR LOWER(description) LIKE "+p+")")
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += canonicalOrder

	return query, args
}
