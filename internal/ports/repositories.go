package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskdeck/core/internal/domain/entities"
)

// Filter wildcard: an empty criterion or "all" means no constraint.
const FilterAll = "all"

// TaskFilter narrows a listing. All criteria are optional and AND-combined.
type TaskFilter struct {
	Status   string // all | completed | pending
	Priority string // all | high | medium | low
	Category string // all | <exact value>
	Search   string // case-insensitive substring over title OR description
}

// Constrains reports whether v is an effective criterion.
func Constrains(v string) bool {
	return v != "" && v != FilterAll
}

// TaskRepository defines the interface for task data operations.
//
// List applies the canonical ordering (priority rank ascending, created_at
// descending); ListByCreation orders by created_at descending only, which is
// what the CSV export uses. Update and Delete are permissive: a missing id
// is reported through the boolean, never as an error.
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]*entities.Task, error)
	ListByCreation(ctx context.Context) ([]*entities.Task, error)
	Update(ctx context.Context, task *entities.Task) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}
