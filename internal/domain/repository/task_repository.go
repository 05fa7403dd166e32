package repository

import (
	"context"

	"github.com/oksasatya/doitnow-api/internal/domain/entity"
)

// TaskRepository defines the interface for task persistence.
type TaskRepository interface {
	Create(ctx context.Context, t *entity.Task) error
	GetByID(ctx context.Context, id string) (*entity.Task, error)
	ListByOwner(ctx context.Context, ownerID string) ([]entity.Task, error)

	// SumCompletedPoints returns the total points of completed tasks owned by ownerID.
	SumCompletedPoints(ctx context.Context, ownerID string) (int64, error)

	// MarkCompleted applies c only if the task is still incomplete. It returns
	// ErrAlreadyCompleted when another completion won, ErrNotFound when the
	// task does not exist.
	MarkCompleted(ctx context.Context, id string, c entity.Completion) (*entity.Task, error)
}
