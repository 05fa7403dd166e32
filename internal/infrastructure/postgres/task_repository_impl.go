package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/doitnow-api/internal/domain/entity"
	"github.com/oksasatya/doitnow-api/internal/domain/repository"
)

type TaskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

var _ repository.TaskRepository = (*TaskRepository)(nil)

const taskColumns = `id, owner_id, name, due_date, completed, points, collaborative,
	assigned_users, priority, proof_ref, notes, completed_at, created_at`

func scanTask(row pgx.Row) (*entity.Task, error) {
	t := &entity.Task{}
	var priority string
	err := row.Scan(&t.ID, &t.OwnerID, &t.Name, &t.DueDate, &t.Completed, &t.Points, &t.Collaborative,
		&t.AssignedUsers, &priority, &t.ProofRef, &t.Notes, &t.CompletedAt, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.Priority = entity.Priority(priority)
	if t.AssignedUsers == nil {
		t.AssignedUsers = []string{}
	}
	return t, nil
}

func (r *TaskRepository) Create(ctx context.Context, t *entity.Task) error {
	if t.AssignedUsers == nil {
		t.AssignedUsers = []string{}
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (owner_id, name, due_date, collaborative, assigned_users, priority)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, completed, points, created_at
	`, t.OwnerID, t.Name, t.DueDate, t.Collaborative, t.AssignedUsers, string(t.Priority))
	if err := row.Scan(&t.ID, &t.Completed, &t.Points, &t.CreatedAt); err != nil {
		if pgCode(err) == foreignKeyViolation || isBadUUID(err) {
			return repository.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*entity.Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isBadUUID(err) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID string) ([]entity.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		if isBadUUID(err) {
			return []entity.Task{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	out := make([]entity.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *TaskRepository) SumCompletedPoints(ctx context.Context, ownerID string) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(points), 0)::BIGINT
		FROM tasks
		WHERE owner_id = $1 AND completed = true
	`, ownerID).Scan(&total)
	if err != nil {
		if isBadUUID(err) {
			return 0, nil
		}
		return 0, err
	}
	return total, nil
}

// MarkCompleted is guarded by completed = false so concurrent completions
// award points once.
func (r *TaskRepository) MarkCompleted(ctx context.Context, id string, c entity.Completion) (*entity.Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET completed = true, points = $1, proof_ref = $2, notes = $3, completed_at = $4
		WHERE id = $5 AND completed = false
		RETURNING `+taskColumns,
		c.Points, c.ProofRef, c.Notes, c.CompletedAt, id))
	if err == nil {
		return t, nil
	}
	if isBadUUID(err) {
		return nil, repository.ErrNotFound
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, repository.ErrNotFound
	}
	return nil, repository.ErrAlreadyCompleted
}
