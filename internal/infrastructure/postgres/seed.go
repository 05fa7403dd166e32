package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oksasatya/doitnow-api/internal/domain/entity"
)

// DemoUser is the verified account created by Seed.
type DemoUser struct {
	FirstName string
	LastName  string
	Email     string
	Hash      string
}

// DemoTask is one seeded task. Completed tasks get the points of their tier.
type DemoTask struct {
	Name      string
	Priority  entity.Priority
	DueIn     time.Duration
	Completed bool
}

// Seed upserts u as a verified user and inserts tasks for it when the user
// has none yet. It returns the user id.
func Seed(ctx context.Context, db *sql.DB, u DemoUser, tasks []DemoTask, now time.Time) (string, error) {
	var id string
	err := db.QueryRowContext(ctx, `
		INSERT INTO users (first_name, last_name, email, password)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET first_name = EXCLUDED.first_name, otp_code = NULL, otp_expires_at = NULL
		RETURNING id
	`, u.FirstName, u.LastName, u.Email, u.Hash).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("seed user: %w", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE owner_id = $1`, id).Scan(&count); err != nil {
		return "", fmt.Errorf("count tasks: %w", err)
	}
	if count > 0 {
		return id, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	for _, t := range tasks {
		var (
			points      int64
			completedAt *time.Time
		)
		if t.Completed {
			points = entity.PointsFor(t.Priority)
			at := now
			completedAt = &at
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (owner_id, name, due_date, completed, points, priority, completed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, id, t.Name, now.Add(t.DueIn), t.Completed, points, string(t.Priority), completedAt); err != nil {
			return "", fmt.Errorf("seed task %q: %w", t.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}
