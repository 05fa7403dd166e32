package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/doitnow-api/internal/domain/entity"
	"github.com/oksasatya/doitnow-api/internal/domain/repository"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

var _ repository.UserRepository = (*UserRepository)(nil)

const userColumns = `id, first_name, last_name, second_last_name, email, password,
	otp_code, otp_expires_at, points_spent, created_at, updated_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.SecondLastName, &u.Email, &u.Password,
		&u.OTPCode, &u.OTPExpiresAt, &u.PointsSpent, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isBadUUID(err) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (first_name, last_name, second_last_name, email, password, otp_code, otp_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, points_spent, created_at, updated_at
	`, u.FirstName, u.LastName, u.SecondLastName, u.Email, u.Password, u.OTPCode, u.OTPExpiresAt)

	if err := row.Scan(&u.ID, &u.PointsSpent, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetOTP(ctx context.Context, id, code string, expiresAt time.Time) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users SET otp_code = $1, otp_expires_at = $2, updated_at = now()
		WHERE id = $3
	`, code, expiresAt, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) ClearOTP(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users SET otp_code = NULL, otp_expires_at = NULL, updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ApplyRedemption bumps points_spent only while it still equals
// expectedSpent, and records the redemption in the same transaction.
func (r *UserRepository) ApplyRedemption(ctx context.Context, userID string, expectedSpent, amount int64) (*entity.Redemption, error) {
	red := &entity.Redemption{UserID: userID, Amount: amount}
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE users SET points_spent = points_spent + $1, updated_at = now()
			WHERE id = $2 AND points_spent = $3
			RETURNING points_spent
		`, amount, userID, expectedSpent).Scan(&red.SpentAfter)
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return repository.ErrNotFound
			}
			return repository.ErrStaleSpent
		}
		if err != nil {
			if isBadUUID(err) {
				return repository.ErrNotFound
			}
			return err
		}
		return tx.QueryRow(ctx, `
			INSERT INTO point_redemptions (user_id, amount, spent_after)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`, userID, amount, red.SpentAfter).Scan(&red.ID, &red.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	return red, nil
}

func (r *UserRepository) ListRedemptions(ctx context.Context, userID string, limit int) ([]entity.Redemption, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, amount, spent_after, created_at
		FROM point_redemptions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]entity.Redemption, 0)
	for rows.Next() {
		var red entity.Redemption
		if err := rows.Scan(&red.ID, &red.UserID, &red.Amount, &red.SpentAfter, &red.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, red)
	}
	return out, rows.Err()
}
