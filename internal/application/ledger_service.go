package application

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/doitnow-api/internal/domain/entity"
	repo "github.com/oksasatya/doitnow-api/internal/domain/repository"
)

const defaultRedeemRetries = 3

var (
	pointsRedeemed     = expvar.NewInt("points_redeemed_total")
	redeemCASConflicts = expvar.NewInt("redeem_cas_conflicts_total")
)

// LedgerService derives balances from completed tasks and debits
// redemptions against the user's points_spent counter.
type LedgerService struct {
	Users      repo.UserRepository
	Tasks      repo.TaskRepository
	Logger     *logrus.Logger
	MaxRetries int
}

func NewLedgerService(users repo.UserRepository, tasks repo.TaskRepository, logger *logrus.Logger, maxRetries int) *LedgerService {
	if maxRetries <= 0 {
		maxRetries = defaultRedeemRetries
	}
	return &LedgerService{Users: users, Tasks: tasks, Logger: logger, MaxRetries: maxRetries}
}

// ComputeEarned sums the points of the user's completed tasks. The user is
// not looked up.
func (s *LedgerService) ComputeEarned(ctx context.Context, userID string) (int64, error) {
	earned, err := s.Tasks.SumCompletedPoints(ctx, userID)
	if err != nil {
		return 0, s.internal(err, userID, "sum completed points failed")
	}
	return earned, nil
}

func (s *LedgerService) GetBalance(ctx context.Context, userID string) (entity.Balance, error) {
	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return entity.Balance{}, err
	}
	earned, err := s.ComputeEarned(ctx, userID)
	if err != nil {
		return entity.Balance{}, err
	}
	return entity.NewBalance(earned, u.PointsSpent), nil
}

// maxAmount caps requests far above any reachable balance so the
// conversion to int64 cannot overflow.
const maxAmount = math.MaxInt64 / 2

// ValidateAmount accepts finite, non-negative whole numbers. Amounts above
// maxAmount are clamped to it and fail the balance check instead.
func ValidateAmount(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("amount must be a finite number: %w", ErrInvalidInput)
	}
	if amount < 0 {
		return 0, fmt.Errorf("amount must not be negative: %w", ErrInvalidInput)
	}
	if amount != math.Trunc(amount) {
		return 0, fmt.Errorf("amount must be a whole number of points: %w", ErrInvalidInput)
	}
	if amount >= maxAmount {
		return maxAmount, nil
	}
	return int64(amount), nil
}

// Redeem debits amount from the available balance. The debit is a
// compare-and-swap on points_spent; a lost race is retried against a fresh
// read up to MaxRetries times before ErrConflict is returned.
func (s *LedgerService) Redeem(ctx context.Context, userID string, amount float64) (entity.Balance, error) {
	pts, err := ValidateAmount(amount)
	if err != nil {
		return entity.Balance{}, err
	}

	for attempt := 1; attempt <= s.MaxRetries; attempt++ {
		bal, err := s.GetBalance(ctx, userID)
		if err != nil {
			return entity.Balance{}, err
		}
		if pts > bal.Available {
			return entity.Balance{}, fmt.Errorf("requested %d, available %d: %w", pts, bal.Available, ErrInsufficientBalance)
		}

		red, err := s.Users.ApplyRedemption(ctx, userID, bal.Spent, pts)
		switch {
		case err == nil:
			pointsRedeemed.Add(pts)
			if s.Logger != nil {
				s.Logger.WithFields(logrus.Fields{
					"user_id":     userID,
					"amount":      pts,
					"spent_after": red.SpentAfter,
					"attempt":     attempt,
				}).Info("points redeemed")
			}
			return entity.NewBalance(bal.Earned, red.SpentAfter), nil
		case errors.Is(err, repo.ErrStaleSpent):
			redeemCASConflicts.Add(1)
			if s.Logger != nil {
				s.Logger.WithField("user_id", userID).WithField("attempt", attempt).Debug("redeem lost race, retrying")
			}
			if ctx.Err() != nil {
				return entity.Balance{}, ctx.Err()
			}
		case errors.Is(err, repo.ErrNotFound):
			return entity.Balance{}, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		default:
			return entity.Balance{}, s.internal(err, userID, "apply redemption failed")
		}
	}
	return entity.Balance{}, fmt.Errorf("redeem gave up after %d attempts: %w", s.MaxRetries, ErrConflict)
}

func (s *LedgerService) ListRedemptions(ctx context.Context, userID string, limit int) ([]entity.Redemption, error) {
	if _, err := s.loadUser(ctx, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	out, err := s.Users.ListRedemptions(ctx, userID, limit)
	if err != nil {
		return nil, s.internal(err, userID, "list redemptions failed")
	}
	return out, nil
}

func (s *LedgerService) loadUser(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, s.internal(err, userID, "load user failed")
	}
	return u, nil
}

func (s *LedgerService) internal(err error, userID, msg string) error {
	if s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Error(msg)
	}
	return fmt.Errorf("%s: %w", msg, ErrInternal)
}
