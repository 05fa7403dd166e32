package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/doitnow-api/internal/domain/entity"
	"github.com/oksasatya/doitnow-api/internal/domain/repository"
)

type userRecord struct {
	user entity.User
}

type redemptionRecord struct {
	r   entity.Redemption
	seq int
}

type UserRepository struct {
	s *Store
}

var _ repository.UserRepository = (*UserRepository)(nil)

func cloneUser(u entity.User) *entity.User {
	if u.OTPCode != nil {
		code := *u.OTPCode
		u.OTPCode = &code
	}
	if u.OTPExpiresAt != nil {
		exp := *u.OTPExpiresAt
		u.OTPExpiresAt = &exp
	}
	return &u
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rec := range r.s.users {
		if rec.user.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.users[u.ID] = &userRecord{user: *cloneUser(*u)}
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(rec.user), nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, rec := range r.s.users {
		if rec.user.Email == email {
			return cloneUser(rec.user), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.users, id)
	delete(r.s.redemptions, id)
	return nil
}

func (r *UserRepository) SetOTP(_ context.Context, id, code string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	exp := expiresAt
	rec.user.OTPCode = &code
	rec.user.OTPExpiresAt = &exp
	rec.user.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *UserRepository) ClearOTP(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	rec.user.OTPCode = nil
	rec.user.OTPExpiresAt = nil
	rec.user.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *UserRepository) ApplyRedemption(_ context.Context, userID string, expectedSpent, amount int64) (*entity.Redemption, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if rec.user.PointsSpent != expectedSpent {
		return nil, repository.ErrStaleSpent
	}
	now := time.Now().UTC()
	rec.user.PointsSpent = expectedSpent + amount
	rec.user.UpdatedAt = now
	red := entity.Redemption{
		ID:         uuid.NewString(),
		UserID:     userID,
		Amount:     amount,
		SpentAfter: rec.user.PointsSpent,
		CreatedAt:  now,
	}
	list := r.s.redemptions[userID]
	r.s.redemptions[userID] = append(list, redemptionRecord{r: red, seq: len(list)})
	return &red, nil
}

func (r *UserRepository) ListRedemptions(_ context.Context, userID string, limit int) ([]entity.Redemption, error) {
	r.s.mu.RLock()
	recs := append([]redemptionRecord(nil), r.s.redemptions[userID]...)
	r.s.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	out := make([]entity.Redemption, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.r)
	}
	return out, nil
}
