package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/doitnow-api/internal/domain/entity"
	"github.com/oksasatya/doitnow-api/internal/domain/repository"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	users := NewStore().Users()

	code := "123456"
	u := &entity.User{Email: "ana@example.com", OTPCode: &code}
	require.NoError(t, users.Create(ctx, u))
	assert.NotEmpty(t, u.ID)
	assert.ErrorIs(t, users.Create(ctx, &entity.User{Email: "ana@example.com"}), repository.ErrDuplicateEmail)

	got, err := users.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	*got.OTPCode = "mutated"
	again, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "123456", *again.OTPCode, "returned users are copies")

	require.NoError(t, users.SetOTP(ctx, u.ID, "654321", time.Now().Add(time.Minute)))
	require.NoError(t, users.ClearOTP(ctx, u.ID))
	again, err = users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, again.Verified())

	require.NoError(t, users.Delete(ctx, u.ID))
	_, err = users.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, users.Delete(ctx, u.ID), repository.ErrNotFound)
}

func TestUserRepository_ApplyRedemption(t *testing.T) {
	ctx := context.Background()
	users := NewStore().Users()
	u := &entity.User{Email: "ana@example.com"}
	require.NoError(t, users.Create(ctx, u))

	r, err := users.ApplyRedemption(ctx, u.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), r.SpentAfter)

	_, err = users.ApplyRedemption(ctx, u.ID, 0, 5)
	assert.ErrorIs(t, err, repository.ErrStaleSpent)
	_, err = users.ApplyRedemption(ctx, "ghost", 0, 5)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = users.ApplyRedemption(ctx, u.ID, 10, 5)
	require.NoError(t, err)
	list, err := users.ListRedemptions(ctx, u.ID, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(15), list[0].SpentAfter, "newest first")
}

func TestTaskRepository(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := &entity.User{Email: "ana@example.com"}
	require.NoError(t, s.Users().Create(ctx, u))
	tasks := s.Tasks()

	assert.ErrorIs(t, tasks.Create(ctx, &entity.Task{OwnerID: "ghost"}), repository.ErrNotFound)

	a := &entity.Task{OwnerID: u.ID, Name: "a", Priority: entity.PriorityLow}
	b := &entity.Task{OwnerID: u.ID, Name: "b", Priority: entity.PriorityHigh}
	require.NoError(t, tasks.Create(ctx, a))
	require.NoError(t, tasks.Create(ctx, b))

	list, err := tasks.ListByOwner(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].Name)

	c := entity.Completion{ProofRef: "ref", Notes: "n", Points: 30, CompletedAt: time.Now()}
	done, err := tasks.MarkCompleted(ctx, b.ID, c)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	_, err = tasks.MarkCompleted(ctx, b.ID, c)
	assert.ErrorIs(t, err, repository.ErrAlreadyCompleted)
	_, err = tasks.MarkCompleted(ctx, "nope", c)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	sum, err := tasks.SumCompletedPoints(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30), sum)
}
