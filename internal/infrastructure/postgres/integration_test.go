//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/oksasatya/doitnow-api/internal/application"
	"github.com/oksasatya/doitnow-api/internal/domain/entity"
	"github.com/oksasatya/doitnow-api/internal/domain/repository"
	pginfra "github.com/oksasatya/doitnow-api/internal/infrastructure/postgres"
	"github.com/oksasatya/doitnow-api/pkg/helpers"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "doitnow_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/doitnow_test?sslmode=disable", host, port.Port())

	// The port can accept connections before postgres finishes its init restart.
	var migErr error
	for i := 0; i < 10; i++ {
		if migErr = pginfra.RunMigrations(dsn, "../../../db/migrations", helpers.NewNopLogger()); migErr == nil {
			break
		}
		time.Sleep(time.Second)
	}
	if migErr != nil {
		panic(migErr)
	}

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func newUser(t *testing.T, users *pginfra.UserRepository, email string) *entity.User {
	t.Helper()
	u := &entity.User{FirstName: "Ana", LastName: "Diaz", Email: email, Password: "hash"}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func TestRepositories(t *testing.T) {
	ctx := context.Background()
	pool, err := pginfra.NewPool(ctx, dsn, 10, 1, time.Hour)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	users := pginfra.NewUserRepository(pool)
	tasks := pginfra.NewTaskRepository(pool)

	t.Run("user_lifecycle", func(t *testing.T) {
		code := "123456"
		exp := time.Now().Add(time.Minute).UTC()
		u := &entity.User{FirstName: "Ana", LastName: "Diaz", Email: "ana@example.com", Password: "hash", OTPCode: &code, OTPExpiresAt: &exp}
		require.NoError(t, users.Create(ctx, u))
		assert.NotEmpty(t, u.ID)

		err := users.Create(ctx, &entity.User{FirstName: "X", LastName: "Y", Email: "ana@example.com", Password: "h"})
		assert.ErrorIs(t, err, repository.ErrDuplicateEmail)

		got, err := users.GetByEmail(ctx, "ana@example.com")
		require.NoError(t, err)
		assert.False(t, got.Verified())

		require.NoError(t, users.ClearOTP(ctx, u.ID))
		got, err = users.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.True(t, got.Verified())

		_, err = users.GetByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, repository.ErrNotFound)

		require.NoError(t, users.Delete(ctx, u.ID))
		_, err = users.GetByID(ctx, u.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("task_completion_is_guarded", func(t *testing.T) {
		u := newUser(t, users, "tasks@example.com")
		task := &entity.Task{OwnerID: u.ID, Name: "Report", DueDate: time.Now().Add(time.Hour), Priority: entity.PriorityHigh}
		require.NoError(t, tasks.Create(ctx, task))
		assert.False(t, task.Completed)
		assert.Zero(t, task.Points)

		c := entity.Completion{ProofRef: "/uploads/a.png", Notes: "done", Points: 30, CompletedAt: time.Now().UTC()}
		done, err := tasks.MarkCompleted(ctx, task.ID, c)
		require.NoError(t, err)
		assert.True(t, done.Completed)
		assert.Equal(t, int64(30), done.Points)

		_, err = tasks.MarkCompleted(ctx, task.ID, c)
		assert.ErrorIs(t, err, repository.ErrAlreadyCompleted)

		sum, err := tasks.SumCompletedPoints(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(30), sum)

		list, err := tasks.ListByOwner(ctx, u.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		err = tasks.Create(ctx, &entity.Task{OwnerID: "00000000-0000-0000-0000-000000000000", Name: "x", DueDate: time.Now(), Priority: entity.PriorityLow})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("apply_redemption_cas", func(t *testing.T) {
		u := newUser(t, users, "cas@example.com")
		red, err := users.ApplyRedemption(ctx, u.ID, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(10), red.SpentAfter)

		_, err = users.ApplyRedemption(ctx, u.ID, 0, 10)
		assert.ErrorIs(t, err, repository.ErrStaleSpent)

		list, err := users.ListRedemptions(ctx, u.ID, 10)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, int64(10), list[0].Amount)
	})

	t.Run("concurrent_redeem_never_overdraws", func(t *testing.T) {
		u := newUser(t, users, "race@example.com")
		for i := 0; i < 3; i++ {
			task := &entity.Task{OwnerID: u.ID, Name: fmt.Sprintf("t%d", i), DueDate: time.Now(), Priority: entity.PriorityMedium}
			require.NoError(t, tasks.Create(ctx, task))
			_, err := tasks.MarkCompleted(ctx, task.ID, entity.Completion{ProofRef: "p", Notes: "n", Points: 20, CompletedAt: time.Now()})
			require.NoError(t, err)
		}

		ledger := application.NewLedgerService(users, tasks, helpers.NewNopLogger(), 50)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = ledger.Redeem(ctx, u.ID, 10)
			}()
		}
		wg.Wait()

		bal, err := ledger.GetBalance(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(60), bal.Earned)
		assert.Equal(t, int64(60), bal.Spent)
		assert.Zero(t, bal.Available)
	})
}
