package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/doitnow-api/internal/domain/entity"
	"github.com/oksasatya/doitnow-api/internal/infrastructure/memory"
	"github.com/oksasatya/doitnow-api/pkg/helpers"
)

type fixture struct {
	store *memory.Store
	users *memory.UserRepository
	tasks *memory.TaskRepository
}

func newFixture() *fixture {
	s := memory.NewStore()
	return &fixture{store: s, users: s.Users(), tasks: s.Tasks()}
}

func (f *fixture) user(t *testing.T, email string) *entity.User {
	t.Helper()
	u := &entity.User{FirstName: "Ana", LastName: "Diaz", Email: email, Password: "x"}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) task(t *testing.T, ownerID string, p entity.Priority) *entity.Task {
	t.Helper()
	tk := &entity.Task{OwnerID: ownerID, Name: "task", DueDate: time.Now().Add(time.Hour), Priority: p}
	require.NoError(t, f.tasks.Create(context.Background(), tk))
	return tk
}

// earn completes tasks whose points add up to the given tier list.
func (f *fixture) earn(t *testing.T, ownerID string, tiers ...entity.Priority) {
	t.Helper()
	for _, p := range tiers {
		tk := f.task(t, ownerID, p)
		_, err := f.tasks.MarkCompleted(context.Background(), tk.ID, entity.Completion{
			ProofRef: "ref", Notes: "done", Points: entity.PointsFor(p), CompletedAt: time.Now(),
		})
		require.NoError(t, err)
	}
}

var nopLogger = helpers.NewNopLogger()

func init() {
	helpers.PasswordCost = bcrypt.MinCost
}
