package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/doitnow-api/internal/domain/entity"
)

var demo = DemoUser{FirstName: "Demo", LastName: "User", Email: "demo@doitnow.test", Hash: "hash"}

func TestSeedInsertsTasksForNewUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("Demo", "User", "demo@doitnow.test", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u-1"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM tasks`)).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO tasks`)).
		WithArgs("u-1", "Ship release", now.Add(time.Hour), true, int64(30), "high", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO tasks`)).
		WithArgs("u-1", "Water plants", now.Add(2*time.Hour), false, int64(0), "low", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := Seed(context.Background(), db, demo, []DemoTask{
		{Name: "Ship release", Priority: entity.PriorityHigh, DueIn: time.Hour, Completed: true},
		{Name: "Water plants", Priority: entity.PriorityLow, DueIn: 2 * time.Hour},
	}, now)
	require.NoError(t, err)
	assert.Equal(t, "u-1", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedSkipsTasksWhenPresent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u-1"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM tasks`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	id, err := Seed(context.Background(), db, demo, []DemoTask{{Name: "x"}}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "u-1", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedRollsBackOnTaskError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u-1"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM tasks`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO tasks`)).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	_, err = Seed(context.Background(), db, demo, []DemoTask{{Name: "x", Priority: entity.PriorityMedium}}, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `seed task "x"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedUserError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).WillReturnError(errors.New("down"))
	_, err = Seed(context.Background(), db, demo, nil, time.Now())
	assert.ErrorContains(t, err, "seed user")
}
