package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/doitnow-api/internal/application"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("bad amount: %w", application.ErrInvalidInput), http.StatusBadRequest},
		{application.ErrInvalidCredentials, http.StatusUnauthorized},
		{application.ErrEmailNotVerified, http.StatusForbidden},
		{fmt.Errorf("task x: %w", application.ErrNotFound), http.StatusNotFound},
		{application.ErrAlreadyCompleted, http.StatusConflict},
		{application.ErrConflict, http.StatusConflict},
		{application.ErrInsufficientBalance, http.StatusUnprocessableEntity},
		{application.ErrInternal, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, StatusFor(c.err), c.err.Error())
	}
}

func TestParseDueDate(t *testing.T) {
	d, err := parseDueDate("2026-03-01")
	assert.NoError(t, err)
	assert.Equal(t, 2026, d.Year())

	d, err = parseDueDate("2026-03-01T10:00:00-05:00")
	assert.NoError(t, err)
	assert.Equal(t, 15, d.Hour())

	_, err = parseDueDate("next week")
	assert.Error(t, err)
}
