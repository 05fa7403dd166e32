package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/doitnow-api/internal/application"
	"github.com/oksasatya/doitnow-api/pkg/response"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{application.ErrInvalidInput, http.StatusBadRequest},
	{application.ErrInvalidCredentials, http.StatusUnauthorized},
	{application.ErrUnauthorized, http.StatusUnauthorized},
	{application.ErrEmailNotVerified, http.StatusForbidden},
	{application.ErrNotFound, http.StatusNotFound},
	{application.ErrEmailTaken, http.StatusConflict},
	{application.ErrAlreadyCompleted, http.StatusConflict},
	{application.ErrConflict, http.StatusConflict},
	{application.ErrInsufficientBalance, http.StatusUnprocessableEntity},
}

// StatusFor maps a service error to an HTTP status. Unknown errors are 500.
func StatusFor(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// writeError answers with the mapped status. Internal errors get a generic
// message and are logged with the request id.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		if logger != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"request_id": c.GetString("request_id"),
				"user_id":    c.GetString("userID"),
				"path":       c.FullPath(),
			}).Error("request failed")
		}
		response.Error[any](c, status, "internal server error", nil)
		return
	}
	response.Error[any](c, status, err.Error(), nil)
}
