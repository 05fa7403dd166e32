package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/doitnow-api/internal/application"
	"github.com/oksasatya/doitnow-api/internal/domain/entity"
	"github.com/oksasatya/doitnow-api/internal/interface/middleware"
	"github.com/oksasatya/doitnow-api/pkg/response"
	"github.com/oksasatya/doitnow-api/pkg/validation"
)

// UserHandler serves the caller's profile and points.
type UserHandler struct {
	Auth   *application.AuthService
	Ledger *application.LedgerService
	Logger *logrus.Logger
}

func NewUserHandler(auth *application.AuthService, ledger *application.LedgerService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Auth: auth, Ledger: ledger, Logger: logger}
}

type redeemRequest struct {
	Amount *float64 `json:"amount" binding:"required"`
}

type balanceView struct {
	Earned    int64 `json:"earned"`
	Spent     int64 `json:"spent"`
	Available int64 `json:"available"`
}

func toBalanceView(b entity.Balance) balanceView {
	return balanceView{Earned: b.Earned, Spent: b.Spent, Available: b.Available}
}

type redemptionView struct {
	ID         string    `json:"id"`
	Amount     int64     `json:"amount"`
	SpentAfter int64     `json:"spent_after"`
	CreatedAt  time.Time `json:"created_at"`
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	u, err := h.Auth.GetProfile(c.Request.Context(), uid)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	bal, err := h.Ledger.GetBalance(c.Request.Context(), uid)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"id":               u.ID,
		"first_name":       u.FirstName,
		"last_name":        u.LastName,
		"second_last_name": u.SecondLastName,
		"email":            u.Email,
		"points_spent":     u.PointsSpent,
		"total_earned":     bal.Earned,
		"created_at":       u.CreatedAt,
	}, "profile fetched", nil)
}

func (h *UserHandler) Balance(c *gin.Context) {
	bal, err := h.Ledger.GetBalance(c.Request.Context(), c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toBalanceView(bal), "balance fetched", nil)
}

func (h *UserHandler) Redeem(c *gin.Context) {
	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	bal, err := h.Ledger.Redeem(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), *req.Amount)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toBalanceView(bal), "points redeemed", nil)
}

func (h *UserHandler) Redemptions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	list, err := h.Ledger.ListRedemptions(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), limit)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	out := make([]redemptionView, 0, len(list))
	for _, r := range list {
		out = append(out, redemptionView{ID: r.ID, Amount: r.Amount, SpentAfter: r.SpentAfter, CreatedAt: r.CreatedAt})
	}
	response.Success(c, http.StatusOK, out, "redemptions fetched", gin.H{"count": len(out)})
}
