package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/doitnow-api/internal/interface/http"
)

// AuthModule registers the public account endpoints under /users.
type AuthModule struct {
	Handler *handlers.AuthHandler
	Limits  *Limiter
}

func NewAuthModule(h *handlers.AuthHandler, limits *Limiter) *AuthModule {
	return &AuthModule{Handler: h, Limits: limits}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.POST("/register", m.Limits.PerIP(10, time.Minute), m.Handler.Register)
	users.POST("/verify-otp", m.Limits.PerIP(30, time.Minute), m.Handler.VerifyOTP)
	users.POST("/resend-otp", m.Limits.PerIP(5, time.Minute), m.Handler.ResendOTP)
	users.POST("/login", m.Limits.PerIP(10, time.Minute), m.Handler.Login)
	users.POST("/refresh", m.Limits.PerIP(60, time.Minute), m.Handler.Refresh)
}
