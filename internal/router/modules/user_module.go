package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/doitnow-api/internal/interface/http"
	"github.com/oksasatya/doitnow-api/internal/interface/middleware"
	"github.com/oksasatya/doitnow-api/pkg/helpers"
)

// UserModule registers the caller's account and points endpoints.
// Protected: POST /users/logout, GET /users/profile, GET /users/balance,
// POST /users/redeem, GET /users/redemptions
type UserModule struct {
	Auth   *handlers.AuthHandler
	Users  *handlers.UserHandler
	RDB    *redis.Client
	JWT    *helpers.JWTManager
	Limits *Limiter
}

func NewUserModule(auth *handlers.AuthHandler, users *handlers.UserHandler, rdb *redis.Client, jwt *helpers.JWTManager, limits *Limiter) *UserModule {
	return &UserModule{Auth: auth, Users: users, RDB: rdb, JWT: jwt, Limits: limits}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/users")
	auth.Use(middleware.Auth(m.RDB, m.JWT))
	{
		auth.POST("/logout", m.Auth.Logout)
		auth.GET("/profile", m.Users.GetProfile)
		auth.GET("/balance", m.Users.Balance)
		auth.POST("/redeem", m.Limits.PerUser(30, time.Minute), m.Users.Redeem)
		auth.GET("/redemptions", m.Users.Redemptions)
	}
}
