package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/doitnow-api/internal/interface/http"
	"github.com/oksasatya/doitnow-api/internal/interface/middleware"
	"github.com/oksasatya/doitnow-api/pkg/helpers"
)

// TaskModule registers /tasks. Every route requires a valid session.
type TaskModule struct {
	Tasks  *handlers.TaskHandler
	Users  *handlers.UserHandler
	RDB    *redis.Client
	JWT    *helpers.JWTManager
	Limits *Limiter
}

func NewTaskModule(tasks *handlers.TaskHandler, users *handlers.UserHandler, rdb *redis.Client, jwt *helpers.JWTManager, limits *Limiter) *TaskModule {
	return &TaskModule{Tasks: tasks, Users: users, RDB: rdb, JWT: jwt, Limits: limits}
}

func (m *TaskModule) Register(rg *gin.RouterGroup) {
	tasks := rg.Group("/tasks")
	tasks.Use(middleware.Auth(m.RDB, m.JWT))
	tasks.Use(m.Limits.PerUser(120, time.Minute))
	{
		tasks.GET("", m.Tasks.List)
		tasks.POST("", m.Tasks.Create)
		tasks.GET("/points/total", m.Users.Balance)
		tasks.GET("/search", m.Tasks.Search)
		tasks.PUT("/:id/complete", m.Tasks.Complete)
	}
}
