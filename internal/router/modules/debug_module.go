package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"
)

// DebugModule exposes expvar counters (tasks completed, points redeemed, CAS conflicts).
type DebugModule struct {
	Limits *Limiter
}

func NewDebugModule(limits *Limiter) *DebugModule { return &DebugModule{Limits: limits} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	rg.GET("/debug/vars", m.Limits.PerIP(120, time.Minute), gin.WrapH(expvar.Handler()))
}
