package middleware

import (
	"net"

	"github.com/gin-gonic/gin"
)

// AllowPrivateIP bypasses the limiter for loopback and private addresses.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		parsed := net.ParseIP(ipFromCtx(c))
		if parsed == nil {
			return false
		}
		return parsed.IsLoopback() || parsed.IsPrivate()
	}
}

// AllowInDevelopment bypasses private addresses only when env is development.
func AllowInDevelopment(env string) AllowFunc {
	if env != "development" {
		return nil
	}
	return AllowPrivateIP()
}
