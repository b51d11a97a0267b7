package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	userdomain "github.com/clubhive/clubhive/internal/user/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const requesterKey = "requester"

// RequestLogger logs one structured line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if lastErr := c.Errors.Last(); lastErr != nil {
			fields = append(fields, zap.Error(lastErr.Err))
		}
		log.Info("request", fields...)
	}
}

// IdentityMiddleware trusts the upstream gateway's X-User-ID and X-User-Role
// headers. Authentication itself lives in front of this service.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawID := strings.TrimSpace(c.GetHeader("X-User-ID"))
		if rawID == "" {
			c.Next()
			return
		}
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			c.Next()
			return
		}
		role := userdomain.Role(strings.ToUpper(strings.TrimSpace(c.GetHeader("X-User-Role"))))
		if role == "" {
			role = userdomain.RoleUser
		}
		c.Set(requesterKey, userdomain.Requester{
			ID:   snowflake.ID(id),
			Role: role,
		})
		c.Next()
	}
}

func requesterFrom(c *gin.Context) (userdomain.Requester, bool) {
	value, ok := c.Get(requesterKey)
	if !ok {
		return userdomain.Requester{}, false
	}
	requester, ok := value.(userdomain.Requester)
	return requester, ok
}

func requireRequester(c *gin.Context) (userdomain.Requester, bool) {
	requester, ok := requesterFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return userdomain.Requester{}, false
	}
	return requester, true
}
