package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/khadimfall/magal-events/internal/models"
	"github.com/khadimfall/magal-events/pkg/errors"
	"github.com/khadimfall/magal-events/pkg/metrics"
	"github.com/khadimfall/magal-events/pkg/response"
)

// RequireAdmin restricts a route to users whose token carries the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(CtxRoleKey)
		if !ok {
			metrics.AdminGate.WithLabelValues("denied").Inc()
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		role, _ := v.(string)
		if role != models.RoleAdmin {
			metrics.AdminGate.WithLabelValues("denied").Inc()
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}
		metrics.AdminGate.WithLabelValues("allowed").Inc()
		c.Next()
	}
}
