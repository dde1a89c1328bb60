package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/khadimfall/magal-events/internal/database"
	"github.com/khadimfall/magal-events/pkg/response"
)

// Health returns a status payload useful for readiness checks. The database
// connection is pinged so load balancers see storage outages.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := database.Healthy(db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"status":  "degraded",
			})
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	}
}
