package middleware

import (
	"log"

	"main/utils"

	"github.com/gin-gonic/gin"
)

// RecoveryMiddleware turns panics into a clean 500 envelope. Internal detail
// stays in the log, never in the response.
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("panic recovered: %v", err)
				utils.TrackError("http", "panic")
				utils.InternalError(c, "internal server error")
				c.Abort()
			}
		}()
		c.Next()
	}
}
