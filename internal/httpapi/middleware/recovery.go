package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JongGun06/dialx-back/internal/common"
)

// Recovery turns panics into the standard envelope instead of gin's
// default plain-text response.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("panic recovered: %v", r)
				common.Fail(c, http.StatusInternalServerError, 50000, "internal error")
				c.Abort()
			}
		}()
		c.Next()
	}
}
