package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JongGun06/dialx-back/internal/auth"
	"github.com/JongGun06/dialx-back/internal/common"
)

const UserIDKey = "user_id"

// AuthRequired resolves the bearer token to a user id or aborts with
// 401. Token extraction order matches the gateway's.
func AuthRequired(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.ExtractToken(c.Request)
		if token == "" {
			common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
			c.Abort()
			return
		}
		userID, err := verifier.Verify(token)
		if err != nil {
			common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
			c.Abort()
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}
