package middleware

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/core/security"
)

// RequireAction aborts unless the request actor may perform action.
func RequireAction(policy *security.Policy, action security.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := policy.Require(c.Request.Context(), action); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}
