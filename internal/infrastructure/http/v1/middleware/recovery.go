// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	"stockledger/pkg/logger"
)

// Recovery turns panics into INTERNAL_ERROR responses.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"error", err,
					"stack", string(debug.Stack()),
				)

				// Recovery sits outside ErrorHandler, so it renders the response itself.
				_ = c.Error(apperror.NewInternal(fmt.Errorf("panic: %v", err)))
				failIdempotency(c, http.StatusInternalServerError, apperror.CodeInternal, nil)
				if !c.Writer.Written() {
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"code":    apperror.CodeInternal,
						"message": "Internal server error",
						"details": gin.H{"request_id": c.GetString(KeyRequestID)},
					})
					return
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
