package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/id"
)

// HeaderActorID names the user a request acts for.
const HeaderActorID = "X-Actor-ID"

// ActorResolver loads the actor behind a user ID.
type ActorResolver interface {
	Resolve(ctx context.Context, userID id.ID) (*appctx.Actor, error)
}

// Actor resolves X-Actor-ID to an active user and stores it in the
// request context. Requests without a valid actor are UNAUTHORIZED.
func Actor(resolver ActorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(HeaderActorID)
		if raw == "" {
			_ = c.Error(apperror.NewUnauthorized("actor is required").WithDetail("header", HeaderActorID))
			c.Abort()
			return
		}

		userID, err := id.Parse(raw)
		if err != nil {
			_ = c.Error(apperror.NewUnauthorized("actor id is malformed").WithDetail("header", HeaderActorID))
			c.Abort()
			return
		}

		actor, err := resolver.Resolve(c.Request.Context(), userID)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(appctx.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}
