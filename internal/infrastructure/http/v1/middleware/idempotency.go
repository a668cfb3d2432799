package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/pkg/logger"
)

const (
	HeaderIdempotencyKey = "X-Idempotency-Key"

	keyIdempotencyKey   = "idempotency_key"
	keyIdempotencyStore = "idempotency_store"

	maxIdempotencyBodyBytes = 1 << 20
)

// IdempotencyStore persists idempotency keys and their responses.
type IdempotencyStore interface {
	AcquireKey(ctx context.Context, key, actorID, operation, requestHash string) (*postgres.IdempotencyReplay, error)
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error
	FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
	ReleaseKey(ctx context.Context, key string) error
}

// Idempotency replays the stored response for a repeated X-Idempotency-Key
// on mutating requests. Requests without the header pass through.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > 100 {
			_ = c.Error(apperror.NewValidation("idempotency key is too long").WithDetail("max_length", 100))
			c.Abort()
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1))
		if err != nil {
			_ = c.Error(apperror.NewValidation("cannot read request body"))
			c.Abort()
			return
		}
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		sum := sha256.Sum256(body)
		actorID := ""
		if actor := appctx.GetActor(c.Request.Context()); actor != nil {
			actorID = actor.UserID
		}
		operation := c.Request.Method + " " + c.FullPath() + " " + c.Request.URL.Path

		replay, err := store.AcquireKey(c.Request.Context(), key, actorID, operation, hex.EncodeToString(sum[:]))
		if err != nil {
			if _, ok := apperror.AsAppError(err); !ok {
				err = apperror.NewInternal(err).WithDetail("component", "idempotency")
			}
			_ = c.Error(err)
			c.Abort()
			return
		}
		if replay != nil {
			c.Header("Idempotent-Replay", "true")
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		c.Set(keyIdempotencyKey, key)
		c.Set(keyIdempotencyStore, store)
		c.Next()
	}
}

// CompleteIdempotency stores a successful response under the request's key.
func CompleteIdempotency(c *gin.Context, statusCode int, contentType string, body []byte) {
	key, store, ok := idempotencyOf(c)
	if !ok {
		return
	}
	if err := store.CompleteKey(c.Request.Context(), key, statusCode, contentType, body); err != nil {
		logger.Warn(c.Request.Context(), "complete idempotency key", "key", key, "error", err)
	}
}

// failIdempotency stores a client error for replay. Server errors and
// lost races release the key so the same request can be retried.
func failIdempotency(c *gin.Context, statusCode int, code string, body any) {
	key, store, ok := idempotencyOf(c)
	if !ok {
		return
	}
	if statusCode >= http.StatusInternalServerError || code == apperror.CodeConcurrentModification {
		if err := store.ReleaseKey(c.Request.Context(), key); err != nil {
			logger.Warn(c.Request.Context(), "release idempotency key", "key", key, "error", err)
		}
		return
	}
	if err := store.FailKey(c.Request.Context(), key, statusCode, "application/json", body); err != nil {
		logger.Warn(c.Request.Context(), "fail idempotency key", "key", key, "error", err)
	}
}

func idempotencyOf(c *gin.Context) (string, IdempotencyStore, bool) {
	key := c.GetString(keyIdempotencyKey)
	if key == "" {
		return "", nil, false
	}
	v, ok := c.Get(keyIdempotencyStore)
	if !ok {
		return "", nil, false
	}
	store, ok := v.(IdempotencyStore)
	return key, store, ok
}
