// Package handlers provides HTTP request handlers.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/id"
	"stockledger/internal/core/security"
	"stockledger/internal/infrastructure/http/v1/middleware"
)

// DateLayout is the calendar-date format accepted in requests.
const DateLayout = "2006-01-02"

// BaseHandler provides common handler utilities.
type BaseHandler struct {
	policy *security.Policy
	loc    *time.Location
	now    func() time.Time
}

// NewBaseHandler creates a base handler. Calendar dates in requests are
// interpreted in loc.
func NewBaseHandler(policy *security.Policy, loc *time.Location) *BaseHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &BaseHandler{policy: policy, loc: loc, now: time.Now}
}

// BindJSON binds and validates the JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers err on the context and aborts the request.
// middleware.ErrorHandler renders the response.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseID parses a UUID path parameter.
func (h *BaseHandler) ParseID(c *gin.Context, param string) (id.ID, bool) {
	parsed, err := id.Parse(c.Param(param))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format").WithDetail("field", param))
		return id.ID{}, false
	}
	return parsed, true
}

// ParseIntQuery parses an integer query parameter. An absent parameter
// yields defaultVal; a malformed one aborts with a validation error.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) (int, bool) {
	val := c.Query(key)
	if val == "" {
		return defaultVal, true
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		h.Error(c, apperror.NewValidation(key+" must be an integer").
			WithDetail("field", key).
			WithDetail("value", val))
		return 0, false
	}
	return parsed, true
}

// ParseDate parses a YYYY-MM-DD value in the configured location. An empty
// value yields today.
func (h *BaseHandler) ParseDate(field, value string) (time.Time, error) {
	if value == "" {
		return h.Today(), nil
	}
	t, err := time.ParseInLocation(DateLayout, value, h.loc)
	if err != nil {
		return time.Time{}, apperror.NewValidation("date must be YYYY-MM-DD").
			WithDetail("field", field).
			WithDetail("value", value)
	}
	return t, nil
}

// parseOptionalDate is ParseDate that keeps an empty value absent.
func (h *BaseHandler) parseOptionalDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := h.ParseDate(field, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Today is midnight of the current day in the configured location.
func (h *BaseHandler) Today() time.Time {
	y, m, d := h.now().In(h.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, h.loc)
}

// ActorID returns the resolved actor's user ID.
func (h *BaseHandler) ActorID(c *gin.Context) (id.ID, bool) {
	actor := appctx.GetActor(c.Request.Context())
	if actor == nil {
		h.Error(c, apperror.NewUnauthorized("actor is required"))
		return id.ID{}, false
	}
	actorID, err := id.Parse(actor.UserID)
	if err != nil {
		h.Error(c, apperror.NewUnauthorized("actor id is malformed"))
		return id.ID{}, false
	}
	return actorID, true
}

// Can reports whether the request's actor may perform action.
func (h *BaseHandler) Can(c *gin.Context, action security.Action) bool {
	return h.policy != nil && h.policy.Can(c.Request.Context(), action)
}

// respond writes a JSON response and stores it for idempotent replay.
func (h *BaseHandler) respond(c *gin.Context, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	middleware.CompleteIdempotency(c, status, "application/json", body)
	c.Data(status, "application/json; charset=utf-8", body)
}

// OK sends a 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	h.respond(c, http.StatusOK, data)
}

// Created sends a 201 response with data.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	h.respond(c, http.StatusCreated, data)
}

// NoContent sends 204.
func (h *BaseHandler) NoContent(c *gin.Context) {
	// 204 must replay as 204 with empty body.
	middleware.CompleteIdempotency(c, http.StatusNoContent, "", nil)
	c.Status(http.StatusNoContent)
}
