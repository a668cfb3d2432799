package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/opname"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// OpnameService reconciles physical counts against recorded stock.
type OpnameService interface {
	Reconcile(ctx context.Context, scope opname.Scope, physical int64, date time.Time, actorID id.ID, note string) (*opname.Record, error)
	Preview(ctx context.Context, scope opname.Scope, physical int64) (*opname.Preview, error)
	Get(ctx context.Context, scope opname.Scope, date time.Time) (*opname.Record, error)
	List(ctx context.Context, f opname.ListFilter) ([]opname.Record, error)
	Delete(ctx context.Context, recordID, actorID id.ID) error
}

// OpnameHandler serves stock counts.
type OpnameHandler struct {
	*BaseHandler
	service OpnameService
}

func NewOpnameHandler(base *BaseHandler, service OpnameService) *OpnameHandler {
	return &OpnameHandler{BaseHandler: base, service: service}
}

// Save handles POST /opname/records. Saving the same scope and date again
// replaces the earlier count.
func (h *OpnameHandler) Save(c *gin.Context) {
	var req dto.SaveCountRequest
	if !h.BindJSON(c, &req) {
		return
	}
	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}
	scope, err := opname.ParseScope(req.Scope)
	if err != nil {
		h.Error(c, err)
		return
	}
	date, err := h.ParseDate("date", req.Date)
	if err != nil {
		h.Error(c, err)
		return
	}

	rec, err := h.service.Reconcile(c.Request.Context(), scope, *req.PhysicalStock, date, actorID, req.Note)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromRecord(rec))
}

// Preview handles GET /opname/preview?scope=&physical=.
func (h *OpnameHandler) Preview(c *gin.Context) {
	var q dto.PreviewQuery
	if !h.BindQuery(c, &q) {
		return
	}
	scope, err := opname.ParseScope(q.Scope)
	if err != nil {
		h.Error(c, err)
		return
	}
	p, err := h.service.Preview(c.Request.Context(), scope, *q.Physical)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Get handles GET /opname/records/:scope/:date.
func (h *OpnameHandler) Get(c *gin.Context) {
	scope, err := opname.ParseScope(c.Param("scope"))
	if err != nil {
		h.Error(c, err)
		return
	}
	date, err := h.ParseDate("date", c.Param("date"))
	if err != nil {
		h.Error(c, err)
		return
	}
	rec, err := h.service.Get(c.Request.Context(), scope, date)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromRecord(rec))
}

// List handles GET /opname/records?scope=&from=&to=&limit=.
func (h *OpnameHandler) List(c *gin.Context) {
	var q dto.RecordListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	f := opname.ListFilter{Limit: q.Limit}
	if q.Scope != "" {
		scope, err := opname.ParseScope(q.Scope)
		if err != nil {
			h.Error(c, err)
			return
		}
		key := scope.Key()
		f.ScopeKey = &key
	}
	var err error
	if f.From, err = h.parseOptionalDate("from", q.From); err != nil {
		h.Error(c, err)
		return
	}
	if f.To, err = h.parseOptionalDate("to", q.To); err != nil {
		h.Error(c, err)
		return
	}

	items, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewItems(dto.FromRecords(items)))
}

// Delete handles DELETE /opname/records/:id. Stock is unaffected.
func (h *OpnameHandler) Delete(c *gin.Context) {
	recordID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), recordID, actorID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
