package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/catalog"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// LedgerService records and reverses stock movements.
type LedgerService interface {
	Receive(ctx context.Context, productID id.ID, qty int64, note string, actorID id.ID) (*ledger.Entry, error)
	Issue(ctx context.Context, productID id.ID, qty int64, note string, actorID id.ID) (*ledger.Entry, error)
	Adjust(ctx context.Context, productID id.ID, physicalCount int64, note string, actorID id.ID) (*ledger.Entry, error)
	CheckIssue(ctx context.Context, productID id.ID, qty int64) error
	DeleteEntry(ctx context.Context, entryID, actorID id.ID) error
	History(ctx context.Context, f ledger.Filter) (domain.ListResult[ledger.EntryView], error)
	Recent(ctx context.Context, limit int) ([]ledger.EntryView, error)
}

// ProductLookup supplies the box size used to convert box counts.
type ProductLookup interface {
	GetByID(ctx context.Context, productID id.ID) (*catalog.Product, error)
}

// LedgerHandler serves stock movements.
type LedgerHandler struct {
	*BaseHandler
	service  LedgerService
	products ProductLookup
}

func NewLedgerHandler(base *BaseHandler, service LedgerService, products ProductLookup) *LedgerHandler {
	return &LedgerHandler{BaseHandler: base, service: service, products: products}
}

type movementFunc func(ctx context.Context, productID id.ID, qty int64, note string, actorID id.ID) (*ledger.Entry, error)

// Receive handles POST /ledger/receipts.
func (h *LedgerHandler) Receive(c *gin.Context) {
	h.movement(c, h.service.Receive)
}

// Issue handles POST /ledger/issues.
func (h *LedgerHandler) Issue(c *gin.Context) {
	h.movement(c, h.service.Issue)
}

func (h *LedgerHandler) movement(c *gin.Context, apply movementFunc) {
	var req dto.MovementRequest
	if !h.BindJSON(c, &req) {
		return
	}
	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}
	productID, qty, err := h.resolve(c.Request.Context(), req.ProductID, "quantity", req.Quantity, req.Units)
	if err != nil {
		h.Error(c, err)
		return
	}

	entry, err := apply(c.Request.Context(), productID, qty, req.Note, actorID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromEntry(entry))
}

// Adjust handles POST /ledger/adjustments.
func (h *LedgerHandler) Adjust(c *gin.Context) {
	var req dto.AdjustmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}
	productID, physical, err := h.resolve(c.Request.Context(), req.ProductID, "physical_count", req.PhysicalCount, req.Units)
	if err != nil {
		h.Error(c, err)
		return
	}

	entry, err := h.service.Adjust(c.Request.Context(), productID, physical, req.Note, actorID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromEntry(entry))
}

// resolve parses the product ID and converts the amount to pieces. The
// product is only loaded when the box form needs its box size.
func (h *LedgerHandler) resolve(ctx context.Context, rawID, field string, pieces *int64, units dto.Units) (id.ID, int64, error) {
	productID, err := id.Parse(rawID)
	if err != nil {
		return id.ID{}, 0, apperror.NewValidation("invalid id format").WithDetail("field", "product_id")
	}

	perBox := int64(1)
	if pieces == nil && units.HasBoxes() {
		p, err := h.products.GetByID(ctx, productID)
		if err != nil {
			return id.ID{}, 0, err
		}
		perBox = p.PiecesPerBox
	}

	qty, err := units.Total(field, pieces, perBox)
	if err != nil {
		return id.ID{}, 0, err
	}
	return productID, qty, nil
}

// CheckIssue handles GET /ledger/issues/check?product_id=&quantity=.
func (h *LedgerHandler) CheckIssue(c *gin.Context) {
	var q dto.CheckIssueQuery
	if !h.BindQuery(c, &q) {
		return
	}
	productID, err := id.Parse(q.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format").WithDetail("field", "product_id"))
		return
	}
	if err := h.service.CheckIssue(c.Request.Context(), productID, q.Quantity); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.CheckIssueResponse{ProductID: productID, Quantity: q.Quantity, Available: true})
}

// DeleteEntry handles DELETE /ledger/entries/:id.
func (h *LedgerHandler) DeleteEntry(c *gin.Context) {
	entryID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteEntry(c.Request.Context(), entryID, actorID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// History handles GET /ledger/entries.
func (h *LedgerHandler) History(c *gin.Context) {
	var q dto.HistoryQuery
	if !h.BindQuery(c, &q) {
		return
	}
	f, err := h.historyFilter(q)
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.History(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse[dto.EntryResponse]{
		Items:      dto.FromEntryViews(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

func (h *LedgerHandler) historyFilter(q dto.HistoryQuery) (ledger.Filter, error) {
	f := ledger.Filter{Limit: q.Limit, Offset: q.Offset}

	if q.ProductID != "" {
		v, err := id.Parse(q.ProductID)
		if err != nil {
			return f, apperror.NewValidation("invalid id format").WithDetail("field", "product_id")
		}
		f.ProductID = &v
	}
	if q.ActorID != "" {
		v, err := id.Parse(q.ActorID)
		if err != nil {
			return f, apperror.NewValidation("invalid id format").WithDetail("field", "actor_id")
		}
		f.ActorID = &v
	}
	if q.Kind != "" {
		k, err := ledger.ParseKind(q.Kind)
		if err != nil {
			return f, err
		}
		f.Kind = &k
	}

	from, err := h.parseOptionalDate("from", q.From)
	if err != nil {
		return f, err
	}
	f.From = from

	to, err := h.parseOptionalDate("to", q.To)
	if err != nil {
		return f, err
	}
	if to != nil {
		// The query date is inclusive.
		end := to.AddDate(0, 0, 1)
		f.To = &end
	}
	return f, nil
}

// Recent handles GET /ledger/entries/recent?limit=.
func (h *LedgerHandler) Recent(c *gin.Context) {
	limit, ok := h.ParseIntQuery(c, "limit", 10)
	if !ok {
		return
	}
	items, err := h.service.Recent(c.Request.Context(), limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewItems(dto.FromEntryViews(items)))
}
