package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/id"
	"stockledger/internal/core/security"
	"stockledger/internal/core/types"
	"stockledger/internal/domain"
	"stockledger/internal/domain/catalog"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/opname"
	"stockledger/internal/domain/reports"
	"stockledger/internal/infrastructure/http/v1/middleware"
	"stockledger/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	adminID = id.New()
	staffID = id.New()
)

type actors struct{}

func (actors) Resolve(_ context.Context, userID id.ID) (*appctx.Actor, error) {
	switch userID {
	case adminID:
		return &appctx.Actor{UserID: adminID.String(), Username: "admin", Role: security.RoleAdmin}, nil
	case staffID:
		return &appctx.Actor{UserID: staffID.String(), Username: "staff", Role: security.RoleStaff}, nil
	}
	return nil, apperror.NewUnauthorized("unknown user")
}

type fakeCatalog struct {
	product *catalog.Product
}

func (f *fakeCatalog) GetByID(_ context.Context, productID id.ID) (*catalog.Product, error) {
	if f.product == nil || f.product.ID != productID {
		return nil, apperror.NewNotFound("product", productID)
	}
	cp := *f.product
	return &cp, nil
}

func (f *fakeCatalog) Search(context.Context, string, int) ([]catalog.Product, error) {
	return []catalog.Product{*f.product}, nil
}

func (f *fakeCatalog) ListActive(context.Context, int) ([]catalog.Product, error) {
	return []catalog.Product{*f.product}, nil
}

func (f *fakeCatalog) ListLowStock(context.Context) ([]catalog.Product, error) { return nil, nil }

func (f *fakeCatalog) Create(_ context.Context, p *catalog.Product, _ string) error {
	f.product = p
	return nil
}

func (f *fakeCatalog) Update(_ context.Context, productID id.ID, patch catalog.ProductPatch, _ string) (*catalog.Product, error) {
	p, err := f.GetByID(context.Background(), productID)
	if err != nil {
		return nil, err
	}
	patch.Apply(p)
	return p, nil
}

func (f *fakeCatalog) SoftDelete(context.Context, id.ID, string) error { return nil }

func (f *fakeCatalog) ListBrands(context.Context) ([]catalog.Brand, error) { return nil, nil }

type fakeLedger struct {
	lastQty    int64
	lastFilter ledger.Filter
	lastLimit  int
	deleted    []id.ID
}

func (f *fakeLedger) entry(kind ledger.Kind, productID id.ID, qty int64, actorID id.ID) *ledger.Entry {
	f.lastQty = qty
	return &ledger.Entry{ID: id.New(), ProductID: productID, ActorID: actorID, Kind: kind, Quantity: qty, StockAfter: qty}
}

func (f *fakeLedger) Receive(_ context.Context, productID id.ID, qty int64, _ string, actorID id.ID) (*ledger.Entry, error) {
	return f.entry(ledger.KindReceipt, productID, qty, actorID), nil
}

func (f *fakeLedger) Issue(_ context.Context, productID id.ID, qty int64, _ string, _ id.ID) (*ledger.Entry, error) {
	return nil, apperror.NewInsufficientStock(productID.String(), qty, 0)
}

func (f *fakeLedger) Adjust(_ context.Context, productID id.ID, physical int64, _ string, actorID id.ID) (*ledger.Entry, error) {
	return f.entry(ledger.KindAdjustment, productID, physical, actorID), nil
}

func (f *fakeLedger) CheckIssue(context.Context, id.ID, int64) error { return nil }

func (f *fakeLedger) DeleteEntry(_ context.Context, entryID, _ id.ID) error {
	f.deleted = append(f.deleted, entryID)
	return nil
}

func (f *fakeLedger) History(_ context.Context, filter ledger.Filter) (domain.ListResult[ledger.EntryView], error) {
	f.lastFilter = filter
	return domain.ListResult[ledger.EntryView]{Items: []ledger.EntryView{}, Limit: 100}, nil
}

func (f *fakeLedger) Recent(_ context.Context, limit int) ([]ledger.EntryView, error) {
	f.lastLimit = limit
	return nil, nil
}

type fakeOpname struct {
	lastScope opname.Scope
	lastDate  time.Time
}

func (f *fakeOpname) Reconcile(_ context.Context, scope opname.Scope, physical int64, date time.Time, actorID id.ID, note string) (*opname.Record, error) {
	f.lastScope, f.lastDate = scope, date
	return &opname.Record{ID: id.New(), ScopeKey: scope.Key(), Date: date, PhysicalStock: physical, ActorID: actorID, Note: note}, nil
}

func (f *fakeOpname) Preview(_ context.Context, scope opname.Scope, physical int64) (*opname.Preview, error) {
	return &opname.Preview{ScopeKey: scope.Key(), SystemStock: 10, PhysicalStock: physical, Difference: physical - 10}, nil
}

func (f *fakeOpname) Get(_ context.Context, scope opname.Scope, date time.Time) (*opname.Record, error) {
	return nil, apperror.NewNotFound("reconciliation record", scope.Key())
}

func (f *fakeOpname) List(context.Context, opname.ListFilter) ([]opname.Record, error) { return nil, nil }

func (f *fakeOpname) Delete(context.Context, id.ID, id.ID) error { return nil }

type fakeReports struct{}

func (fakeReports) DailyTotals(_ context.Context, date time.Time) (*reports.DailyTotals, error) {
	return &reports.DailyTotals{Date: date.Format("2006-01-02")}, nil
}

func (fakeReports) MonthlySalesReport(_ context.Context, month string) (*reports.MonthlySalesReport, error) {
	return &reports.MonthlySalesReport{Month: month, Items: []reports.MonthlySalesItem{}}, nil
}

func (fakeReports) Dashboard(_ context.Context, withAssetValue bool) (*reports.Dashboard, error) {
	d := &reports.Dashboard{ProductCount: 1}
	if withAssetValue {
		v := types.MustMoney("1500.00")
		d.AssetValue = &v
	}
	return d, nil
}

type fixture struct {
	router  *gin.Engine
	catalog *fakeCatalog
	ledger  *fakeLedger
	opname  *fakeOpname
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	p := catalog.NewProduct("Cable")
	p.Brand = "Acme"
	p.Stock = 29
	p.PiecesPerBox = 12
	p.BuyPrice = types.MustMoney("2.50")

	f := &fixture{
		catalog: &fakeCatalog{product: p},
		ledger:  &fakeLedger{},
		opname:  &fakeOpname{},
	}
	f.router = NewRouter(RouterConfig{
		Logger:   logger.NewWithCore(zapcore.NewNopCore()),
		Policy:   security.MustDefaultPolicy(),
		Location: time.UTC,
		Actors:   actors{},
		Catalog:  f.catalog,
		Ledger:   f.ledger,
		Opname:   f.opname,
		Reports:  fakeReports{},
	})
	return f
}

func (f *fixture) do(t *testing.T, actor id.ID, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(middleware.HeaderActorID, actor.String())
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func TestProducts_PricesRedactedForStaff(t *testing.T) {
	f := newFixture(t)
	path := "/api/v1/products/" + f.catalog.product.ID.String()

	w, body := f.do(t, staffID, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, body, "buy_price")
	assert.Equal(t, map[string]any{"boxes": float64(2), "remainder": float64(5)}, body["stock_boxes"])

	w, body = f.do(t, adminID, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2.5", body["buy_price"])
}

func TestProducts_ManageRequiresAdmin(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, staffID, http.MethodPost, "/api/v1/products", `{"name":"Plug"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := f.do(t, adminID, http.MethodPost, "/api/v1/products", `{"name":"Plug","stock":4,"sell_price":"3.10"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Plug", body["name"])
	assert.Equal(t, float64(5), body["min_stock"])
}

func TestLedger_ReceiptInBoxes(t *testing.T) {
	f := newFixture(t)
	pid := f.catalog.product.ID.String()

	w, body := f.do(t, staffID, http.MethodPost, "/api/v1/ledger/receipts",
		`{"product_id":"`+pid+`","boxes":2,"pieces":5}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int64(29), f.ledger.lastQty)
	assert.Equal(t, "RECEIPT", body["kind"])

	w, _ = f.do(t, staffID, http.MethodPost, "/api/v1/ledger/receipts",
		`{"product_id":"`+pid+`","quantity":3,"boxes":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, staffID, http.MethodPost, "/api/v1/ledger/receipts", `{"product_id":"`+pid+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLedger_IssueInsufficientStock(t *testing.T) {
	f := newFixture(t)
	w, body := f.do(t, staffID, http.MethodPost, "/api/v1/ledger/issues",
		`{"product_id":"`+f.catalog.product.ID.String()+`","quantity":50}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperror.CodeInsufficientStock, body["code"])
}

func TestLedger_DeleteEntryAdminOnly(t *testing.T) {
	f := newFixture(t)
	entryID := id.New()
	path := "/api/v1/ledger/entries/" + entryID.String()

	w, _ := f.do(t, staffID, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, f.ledger.deleted)

	w, _ = f.do(t, adminID, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []id.ID{entryID}, f.ledger.deleted)
}

func TestLedger_HistoryFilter(t *testing.T) {
	f := newFixture(t)
	w, _ := f.do(t, staffID, http.MethodGet,
		"/api/v1/ledger/entries?kind=issue&from=2024-03-01&to=2024-03-31&limit=20", "")
	require.Equal(t, http.StatusOK, w.Code)

	got := f.ledger.lastFilter
	require.NotNil(t, got.Kind)
	assert.Equal(t, ledger.KindIssue, *got.Kind)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *got.From)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), *got.To)
	assert.Equal(t, 20, got.Limit)

	w, _ = f.do(t, staffID, http.MethodGet, "/api/v1/ledger/entries?from=03/01/2024", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOpname_SaveAndPreview(t *testing.T) {
	f := newFixture(t)

	w, body := f.do(t, staffID, http.MethodPost, "/api/v1/opname/records",
		`{"scope":"brand:Acme","physical_stock":95,"date":"2024-01-02"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "brand:acme", body["scope"])
	assert.Equal(t, "2024-01-02", body["date"])
	assert.Equal(t, opname.BrandScope("acme"), f.opname.lastScope)

	w, body = f.do(t, staffID, http.MethodGet, "/api/v1/opname/preview?scope=all&physical=7", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(-3), body["difference"])

	w, _ = f.do(t, staffID, http.MethodPost, "/api/v1/opname/records", `{"scope":"shelf:1","physical_stock":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, staffID, http.MethodGet, "/api/v1/opname/records/all/2024-01-02", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReports_DashboardAssetValue(t *testing.T) {
	f := newFixture(t)

	_, body := f.do(t, staffID, http.MethodGet, "/api/v1/reports/dashboard", "")
	assert.NotContains(t, body, "total_asset_value")

	_, body = f.do(t, adminID, http.MethodGet, "/api/v1/reports/dashboard", "")
	assert.Equal(t, "1500", body["total_asset_value"])
}

func TestAPI_RequiresActor(t *testing.T) {
	f := newFixture(t)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_SecurityHeaders(t *testing.T) {
	f := newFixture(t)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"))
}

func TestLedger_RecentLimitParsing(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, staffID, http.MethodGet, "/api/v1/ledger/entries/recent", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, f.ledger.lastLimit)

	w, _ = f.do(t, staffID, http.MethodGet, "/api/v1/ledger/entries/recent?limit=25", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 25, f.ledger.lastLimit)

	f.ledger.lastLimit = 0
	w, body := f.do(t, staffID, http.MethodGet, "/api/v1/ledger/entries/recent?limit=ten", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	assert.Equal(t, "limit", body["details"].(map[string]any)["field"])
	assert.Zero(t, f.ledger.lastLimit)

	w, _ = f.do(t, staffID, http.MethodGet, "/api/v1/products?limit=1.5", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
