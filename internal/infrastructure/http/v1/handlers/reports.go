package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/security"
	"stockledger/internal/domain/reports"
)

// ReportService aggregates movements and stock.
type ReportService interface {
	DailyTotals(ctx context.Context, date time.Time) (*reports.DailyTotals, error)
	MonthlySalesReport(ctx context.Context, yearMonth string) (*reports.MonthlySalesReport, error)
	Dashboard(ctx context.Context, withAssetValue bool) (*reports.Dashboard, error)
}

// ReportHandler serves read-only reports.
type ReportHandler struct {
	*BaseHandler
	service ReportService
}

func NewReportHandler(base *BaseHandler, service ReportService) *ReportHandler {
	return &ReportHandler{BaseHandler: base, service: service}
}

// DailyTotals handles GET /reports/daily-totals?date=YYYY-MM-DD.
func (h *ReportHandler) DailyTotals(c *gin.Context) {
	date, err := h.ParseDate("date", c.Query("date"))
	if err != nil {
		h.Error(c, err)
		return
	}
	totals, err := h.service.DailyTotals(c.Request.Context(), date)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, totals)
}

// MonthlySales handles GET /reports/monthly-sales?month=YYYY-MM.
// The current month is used when month is absent.
func (h *ReportHandler) MonthlySales(c *gin.Context) {
	month := c.Query("month")
	if month == "" {
		month = h.Today().Format("2006-01")
	}
	report, err := h.service.MonthlySalesReport(c.Request.Context(), month)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// Dashboard handles GET /reports/dashboard. Asset value is included only
// for roles allowed to see it.
func (h *ReportHandler) Dashboard(c *gin.Context) {
	d, err := h.service.Dashboard(c.Request.Context(), h.Can(c, security.ActionViewAssetValue))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}
