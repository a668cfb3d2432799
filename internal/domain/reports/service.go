package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"stockledger/internal/core/apperror"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

// Config holds report settings.
type Config struct {
	// Location defines calendar days and months. Defaults to UTC.
	Location *time.Location

	Now func() time.Time
}

// Service provides report generation operations.
type Service struct {
	repo Repository
	loc  *time.Location
	now  func() time.Time
}

// NewService creates a new reports service.
func NewService(repo Repository, cfg Config) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{repo: repo, loc: cfg.Location, now: cfg.Now}
}

// DailyTotals returns the RECEIPT and ISSUE sums of date's calendar day.
func (s *Service) DailyTotals(ctx context.Context, date time.Time) (*DailyTotals, error) {
	y, m, d := date.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, s.loc)

	in, out, err := s.repo.Movements(ctx, from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("daily totals: %w", err)
	}
	return &DailyTotals{Date: from.Format(dateLayout), TotalIn: in, TotalOut: out}, nil
}

// MonthlySalesReport aggregates a YYYY-MM month per product.
func (s *Service) MonthlySalesReport(ctx context.Context, yearMonth string) (*MonthlySalesReport, error) {
	month, err := time.ParseInLocation(monthLayout, strings.TrimSpace(yearMonth), s.loc)
	if err != nil {
		return nil, apperror.NewValidation("month must be formatted as YYYY-MM").
			WithDetail("field", "month").
			WithDetail("value", yearMonth)
	}

	items, err := s.repo.MonthlySales(ctx, month, month.AddDate(0, 1, 0))
	if err != nil {
		return nil, fmt.Errorf("monthly sales: %w", err)
	}

	report := &MonthlySalesReport{Month: month.Format(monthLayout), Items: items}
	for _, it := range items {
		report.TotalOut += it.TotalQtyOut
		report.TotalIn += it.TotalQtyIn
	}
	if report.Items == nil {
		report.Items = []MonthlySalesItem{}
	}
	return report, nil
}

// Dashboard summarises stock and today's movements. The aggregates are
// independent reads and run concurrently.
func (s *Service) Dashboard(ctx context.Context, withAssetValue bool) (*Dashboard, error) {
	var (
		summary StockSummary
		today   *DailyTotals
		count   int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if summary, err = s.repo.StockSummary(gctx); err != nil {
			return fmt.Errorf("stock summary: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		today, err = s.DailyTotals(gctx, s.now().In(s.loc))
		return err
	})
	g.Go(func() error {
		var err error
		if count, err = s.repo.EntryCount(gctx); err != nil {
			return fmt.Errorf("entry count: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := &Dashboard{
		ProductCount:  summary.ProductCount,
		TotalStock:    summary.TotalStock,
		LowStockCount: summary.LowStockCount,
		Today:         *today,
		EntryCount:    count,
	}
	if withAssetValue {
		v := summary.TotalAssetValue
		d.AssetValue = &v
	}
	return d, nil
}
