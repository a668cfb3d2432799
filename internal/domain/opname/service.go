package opname

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/internal/domain"
	"stockledger/internal/domain/audit"
	"stockledger/pkg/logger"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500

	entityRecord = "reconciliation_record"
)

// Config holds reconciliation settings.
type Config struct {
	// Location defines calendar days for movement totals. Defaults to UTC.
	Location *time.Location

	Now func() time.Time
}

// Service computes and stores reconciliation records.
type Service struct {
	repo      Repository
	txManager tx.Manager
	audit     audit.Recorder
	loc       *time.Location
	now       func() time.Time
}

// NewService creates a new reconciliation service.
func NewService(repo Repository, txManager tx.Manager, recorder audit.Recorder, cfg Config) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		repo:      repo,
		txManager: txManager,
		audit:     recorder,
		loc:       cfg.Location,
		now:       cfg.Now,
	}
}

// Day returns midnight of date's calendar day in the service location.
// The year, month and day of date are taken as given.
func (s *Service) Day(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

// Reconcile records a physical count for scope on date. Saving the same
// scope and date again replaces the earlier record.
func (s *Service) Reconcile(ctx context.Context, scope Scope, physical int64, date time.Time, actorID id.ID, note string) (*Record, error) {
	if physical < 0 {
		return nil, apperror.NewValidation("physical count must not be negative").
			WithDetail("field", "physical_stock").
			WithDetail("value", physical)
	}
	if id.IsNil(actorID) {
		return nil, apperror.NewValidation("actor is required").WithDetail("field", "actor_id")
	}
	if date.IsZero() {
		return nil, apperror.NewValidation("date is required").WithDetail("field", "date")
	}

	day := s.Day(date)
	var saved *Record

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		system, err := s.repo.SystemStock(ctx, scope)
		if err != nil {
			return err
		}
		totals, err := s.repo.Movements(ctx, scope, day, day.AddDate(0, 0, 1))
		if err != nil {
			return fmt.Errorf("day movements: %w", err)
		}

		now := s.now()
		saved, err = s.repo.Upsert(ctx, &Record{
			ID:            id.New(),
			ScopeKey:      scope.Key(),
			Date:          day,
			SystemStock:   system,
			PhysicalStock: physical,
			Difference:    physical - system,
			TotalIn:       totals.In,
			TotalOut:      totals.Out,
			Note:          strings.TrimSpace(note),
			ActorID:       actorID,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if err != nil {
			return fmt.Errorf("save record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "saved stock count",
		"scope", saved.ScopeKey,
		"date", saved.DateString(),
		"system_stock", saved.SystemStock,
		"physical_stock", saved.PhysicalStock,
		"difference", saved.Difference,
	)
	return saved, nil
}

// Preview computes physical - system for scope without saving anything.
func (s *Service) Preview(ctx context.Context, scope Scope, physical int64) (*Preview, error) {
	if physical < 0 {
		return nil, apperror.NewValidation("physical count must not be negative").WithDetail("field", "physical_stock")
	}
	system, err := s.repo.SystemStock(ctx, scope)
	if err != nil {
		return nil, err
	}
	return &Preview{
		ScopeKey:      scope.Key(),
		SystemStock:   system,
		PhysicalStock: physical,
		Difference:    physical - system,
	}, nil
}

// Get returns the record for scope on date.
func (s *Service) Get(ctx context.Context, scope Scope, date time.Time) (*Record, error) {
	return s.repo.Get(ctx, scope.Key(), s.Day(date))
}

// List returns records newest date first.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Record, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	f.Limit = domain.ClampLimit(f.Limit, DefaultListLimit, MaxListLimit)
	if f.From != nil {
		from := s.Day(*f.From)
		f.From = &from
	}
	if f.To != nil {
		to := s.Day(*f.To)
		f.To = &to
	}
	return s.repo.List(ctx, f)
}

// Delete removes a record. Product stock is unaffected.
func (s *Service) Delete(ctx context.Context, recordID, actorID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, recordID); err != nil {
			return err
		}
		return s.audit.LogChange(ctx, entityRecord, recordID, audit.ActionDelete, actorID.String(), nil)
	})
}
