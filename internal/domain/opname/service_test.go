package opname

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
)

type memProduct struct {
	brand  string
	stock  int64
	active bool
}

type memMovement struct {
	productID id.ID
	kind      string
	qty       int64
	at        time.Time
}

type memoryRepo struct {
	mu        sync.Mutex
	products  map[id.ID]*memProduct
	movements []memMovement
	records   map[string]*Record
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		products: make(map[id.ID]*memProduct),
		records:  make(map[string]*Record),
	}
}

func (r *memoryRepo) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx)
}

func (r *memoryRepo) add(brand string, stock int64) id.ID {
	pid := id.New()
	r.products[pid] = &memProduct{brand: brand, stock: stock, active: true}
	return pid
}

func (r *memoryRepo) inScope(scope Scope, pid id.ID, p *memProduct) bool {
	if !p.active {
		return false
	}
	switch scope.Kind {
	case ScopeProduct:
		return pid == scope.ProductID
	case ScopeBrand:
		return strings.ToLower(p.brand) == scope.Brand
	}
	return true
}

func (r *memoryRepo) SystemStock(_ context.Context, scope Scope) (int64, error) {
	if scope.Kind == ScopeProduct {
		p, ok := r.products[scope.ProductID]
		if !ok || !p.active {
			return 0, apperror.NewNotFound("product", scope.ProductID)
		}
	}
	var sum int64
	for pid, p := range r.products {
		if r.inScope(scope, pid, p) {
			sum += p.stock
		}
	}
	return sum, nil
}

func (r *memoryRepo) Movements(_ context.Context, scope Scope, from, to time.Time) (Totals, error) {
	var t Totals
	for _, m := range r.movements {
		if m.at.Before(from) || !m.at.Before(to) || !r.inScope(scope, m.productID, r.products[m.productID]) {
			continue
		}
		switch m.kind {
		case "RECEIPT":
			t.In += m.qty
		case "ISSUE":
			t.Out += m.qty
		}
	}
	return t, nil
}

func recordKey(scopeKey string, date time.Time) string {
	return scopeKey + "|" + date.Format(DateLayout)
}

func (r *memoryRepo) Upsert(_ context.Context, rec *Record) (*Record, error) {
	key := recordKey(rec.ScopeKey, rec.Date)
	if existing, ok := r.records[key]; ok {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	}
	cp := *rec
	r.records[key] = &cp
	return &cp, nil
}

func (r *memoryRepo) Get(_ context.Context, scopeKey string, date time.Time) (*Record, error) {
	rec, ok := r.records[recordKey(scopeKey, date)]
	if !ok {
		return nil, apperror.NewNotFound("reconciliation record", scopeKey)
	}
	cp := *rec
	return &cp, nil
}

func (r *memoryRepo) List(_ context.Context, f ListFilter) ([]Record, error) {
	var out []Record
	for _, rec := range r.records {
		if f.ScopeKey != nil && rec.ScopeKey != *f.ScopeKey {
			continue
		}
		if f.From != nil && rec.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && rec.Date.After(*f.To) {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *memoryRepo) Delete(_ context.Context, recordID id.ID) error {
	for k, rec := range r.records {
		if rec.ID == recordID {
			delete(r.records, k)
			return nil
		}
	}
	return apperror.NewNotFound("reconciliation record", recordID)
}

func (r *memoryRepo) stockSnapshot() map[id.ID]int64 {
	out := make(map[id.ID]int64, len(r.products))
	for pid, p := range r.products {
		out[pid] = p.stock
	}
	return out
}

var day = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestReconcile_Upsert(t *testing.T) {
	repo := newMemoryRepo()
	repo.add("Acme", 40)
	repo.add("acme", 60)
	repo.add("Other", 5)
	svc := NewService(repo, repo, nil, Config{})
	ctx := context.Background()
	actor := id.New()

	first, err := svc.Reconcile(ctx, BrandScope("ACME"), 95, day, actor, "")
	require.NoError(t, err)
	assert.Equal(t, "brand:acme", first.ScopeKey)
	assert.Equal(t, int64(100), first.SystemStock)
	assert.Equal(t, int64(-5), first.Difference)

	second, err := svc.Reconcile(ctx, BrandScope("acme"), 103, day.Add(15*time.Hour), actor, "recount")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(103), second.PhysicalStock)
	assert.Equal(t, int64(3), second.Difference)
	assert.Equal(t, "recount", second.Note)

	records, err := svc.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(103), records[0].PhysicalStock)
}

func TestReconcile_NeverMutatesStock(t *testing.T) {
	repo := newMemoryRepo()
	pid := repo.add("Acme", 40)
	repo.add("Other", 7)
	svc := NewService(repo, repo, nil, Config{})
	before := repo.stockSnapshot()

	_, err := svc.Reconcile(context.Background(), ProductScope(pid), 12, day, id.New(), "")
	require.NoError(t, err)
	_, err = svc.Reconcile(context.Background(), AllScope(), 0, day, id.New(), "")
	require.NoError(t, err)

	assert.Equal(t, before, repo.stockSnapshot())
}

func TestReconcile_DayTotalsRestrictedToScope(t *testing.T) {
	repo := newMemoryRepo()
	a := repo.add("Acme", 10)
	b := repo.add("Other", 10)
	repo.movements = []memMovement{
		{a, "RECEIPT", 5, day.Add(time.Hour)},
		{a, "ISSUE", 2, day.Add(2 * time.Hour)},
		{a, "ADJUSTMENT", 9, day.Add(3 * time.Hour)},
		{b, "RECEIPT", 7, day.Add(4 * time.Hour)},
		{a, "RECEIPT", 100, day.AddDate(0, 0, 1)},
	}
	svc := NewService(repo, repo, nil, Config{})
	ctx := context.Background()

	rec, err := svc.Reconcile(ctx, ProductScope(a), 10, day, id.New(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(5), rec.TotalIn)
	assert.Equal(t, int64(2), rec.TotalOut)

	rec, err = svc.Reconcile(ctx, AllScope(), 20, day, id.New(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(12), rec.TotalIn)
	assert.Equal(t, int64(2), rec.TotalOut)
	assert.Zero(t, rec.Difference)
}

func TestReconcile_Validation(t *testing.T) {
	repo := newMemoryRepo()
	pid := repo.add("Acme", 10)
	svc := NewService(repo, repo, nil, Config{})
	ctx := context.Background()

	_, err := svc.Reconcile(ctx, ProductScope(pid), -1, day, id.New(), "")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = svc.Reconcile(ctx, ProductScope(pid), 1, day, id.ID{}, "")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = svc.Reconcile(ctx, ProductScope(id.New()), 1, day, id.New(), "")
	assert.True(t, apperror.IsNotFound(err))
	assert.Empty(t, repo.records)
}

func TestPreview(t *testing.T) {
	repo := newMemoryRepo()
	pid := repo.add("Acme", 74)
	svc := NewService(repo, repo, nil, Config{})

	p, err := svc.Preview(context.Background(), ProductScope(pid), 70)
	require.NoError(t, err)
	assert.Equal(t, int64(-4), p.Difference)
	assert.Empty(t, repo.records)
}

func TestGetListDelete(t *testing.T) {
	repo := newMemoryRepo()
	repo.add("Acme", 10)
	svc := NewService(repo, repo, nil, Config{})
	ctx := context.Background()
	actor := id.New()

	for i := 0; i < 3; i++ {
		_, err := svc.Reconcile(ctx, AllScope(), int64(10+i), day.AddDate(0, 0, i), actor, "")
		require.NoError(t, err)
	}

	rec, err := svc.Get(ctx, AllScope(), day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(11), rec.PhysicalStock)

	from := day.AddDate(0, 0, 1)
	list, err := svc.List(ctx, ListFilter{From: &from})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2024-01-03", list[0].DateString())

	to := day
	_, err = svc.List(ctx, ListFilter{From: &from, To: &to})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	require.NoError(t, svc.Delete(ctx, rec.ID, actor))
	_, err = svc.Get(ctx, AllScope(), day.AddDate(0, 0, 1))
	assert.True(t, apperror.IsNotFound(err))
}

func TestParseScope(t *testing.T) {
	pid := id.New()

	tests := []struct {
		in      string
		want    Scope
		wantErr bool
	}{
		{in: "all", want: AllScope()},
		{in: "product:" + pid.String(), want: ProductScope(pid)},
		{in: "brand: Acme ", want: BrandScope("acme")},
		{in: "product:not-a-uuid", wantErr: true},
		{in: "brand:", wantErr: true},
		{in: "warehouse:1", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseScope(tt.in)
			if tt.wantErr {
				assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Key(), got.Key())
		})
	}
}
