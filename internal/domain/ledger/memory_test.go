package ledger

import (
	"context"
	"errors"
	"sort"
	"sync"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/audit"
)

// memoryStore is an in-memory Repository and tx.Manager. LockProduct and
// LockEntry take per-row mutexes held until the transaction ends, and
// failed transactions are rolled back through an undo log.
type memoryStore struct {
	mu       sync.Mutex
	products map[id.ID]*ProductStock
	names    map[id.ID]string
	entries  map[id.ID]*Entry
	rowLocks map[id.ID]*sync.Mutex
}

type memoryTx struct {
	locks []*sync.Mutex
	undo  []func()
}

type memoryTxKey struct{}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		products: make(map[id.ID]*ProductStock),
		names:    make(map[id.ID]string),
		entries:  make(map[id.ID]*Entry),
		rowLocks: make(map[id.ID]*sync.Mutex),
	}
}

func (s *memoryStore) addProduct(name string, stock int64) id.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	pid := id.New()
	s.products[pid] = &ProductStock{ProductID: pid, Stock: stock, IsActive: true}
	s.names[pid] = name
	return pid
}

func (s *memoryStore) stock(pid id.ID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[pid].Stock
}

func (s *memoryStore) deactivate(pid id.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[pid].IsActive = false
}

func (s *memoryStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(memoryTxKey{}).(*memoryTx); ok {
		return fn(ctx)
	}

	t := &memoryTx{}
	err := fn(context.WithValue(ctx, memoryTxKey{}, t))
	if err != nil {
		s.mu.Lock()
		for i := len(t.undo) - 1; i >= 0; i-- {
			t.undo[i]()
		}
		s.mu.Unlock()
	}
	for _, l := range t.locks {
		l.Unlock()
	}
	return err
}

func (s *memoryStore) lockRow(ctx context.Context, rowID id.ID) error {
	t, ok := ctx.Value(memoryTxKey{}).(*memoryTx)
	if !ok {
		return errors.New("row lock outside transaction")
	}

	s.mu.Lock()
	l, ok := s.rowLocks[rowID]
	if !ok {
		l = &sync.Mutex{}
		s.rowLocks[rowID] = l
	}
	s.mu.Unlock()

	for _, held := range t.locks {
		if held == l {
			return nil
		}
	}
	l.Lock()
	t.locks = append(t.locks, l)
	return nil
}

func (s *memoryStore) addUndo(ctx context.Context, fn func()) {
	if t, ok := ctx.Value(memoryTxKey{}).(*memoryTx); ok {
		t.undo = append(t.undo, fn)
	}
}

func (s *memoryStore) LockProduct(ctx context.Context, productID id.ID) (*ProductStock, error) {
	if err := s.lockRow(ctx, productID); err != nil {
		return nil, err
	}
	return s.ReadProduct(ctx, productID)
}

func (s *memoryStore) ReadProduct(_ context.Context, productID id.ID) (*ProductStock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	cp := *p
	return &cp, nil
}

func (s *memoryStore) SetStock(ctx context.Context, productID id.ID, stock int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[productID]
	old := p.Stock
	p.Stock = stock
	s.addUndo(ctx, func() { p.Stock = old })
	return nil
}

func (s *memoryStore) Insert(ctx context.Context, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.entries[e.ID] = &cp
	s.addUndo(ctx, func() { delete(s.entries, e.ID) })
	return nil
}

func (s *memoryStore) LockEntry(ctx context.Context, entryID id.ID) (*Entry, error) {
	if err := s.lockRow(ctx, entryID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[entryID]
	if !ok {
		return nil, apperror.NewNotFound("ledger entry", entryID)
	}
	cp := *e
	return &cp, nil
}

func (s *memoryStore) Delete(ctx context.Context, entryID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[entryID]
	delete(s.entries, entryID)
	s.addUndo(ctx, func() { s.entries[entryID] = e })
	return nil
}

func (s *memoryStore) matching(f Filter) []EntryView {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []EntryView
	for _, e := range s.entries {
		if f.ProductID != nil && e.ProductID != *f.ProductID {
			continue
		}
		if f.ActorID != nil && e.ActorID != *f.ActorID {
			continue
		}
		if f.Kind != nil && e.Kind != *f.Kind {
			continue
		}
		if f.From != nil && e.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !e.CreatedAt.Before(*f.To) {
			continue
		}
		out = append(out, EntryView{Entry: *e, ProductName: s.names[e.ProductID]})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return out
}

func (s *memoryStore) List(_ context.Context, f Filter) ([]EntryView, error) {
	out := s.matching(f)
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *memoryStore) Count(_ context.Context, f Filter) (int64, error) {
	return int64(len(s.matching(f))), nil
}

// recordingAudit keeps audit calls for assertions.
type recordingAudit struct {
	mu      sync.Mutex
	records []auditCall
}

type auditCall struct {
	entityType string
	entityID   id.ID
	action     audit.Action
	actorID    string
	changes    map[string]any
}

func (r *recordingAudit) LogChange(_ context.Context, entityType string, entityID id.ID, action audit.Action, actorID string, changes map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, auditCall{entityType, entityID, action, actorID, changes})
	return nil
}
