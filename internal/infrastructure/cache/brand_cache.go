// Package cache provides caching infrastructure with PostgreSQL LISTEN/NOTIFY support.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"stockledger/internal/core/apperror"
	"stockledger/internal/domain/catalog"
	"stockledger/pkg/logger"
)

// BrandsChangedChannel is notified by a trigger on every brands write.
const BrandsChangedChannel = "brands_changed"

var _ catalog.BrandRepository = (*BrandCache)(nil)

// BrandCache keeps brand master data in memory and reloads it when the
// database announces a change via NOTIFY. Until Start succeeds, reads go
// to the underlying repository.
type BrandCache struct {
	source catalog.BrandRepository
	pool   *pgxpool.Pool

	mu     sync.RWMutex
	brands []catalog.Brand
	byName map[string]catalog.Brand
	loaded bool

	// Lifecycle
	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// NewBrandCache wraps source. pool provides the dedicated LISTEN connection.
func NewBrandCache(source catalog.BrandRepository, pool *pgxpool.Pool) *BrandCache {
	return &BrandCache{source: source, pool: pool}
}

// Start loads all brands and begins listening for changes.
func (c *BrandCache) Start(ctx context.Context) error {
	c.lifecycleMu.Lock()
	if c.started {
		c.lifecycleMu.Unlock()
		return nil
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = true
	c.lifecycleMu.Unlock()

	if err := c.reload(c.ctx); err != nil {
		c.Stop()
		return fmt.Errorf("load brands: %w", err)
	}

	c.wg.Add(1)
	go c.listenLoop()
	logger.Info(c.ctx, "brand cache started")
	return nil
}

// Stop ends the listener and waits for it to exit.
func (c *BrandCache) Stop() {
	c.lifecycleMu.Lock()
	if !c.started {
		c.lifecycleMu.Unlock()
		return
	}
	cancel := c.cancel
	c.started = false
	c.cancel = nil
	c.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	logger.Info(context.Background(), "brand cache stopped")
}

// List returns brands ordered by name.
func (c *BrandCache) List(ctx context.Context) ([]catalog.Brand, error) {
	c.mu.RLock()
	if c.loaded {
		out := make([]catalog.Brand, len(c.brands))
		copy(out, c.brands)
		c.mu.RUnlock()
		return out, nil
	}
	c.mu.RUnlock()
	return c.source.List(ctx)
}

// GetByName matches case-insensitively.
func (c *BrandCache) GetByName(ctx context.Context, name string) (*catalog.Brand, error) {
	c.mu.RLock()
	if c.loaded {
		b, ok := c.byName[normalize(name)]
		c.mu.RUnlock()
		if !ok {
			return nil, apperror.NewNotFound("brand", name)
		}
		return &b, nil
	}
	c.mu.RUnlock()
	return c.source.GetByName(ctx, name)
}

func (c *BrandCache) reload(ctx context.Context) error {
	brands, err := c.source.List(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]catalog.Brand, len(brands))
	for _, b := range brands {
		byName[normalize(b.Name)] = b
	}

	c.mu.Lock()
	c.brands = brands
	c.byName = byName
	c.loaded = true
	c.mu.Unlock()

	logger.Debug(ctx, "loaded brands", "count", len(brands))
	return nil
}

// invalidate reloads after a change. A failed reload drops the cached copy
// so reads fall back to the repository instead of serving stale sizes.
func (c *BrandCache) invalidate(ctx context.Context, payload string) {
	if err := c.reload(ctx); err != nil {
		logger.Error(ctx, "failed to reload brands", "brand", payload, "error", err)
		c.mu.Lock()
		c.loaded = false
		c.mu.Unlock()
	}
}

// listenLoop holds a dedicated connection subscribed to BrandsChangedChannel,
// reconnecting until the cache is stopped.
func (c *BrandCache) listenLoop() {
	defer c.wg.Done()

	for c.ctx.Err() == nil {
		conn, err := c.pool.Acquire(c.ctx)
		if err != nil {
			logger.Error(c.ctx, "failed to acquire connection for LISTEN", "error", err)
			sleep(c.ctx, time.Second)
			continue
		}

		if _, err := conn.Exec(c.ctx, "LISTEN "+BrandsChangedChannel); err != nil {
			logger.Error(c.ctx, "failed to LISTEN", "error", err)
			conn.Release()
			sleep(c.ctx, time.Second)
			continue
		}

		// Changes made while no connection was listening are picked up here.
		c.invalidate(c.ctx, "")
		c.waitForNotifications(conn)
		conn.Release()
	}
}

func (c *BrandCache) waitForNotifications(conn *pgxpool.Conn) {
	for c.ctx.Err() == nil {
		ctx, cancel := context.WithTimeout(c.ctx, 30*time.Second)
		notification, err := conn.Conn().WaitForNotification(ctx)
		cancel()

		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			if conn.Conn().IsClosed() {
				logger.Warn(c.ctx, "LISTEN connection lost, reconnecting", "error", err)
				return
			}
			// Timeout is expected, continue listening
			continue
		}

		logger.Debug(c.ctx, "received notification",
			"channel", notification.Channel,
			"payload", notification.Payload)
		c.invalidate(c.ctx, notification.Payload)
	}
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
