package cache

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/catalog"
)

type stubBrands struct {
	brands []catalog.Brand
	err    error
	lists  int
}

func (s *stubBrands) List(context.Context) ([]catalog.Brand, error) {
	s.lists++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]catalog.Brand, len(s.brands))
	copy(out, s.brands)
	return out, nil
}

func (s *stubBrands) GetByName(_ context.Context, name string) (*catalog.Brand, error) {
	for _, b := range s.brands {
		if strings.EqualFold(b.Name, strings.TrimSpace(name)) {
			return &b, nil
		}
	}
	return nil, apperror.NewNotFound("brand", name)
}

func TestBrandCache_ServesFromMemoryAfterLoad(t *testing.T) {
	src := &stubBrands{brands: []catalog.Brand{{ID: id.New(), Name: "Philips", PiecesPerBox: 12}}}
	c := NewBrandCache(src, nil)
	ctx := context.Background()

	require.NoError(t, c.reload(ctx))
	src.brands[0].PiecesPerBox = 99

	b, err := c.GetByName(ctx, " PHILIPS ")
	require.NoError(t, err)
	assert.Equal(t, int64(12), b.PiecesPerBox)

	_, err = c.GetByName(ctx, "osram")
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, 1, src.lists)
}

func TestBrandCache_InvalidateReloads(t *testing.T) {
	src := &stubBrands{brands: []catalog.Brand{{ID: id.New(), Name: "Osram", PiecesPerBox: 10}}}
	c := NewBrandCache(src, nil)
	ctx := context.Background()
	require.NoError(t, c.reload(ctx))

	src.brands = append(src.brands, catalog.Brand{ID: id.New(), Name: "Broco", PiecesPerBox: 24})
	c.invalidate(ctx, "Broco")

	list, err := c.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	b, err := c.GetByName(ctx, "broco")
	require.NoError(t, err)
	assert.Equal(t, int64(24), b.PiecesPerBox)
}

func TestBrandCache_FailedReloadFallsBackToSource(t *testing.T) {
	src := &stubBrands{brands: []catalog.Brand{{ID: id.New(), Name: "Osram", PiecesPerBox: 10}}}
	c := NewBrandCache(src, nil)
	ctx := context.Background()
	require.NoError(t, c.reload(ctx))

	src.brands[0].PiecesPerBox = 20
	src.err = errors.New("connection reset")
	c.invalidate(ctx, "Osram")

	b, err := c.GetByName(ctx, "osram")
	require.NoError(t, err)
	assert.Equal(t, int64(20), b.PiecesPerBox)
}

func TestBrandCache_NotStartedReadsThrough(t *testing.T) {
	src := &stubBrands{brands: []catalog.Brand{{ID: id.New(), Name: "Osram", PiecesPerBox: 10}}}
	c := NewBrandCache(src, nil)

	_, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, src.lists)
	c.Stop()
}
