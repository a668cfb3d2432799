package opname_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/opname"
)

func TestScopeWhere(t *testing.T) {
	pid := id.New()

	sql, args, err := scopeWhere(opname.ProductScope(pid)).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "(p.is_active AND p.id = ?)", sql)
	assert.Equal(t, []any{pid}, args)

	sql, args, err = scopeWhere(opname.BrandScope("Roman")).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "(p.is_active AND lower(p.brand) = ?)", sql)
	assert.Equal(t, []any{"roman"}, args)

	sql, args, err = scopeWhere(opname.AllScope()).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "p.is_active", sql)
	assert.Empty(t, args)
}

func TestUpsertQuery(t *testing.T) {
	rec := &opname.Record{
		ID:       id.New(),
		ScopeKey: "all",
		Date:     time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
	}

	sql, args, err := NewRecordRepo(nil).upsertQuery(rec).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "$3::date")
	assert.Contains(t, sql, "ON CONFLICT (scope_key, date) DO UPDATE SET")
	assert.Contains(t, sql, "RETURNING id, scope_key, date")
	assert.Equal(t, "2024-03-09", args[2])
}

func TestListQuery(t *testing.T) {
	key := "brand:roman"
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	sql, args, err := NewRecordRepo(nil).listQuery(opname.ListFilter{ScopeKey: &key, From: &from, Limit: 10}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "scope_key = $1")
	assert.Contains(t, sql, "date >= $2::date")
	assert.Contains(t, sql, "ORDER BY date DESC, scope_key LIMIT 10")
	assert.Equal(t, []any{key, "2024-03-01"}, args)
}
