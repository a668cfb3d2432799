package ledger_repo

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/ledger"
)

func TestListQuery(t *testing.T) {
	r := NewEntryRepo(nil)
	pid := id.New()
	kind := ledger.KindIssue
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	sql, args, err := r.listQuery(ledger.Filter{
		ProductID: &pid, Kind: &kind, From: &from, To: &to, Limit: 20, Offset: 40,
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "JOIN products p ON p.id = e.product_id")
	assert.Contains(t, sql, "LEFT JOIN users u ON u.id = e.actor_id")
	assert.Contains(t, sql, "e.product_id = $1")
	assert.Contains(t, sql, "e.kind = $2")
	assert.Contains(t, sql, "e.created_at >= $3")
	assert.Contains(t, sql, "e.created_at < $4")
	assert.Contains(t, sql, "ORDER BY e.created_at DESC, e.id DESC LIMIT 20 OFFSET 40")
	assert.Equal(t, []any{pid, "ISSUE", from, to}, args)
}

func TestListQuery_NoFilter(t *testing.T) {
	sql, args, err := NewEntryRepo(nil).listQuery(ledger.Filter{}).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "WHERE")
	assert.NotContains(t, sql, "LIMIT")
	assert.Empty(t, args)
}

func TestLockQueries(t *testing.T) {
	r := NewEntryRepo(nil)
	pid := id.New()

	sql, args, err := r.lockProductQuery(pid).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, stock, is_active FROM products WHERE id = $1 FOR UPDATE", sql)
	assert.Equal(t, []any{pid}, args)

	eid := id.New()
	sql, args, err = r.lockEntryQuery(eid).ToSql()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sql, "SELECT id, product_id, actor_id, kind, quantity"))
	assert.Contains(t, sql, "FROM ledger_entries WHERE id = $1")
	assert.True(t, strings.HasSuffix(sql, "FOR UPDATE"))
	assert.Equal(t, []any{eid}, args)
}

func TestReadProductQuery_DoesNotLock(t *testing.T) {
	sql, _, err := NewEntryRepo(nil).productQuery(id.New()).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "FOR UPDATE")
}
