package postgres

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditPackUnpack(t *testing.T) {
	svc, err := NewAuditService(nil)
	require.NoError(t, err)

	small := []byte(`{"stock_before":10}`)
	var e AuditEntry
	svc.pack(&e, small)
	assert.Equal(t, CompressionNone, e.CompressionAlgo)
	assert.JSONEq(t, string(small), string(e.Changes))
	require.NoError(t, svc.unpack(&e))
	assert.JSONEq(t, string(small), string(e.Changes))

	large, err := json.Marshal(map[string]string{"note": strings.Repeat("opname ", 3000)})
	require.NoError(t, err)

	var big AuditEntry
	svc.pack(&big, large)
	assert.Equal(t, CompressionZstd, big.CompressionAlgo)
	assert.Nil(t, big.Changes)
	assert.Less(t, len(big.ChangesCompressed), len(large))

	require.NoError(t, svc.unpack(&big))
	assert.Equal(t, large, []byte(big.Changes))
	assert.Nil(t, big.ChangesCompressed)
}
