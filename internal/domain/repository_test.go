package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 100, ClampLimit(0, 100, 1000))
	assert.Equal(t, 100, ClampLimit(-5, 100, 1000))
	assert.Equal(t, 20, ClampLimit(20, 100, 1000))
	assert.Equal(t, 1000, ClampLimit(5000, 100, 1000))
}
