package pagination_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/pkg/pagination"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, pagination.DefaultLimit, pagination.NormalizeLimit(0))
	assert.Equal(t, pagination.DefaultLimit, pagination.NormalizeLimit(-4))
	assert.Equal(t, 10, pagination.NormalizeLimit(10))
	assert.Equal(t, pagination.MaxLimit, pagination.NormalizeLimit(1000))
	assert.Equal(t, 11, pagination.LimitWithBuffer(10))
}

func TestCursor_IdaYVuelta(t *testing.T) {
	c := pagination.Cursor{
		CreatedAt: time.Date(2026, 3, 1, 10, 30, 0, 123456789, time.UTC),
		ID:        uuid.New(),
	}
	parsed, err := pagination.ParseCursor(pagination.EncodeCursor(c))
	require.NoError(t, err)
	require.NotNil(t, parsed)
	assert.True(t, c.CreatedAt.Equal(parsed.CreatedAt))
	assert.Equal(t, c.ID, parsed.ID)
}

func TestParseCursor_Invalidos(t *testing.T) {
	got, err := pagination.ParseCursor("  ")
	assert.NoError(t, err)
	assert.Nil(t, got)

	_, err = pagination.ParseCursor("%%%")
	assert.Error(t, err)

	_, err = pagination.ParseCursor("c2luLXNlcGFyYWRvcg==") // "sin-separador"
	assert.Error(t, err)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, pagination.TotalPages(0, 20))
	assert.Equal(t, 1, pagination.TotalPages(20, 20))
	assert.Equal(t, 2, pagination.TotalPages(21, 20))
	assert.Equal(t, 0, pagination.TotalPages(5, 0))
}
