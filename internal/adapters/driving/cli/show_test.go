package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docindex/internal/core/domain"
)

func TestShowCmd_ReconstructsDocument(t *testing.T) {
	_, search := setupTestServices(t)
	search.documents = map[string][]domain.Record{
		"orders": {
			chunkRecord("orders", 0, 0, "Orders table "),
			chunkRecord("orders", 1, 7, "table holds orders."),
		},
	}

	out, err := execute(t, "", "show", "orders")

	require.NoError(t, err)
	assert.Equal(t, "Orders table holds orders.\n", out)
}

func TestShowCmd_Metadata(t *testing.T) {
	_, search := setupTestServices(t)
	search.documents = map[string][]domain.Record{
		"orders": {chunkRecord("orders", 0, 0, "Orders table")},
	}

	out, err := execute(t, "", "show", "--metadata", "orders")

	require.NoError(t, err)
	assert.Contains(t, out, "table-context/orders.md")
	assert.Contains(t, out, "Title: Table orders")
	assert.Contains(t, out, "Category: Table context")
	assert.Contains(t, out, "Table: prod.sales.orders")
	assert.Contains(t, out, "Orders table")
}

func TestShowCmd_NotFound(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "", "show", "missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestShowCmd_RequiresOneArg(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "", "show")

	require.Error(t, err)
}
