package store

import (
	"context"
	"testing"

	"us30bot/internal/position"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCopiesOnSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	doc, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.Positions)

	price := decimal.NewFromInt(44100)
	doc.OpenPrice = &price
	doc.Positions = append(doc.Positions, position.Position{ID: "a", Direction: position.Long, EntryPrice: decimal.NewFromInt(1)})
	require.NoError(t, m.Save(ctx, doc))

	doc.Positions[0].ID = "mutated"
	*doc.OpenPrice = decimal.NewFromInt(1)

	got, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Positions[0].ID)
	assert.Equal(t, "44100", got.OpenPrice.String())
	assert.Equal(t, 1, m.Saves())
}
