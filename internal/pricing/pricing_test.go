package pricing

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soprim/pricebot/internal/model"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"plain", "120.50", 120.50},
		{"currency symbol", "$1,234.56", 1234.56},
		{"comma decimal", "120,50", 120.50},
		{"thousands only", "1,234", 1.234},
		{"embedded", "MXN 89.90 c/u", 89.90},
		{"integer", "45", 45},
		{"garbage", "consultar precio", 0},
		{"empty", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParsePrice(tt.raw), 1e-9)
		})
	}
}

func TestParseStock(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"numeric", "12", 12},
		{"numeric with noise", "12 piezas", 12},
		{"thousands", "1,200", 1200},
		{"affirmative", "Disponible", 1},
		{"affirmative si", "si", 1},
		{"affirmative accent", "Sí", 1},
		{"en stock", "en stock", 1},
		{"negated", "no disponible", 0},
		{"sin existencia", "sin existencia", 0},
		{"agotado", "agotado", 0},
		{"empty", "", 0},
		{"zero", "0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseStock(tt.raw))
		})
	}
}

func TestSortValue(t *testing.T) {
	assert.Equal(t, 150.0, SortValue(model.Offer{PriceNumeric: 150}))
	assert.Equal(t, float64(NoPriceSentinel), SortValue(model.Offer{PriceNumeric: 0}))
	assert.Equal(t, float64(NoPriceSentinel), SortValue(model.Offer{PriceNumeric: -3}))
}

func TestSellPrice(t *testing.T) {
	e := NewEngine(map[model.Source]float64{
		model.SourceSufarmed: 45,
		model.SourceNadro:    100,
	})

	got, err := e.SellPrice(model.SourceSufarmed, 100)
	require.NoError(t, err)
	assert.InDelta(t, 181.82, got, 0.01)

	// No margin configured passes the cost through.
	got, err = e.SellPrice(model.SourceFanasa, 100)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got)

	_, err = e.SellPrice(model.SourceNadro, 100)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotComputable))
}

func TestQuote(t *testing.T) {
	e := NewEngine(map[model.Source]float64{
		model.SourceSufarmed: 45,
		model.SourceNadro:    120,
	})

	assert.Equal(t, "$181.82", e.Quote(model.SourceSufarmed, 100))
	assert.Equal(t, "$1,234.56", e.Quote(model.SourceFanasa, 1234.56))
	assert.Equal(t, "Precio no disponible", e.Quote(model.SourceNadro, 100))
	assert.Equal(t, "Precio no disponible", e.Quote(model.SourceSufarmed, 0))
}
