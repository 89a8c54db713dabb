package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soprim/pricebot/internal/model"
)

func offer(src model.Source, price float64, priceText string, stock int) model.Offer {
	return model.Offer{
		Name:         "PRODUCTO",
		PriceText:    priceText,
		PriceNumeric: price,
		StockNumeric: stock,
		Source:       src,
	}
}

func TestSelectOffersEmpty(t *testing.T) {
	b := SelectOffers(nil, model.SourceSufarmed)
	assert.True(t, b.Empty())
	assert.False(t, b.Dual)
}

// Price beats stock status: a cheaper offer without stock still wins best
// price over a stocked, more expensive one.
func TestSelectOffersPriceBeatsStock(t *testing.T) {
	offers := []model.Offer{
		offer(model.SourceSufarmed, 40, "$40.00", 5),
		offer(model.SourceNadro, 35, "$35.00", 0),
	}

	b := SelectOffers(offers, model.SourceSufarmed)
	require.NotNil(t, b.BestPrice)
	require.NotNil(t, b.Immediate)
	assert.Equal(t, model.SourceNadro, b.BestPrice.Source)
	assert.Equal(t, model.SourceSufarmed, b.Immediate.Source)
	assert.True(t, b.Dual)
}

// Among equal prices, the stocked offer wins.
func TestSelectOffersStockBreaksPriceTie(t *testing.T) {
	offers := []model.Offer{
		offer(model.SourceFanasa, 35, "$35.00", 0),
		offer(model.SourceNadro, 35, "$35.00", 3),
	}

	b := SelectOffers(offers, model.SourceSufarmed)
	require.NotNil(t, b.BestPrice)
	assert.Equal(t, model.SourceNadro, b.BestPrice.Source)
	assert.Nil(t, b.Immediate)
	assert.False(t, b.Dual)
}

// A zero price never wins best price, but the offer is not dropped.
func TestSelectOffersZeroPriceNeverWins(t *testing.T) {
	offers := []model.Offer{
		offer(model.SourceSufarmed, 0, "consultar", 10),
		offer(model.SourceNadro, 50, "$50.00", 0),
	}

	b := SelectOffers(offers, model.SourceSufarmed)
	require.NotNil(t, b.BestPrice)
	assert.Equal(t, model.SourceNadro, b.BestPrice.Source)
	require.NotNil(t, b.Immediate)
	assert.Equal(t, model.SourceSufarmed, b.Immediate.Source)
	assert.True(t, b.Dual)
}

// Same source, same price text: one quoted offer, not two.
func TestSelectOffersDualFalseOnSameQuote(t *testing.T) {
	offers := []model.Offer{
		offer(model.SourceSufarmed, 25, "$25.00", 2),
	}

	b := SelectOffers(offers, model.SourceSufarmed)
	require.NotNil(t, b.Immediate)
	require.NotNil(t, b.BestPrice)
	assert.False(t, b.Dual)
}

// The fast-source scan honors the stock-first order: a stocked fast offer
// beats an earlier-collected unstocked one.
func TestSelectOffersImmediatePrefersStocked(t *testing.T) {
	offers := []model.Offer{
		offer(model.SourceSufarmed, 30, "$30.00", 0),
		offer(model.SourceSufarmed, 45, "$45.00", 8),
	}

	b := SelectOffers(offers, model.SourceSufarmed)
	require.NotNil(t, b.Immediate)
	assert.Equal(t, "$45.00", b.Immediate.PriceText)
}
