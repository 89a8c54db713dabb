package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soprim/pricebot/internal/model"
	"github.com/soprim/pricebot/internal/pricing"
)

func testEngine() *pricing.Engine {
	return pricing.NewEngine(map[model.Source]float64{
		model.SourceSufarmed: 45,
		model.SourceNadro:    10,
		model.SourceDifarmer: 100,
	})
}

func TestRenderBundleEmpty(t *testing.T) {
	got := RenderBundle(testEngine(), model.OfferBundle{}, 1)
	assert.Contains(t, got, "no encontramos este producto")
}

func TestRenderBundleDual(t *testing.T) {
	bundle := model.OfferBundle{
		Immediate: &model.Offer{
			Name: "IBUPROFENO 400 MG", PriceNumeric: 100,
			StockNumeric: 5, Source: model.SourceSufarmed,
		},
		BestPrice: &model.Offer{
			Name: "IBUPROFENO 400 MG", PriceNumeric: 90,
			Source: model.SourceNadro,
		},
		Dual: true,
	}

	got := RenderBundle(testEngine(), bundle, 1)
	assert.Contains(t, got, "Entrega hoy mismo por $181.82")
	assert.Contains(t, got, "entrega mañana por $100.00")
	assert.Contains(t, got, "(Origen: SF/ND)")
}

func TestRenderBundleCatalog(t *testing.T) {
	bundle := model.OfferBundle{
		BestPrice: &model.Offer{
			Name: "PARACETAMOL 500 MG", PriceNumeric: 25,
			StockNumeric: 10, Source: model.SourceCatalog,
		},
	}

	got := RenderBundle(testEngine(), bundle, 1)
	assert.Contains(t, got, "Precio: $25.00")
	assert.Contains(t, got, "Tenemos 10 unidades disponibles")
	assert.Contains(t, got, "(Origen: BI)")
}

func TestRenderBundleQuantity(t *testing.T) {
	bundle := model.OfferBundle{
		BestPrice: &model.Offer{
			Name: "IBUPROFENO 400 MG", PriceNumeric: 100,
			StockNumeric: 5, Source: model.SourceSufarmed,
		},
	}

	got := RenderBundle(testEngine(), bundle, 3)
	assert.Contains(t, got, "3 unidad(es)")
	assert.Contains(t, got, "Precio total: $545.45")
}

func TestRenderBundleDegenerateMargin(t *testing.T) {
	bundle := model.OfferBundle{
		BestPrice: &model.Offer{
			Name: "INSULINA", PriceNumeric: 300, Source: model.SourceDifarmer,
		},
	}

	got := RenderBundle(testEngine(), bundle, 1)
	assert.Contains(t, got, "Precio no disponible")
	assert.NotContains(t, got, "$")
}

func TestRenderBundleUnparsablePrice(t *testing.T) {
	bundle := model.OfferBundle{
		BestPrice: &model.Offer{
			Name: "AMBROXOL JARABE", PriceNumeric: 0, Source: model.SourceNadro,
		},
	}

	got := RenderBundle(testEngine(), bundle, 1)
	assert.Contains(t, got, "Precio no disponible")
}
