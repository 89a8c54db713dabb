package handler

import (
	"fmt"
	"strings"

	"github.com/soprim/pricebot/internal/model"
	"github.com/soprim/pricebot/internal/pricing"
)

const closingLine = "Para más información o confirmar tu pedido, responde este mensaje."

// RenderBundle builds the customer-facing quote text for a resolved bundle.
// quantity > 1 switches to the total-for-N wording; margins come from the
// pricing engine, never from the raw supplier price.
func RenderBundle(engine *pricing.Engine, bundle model.OfferBundle, quantity int) string {
	if quantity < 1 {
		quantity = 1
	}
	if bundle.Empty() {
		return "Lo siento, no encontramos este producto disponible en nuestro inventario en este momento. " + closingLine
	}

	if bundle.Dual && bundle.Immediate != nil && bundle.BestPrice != nil {
		return renderDual(engine, bundle, quantity)
	}

	offer := bundle.Immediate
	if offer == nil {
		offer = bundle.BestPrice
	}
	if offer.Source == model.SourceCatalog {
		return renderCatalog(engine, *offer, quantity)
	}
	return renderExternal(engine, *offer, quantity)
}

func renderDual(engine *pricing.Engine, bundle model.OfferBundle, quantity int) string {
	var b strings.Builder
	if quantity > 1 {
		fmt.Fprintf(&b, "📦 %d unidad(es) solicitada(s):\n", quantity)
	} else {
		b.WriteString("✅ Sí, tenemos disponible:\n")
	}
	fmt.Fprintf(&b, "🚚 Entrega hoy mismo por %s\n", quotedPrice(engine, *bundle.Immediate, quantity))
	fmt.Fprintf(&b, "💲 Mejor precio con entrega mañana por %s\n", quotedPrice(engine, *bundle.BestPrice, quantity))
	fmt.Fprintf(&b, "%s (Origen: %s/%s)", closingLine, bundle.Immediate.Source.Code(), bundle.BestPrice.Source.Code())
	return b.String()
}

func renderCatalog(engine *pricing.Engine, offer model.Offer, quantity int) string {
	stockLine := "📦 Consultar disponibilidad"
	if offer.StockNumeric > 0 {
		stockLine = fmt.Sprintf("📦 Tenemos %d unidades disponibles", offer.StockNumeric)
	}

	var b strings.Builder
	if quantity > 1 {
		fmt.Fprintf(&b, "✅ %d unidad(es) solicitada(s)\n", quantity)
		fmt.Fprintf(&b, "Precio total: %s\n", quotedPrice(engine, offer, quantity))
	} else {
		b.WriteString("✅ Sí, tenemos disponible\n")
		fmt.Fprintf(&b, "Precio: %s\n", quotedPrice(engine, offer, 1))
	}
	b.WriteString("🚚 Entrega hoy mismo\n")
	b.WriteString(stockLine + "\n")
	fmt.Fprintf(&b, "%s (Origen: %s)", closingLine, offer.Source.Code())
	return b.String()
}

func renderExternal(engine *pricing.Engine, offer model.Offer, quantity int) string {
	deliveryLine := "📦 Entrega mañana."
	if offer.Source == model.SourceSufarmed {
		deliveryLine = "🚚 Entrega hoy mismo."
	}

	var b strings.Builder
	if quantity > 1 {
		fmt.Fprintf(&b, "✅ %d unidad(es) solicitada(s).\n", quantity)
		fmt.Fprintf(&b, "Precio total: %s\n", quotedPrice(engine, offer, quantity))
	} else {
		b.WriteString("✅ Sí, tenemos disponible.\n")
		fmt.Fprintf(&b, "Precio: %s\n", quotedPrice(engine, offer, 1))
	}
	b.WriteString(deliveryLine + "\n")
	fmt.Fprintf(&b, "%s (Origen: %s)", closingLine, offer.Source.Code())
	return b.String()
}

// quotedPrice applies the source margin and quantity to an offer's cost.
// Unparsable costs and degenerate margins both render as the explicit
// not-available message rather than a misleading number.
func quotedPrice(engine *pricing.Engine, offer model.Offer, quantity int) string {
	if offer.PriceNumeric <= 0 {
		return "Precio no disponible"
	}
	sell, err := engine.SellPrice(offer.Source, offer.PriceNumeric)
	if err != nil {
		return "Precio no disponible"
	}
	return pricing.FormatPrice(sell * float64(quantity))
}
