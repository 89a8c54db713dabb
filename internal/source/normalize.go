package source

import (
	"strings"

	"go.uber.org/zap"

	"github.com/soprim/pricebot/internal/model"
	"github.com/soprim/pricebot/internal/pricing"
)

// priceField identifies which raw price field to read.
type priceField int

const (
	fieldMyPrice priceField = iota
	fieldNetPrice
	fieldPublicPrice
)

// pricePriority fixes, per source, which populated price field wins. The
// portals disagree about what their headline price means: Sufarmed's "mi
// precio" is the negotiated cost, Fanasa quotes net after discount, Nadro
// only shows a public list price.
var pricePriority = map[model.Source][]priceField{
	model.SourceSufarmed: {fieldMyPrice, fieldNetPrice, fieldPublicPrice},
	model.SourceFanasa:   {fieldNetPrice, fieldMyPrice, fieldPublicPrice},
	model.SourceNadro:    {fieldPublicPrice, fieldNetPrice, fieldMyPrice},
	model.SourceDifarmer: {fieldMyPrice, fieldPublicPrice, fieldNetPrice},
}

var defaultPriority = []priceField{fieldMyPrice, fieldNetPrice, fieldPublicPrice}

// Phrases a portal uses inside an otherwise well-formed payload to say it
// found nothing.
var notFoundPhrases = []string{
	"no encontrado",
	"no se encontro",
	"sin resultados",
	"producto_no_encontrado",
}

// NormalizeResult converts a raw supplier payload into a canonical offer.
// It returns false when the payload carries no usable product: explicit
// not-found or error statuses, not-found message text, or a record with
// neither name nor code.
func NormalizeResult(src model.Source, raw model.RawResult) (model.Offer, bool) {
	if !raw.Found() {
		if raw.Status == model.RawError {
			zap.L().Debug("source returned error payload",
				zap.String("source", src.String()),
				zap.String("message", raw.Message),
			)
		}
		return model.Offer{}, false
	}

	haystack := strings.ToLower(raw.Name + " " + raw.Message)
	for _, phrase := range notFoundPhrases {
		if strings.Contains(haystack, phrase) {
			return model.Offer{}, false
		}
	}

	if strings.TrimSpace(raw.Name) == "" && strings.TrimSpace(raw.Code) == "" {
		return model.Offer{}, false
	}

	priceText := pickPrice(src, raw)

	return model.Offer{
		Name:         strings.TrimSpace(raw.Name),
		Lab:          strings.TrimSpace(raw.Lab),
		Barcode:      strings.TrimSpace(raw.Code),
		PriceText:    priceText,
		PriceNumeric: pricing.ParsePrice(priceText),
		StockText:    strings.TrimSpace(raw.Stock),
		StockNumeric: pricing.ParseStock(raw.Stock),
		Source:       src,
		RequiresRx:   raw.RequiresRx,
	}, true
}

func pickPrice(src model.Source, raw model.RawResult) string {
	priority, ok := pricePriority[src]
	if !ok {
		priority = defaultPriority
	}
	for _, f := range priority {
		var v string
		switch f {
		case fieldMyPrice:
			v = raw.MyPrice
		case fieldNetPrice:
			v = raw.NetPrice
		case fieldPublicPrice:
			v = raw.PublicPrice
		}
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
