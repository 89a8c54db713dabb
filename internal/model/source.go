package model

// Source identifies where an offer came from: the internal catalog or one of
// the external supplier sites.
type Source string

const (
	// SourceCatalog is the internally-stocked price list ("Base Interna").
	SourceCatalog Source = "Base Interna"
	// SourceSufarmed is the login-gated supplier with same-day delivery.
	SourceSufarmed Source = "Sufarmed"
	// SourceFanasa is a wholesale distributor queried in the fast phase.
	SourceFanasa Source = "Fanasa"
	// SourceNadro is queried alone; its site misbehaves under concurrent access.
	SourceNadro Source = "Nadro"
	// SourceDifarmer is always queried last for a comparison quote.
	SourceDifarmer Source = "Difarmer"
)

// ExternalSources lists every supplier the orchestrator may dispatch to,
// in default phase order.
func ExternalSources() []Source {
	return []Source{SourceSufarmed, SourceFanasa, SourceNadro, SourceDifarmer}
}

// Code returns the two-letter origin code used in customer-facing replies.
func (s Source) Code() string {
	switch s {
	case SourceCatalog:
		return "BI"
	case SourceSufarmed:
		return "SF"
	case SourceFanasa:
		return "FN"
	case SourceNadro:
		return "ND"
	case SourceDifarmer:
		return "DF"
	default:
		return "XX"
	}
}

func (s Source) String() string { return string(s) }
