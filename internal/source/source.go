// Package source defines the per-supplier adapter contract, the registry
// that holds the configured adapters, and the normalization of raw supplier
// payloads into canonical offers.
package source

import (
	"context"

	"github.com/soprim/pricebot/internal/model"
)

// Adapter is the single operation an external supplier exposes. Search
// never returns a Go error: login failures, navigation failures and parse
// failures all come back as a RawResult with status "error" so one broken
// supplier cannot abort a staged lookup. The caller imposes the wall-clock
// timeout through ctx; adapters are not required to self-cancel.
type Adapter interface {
	Source() model.Source
	Search(ctx context.Context, query model.ProductQuery) model.RawResult
}
