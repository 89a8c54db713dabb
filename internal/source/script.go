package source

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/soprim/pricebot/internal/model"
)

// ScriptAdapter drives one supplier portal through an automation helper
// executable. The helper receives the prepared query as its last argument
// and prints a single JSON result object on stdout.
type ScriptAdapter struct {
	source model.Source
	runner *ProcessRunner
	bin    string
	args   []string
}

// NewScriptAdapter creates an adapter for the given source backed by the
// helper at bin. Extra args are passed before the query.
func NewScriptAdapter(src model.Source, runner *ProcessRunner, bin string, args ...string) *ScriptAdapter {
	return &ScriptAdapter{source: src, runner: runner, bin: bin, args: args}
}

func (a *ScriptAdapter) Source() model.Source {
	return a.source
}

// Search runs the helper and decodes its payload. Every failure mode comes
// back as an error-status result, never a panic or a Go error, so a broken
// portal degrades to "nothing from this source".
func (a *ScriptAdapter) Search(ctx context.Context, query model.ProductQuery) model.RawResult {
	prepared := PrepareQuery(a.source, query)
	args := append(append([]string(nil), a.args...), prepared)

	out, err := a.runner.Run(ctx, a.bin, args...)
	if err != nil {
		zap.L().Warn("source helper failed",
			zap.String("source", a.source.String()),
			zap.String("query", prepared),
			zap.Error(err),
		)
		return model.RawResult{Status: model.RawError, Message: err.Error()}
	}

	var raw model.RawResult
	if err := json.Unmarshal(out, &raw); err != nil {
		zap.L().Warn("source helper returned malformed payload",
			zap.String("source", a.source.String()),
			zap.Error(err),
		)
		return model.RawResult{Status: model.RawError, Message: "malformed payload: " + err.Error()}
	}

	if raw.Status == "" {
		raw.Status = model.RawNotFound
	}
	return raw
}
