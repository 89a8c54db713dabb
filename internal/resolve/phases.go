// Package resolve runs the staged multi-source search for a product query
// and picks the offers worth quoting back to the customer.
package resolve

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/soprim/pricebot/internal/model"
)

// Phase is one stage of the external search. Parallel phases fan out with
// one goroutine per source; sequential phases walk the sources in order.
// Cleanup reaps leaked automation processes after the phase settles.
type Phase struct {
	Name        string         `yaml:"name"`
	Sources     []model.Source `yaml:"sources"`
	Parallel    bool           `yaml:"parallel"`
	Cleanup     bool           `yaml:"cleanup"`
	SettleDelay time.Duration  `yaml:"settle_delay"`
}

// Plan is the ordered list of phases. Every phase always runs: only a
// catalog hit short-circuits the external search, never an earlier phase's
// success. The last phase exists precisely to be quoted even when earlier
// phases already found the product.
type Plan struct {
	Phases []Phase `yaml:"phases"`
}

// DefaultPlan mirrors how the suppliers tolerate being queried: Sufarmed
// and Fanasa are quick and safe to hit concurrently, Nadro throttles
// concurrent sessions and runs alone, Difarmer is slow but always asked for
// a comparison quote.
func DefaultPlan() Plan {
	return Plan{Phases: []Phase{
		{
			Name:        "fast",
			Sources:     []model.Source{model.SourceSufarmed, model.SourceFanasa},
			Parallel:    true,
			Cleanup:     true,
			SettleDelay: 2 * time.Second,
		},
		{
			Name:        "isolated",
			Sources:     []model.Source{model.SourceNadro},
			SettleDelay: time.Second,
		},
		{
			Name:    "last-resort",
			Sources: []model.Source{model.SourceDifarmer},
		},
	}}
}

// LoadPlan reads a phase plan from a YAML file.
func LoadPlan(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, eris.Wrap(err, "resolve: read plan")
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return Plan{}, eris.Wrap(err, "resolve: parse plan")
	}

	if err := plan.Validate(); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

// Validate rejects plans with unnamed or empty phases and duplicate source
// assignments.
func (p Plan) Validate() error {
	if len(p.Phases) == 0 {
		return eris.New("resolve: plan has no phases")
	}

	seen := make(map[model.Source]string)
	for _, phase := range p.Phases {
		if phase.Name == "" {
			return eris.New("resolve: phase without name")
		}
		if len(phase.Sources) == 0 {
			return eris.Errorf("resolve: phase %q has no sources", phase.Name)
		}
		for _, src := range phase.Sources {
			if prev, dup := seen[src]; dup {
				return eris.Errorf("resolve: source %s in both %q and %q", src, prev, phase.Name)
			}
			seen[src] = phase.Name
		}
	}
	return nil
}
