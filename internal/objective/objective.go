// Package objective provides benchmark objective functions for the optimizer.
// Each evaluator is a pure function of the genome with its own acceptance
// threshold; evaluators implement cma.Evaluator and double as batch closures.
package objective

import (
	"fmt"
	"sort"

	"github.com/cwbudde/cmaes/internal/cma"
	"github.com/cwbudde/cmaes/internal/linalg"
)

// Evaluator is a named single-genome objective with a solution-acceptance
// threshold.
type Evaluator interface {
	cma.Evaluator

	// Name identifies the objective for CLI flags, job configs and
	// checkpoints.
	Name() string
}

// Batch adapts a single-genome evaluator to the engine's batch form.
// Candidates are independent, so callers needing parallelism can supply
// their own batch closure instead.
func Batch(e Evaluator) cma.BatchEvaluator {
	return func(candidates []linalg.Vector) ([]float64, error) {
		values := make([]float64, len(candidates))
		for i, genome := range candidates {
			values[i] = e.Objective(genome, nil)
		}
		return values, nil
	}
}

var registry = map[string]func() Evaluator{
	"sphere":    func() Evaluator { return NewSphere() },
	"rastrigin": func() Evaluator { return NewRastrigin() },
	"ackley":    func() Evaluator { return NewAckley() },
}

// ByName returns the evaluator registered under name.
func ByName(name string) (Evaluator, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown objective: %q (available: %v)", name, Names())
	}
	return factory(), nil
}

// Names lists the registered objective names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
