package cma

import (
	"math"

	"github.com/cwbudde/cmaes/internal/eigen"
	"github.com/cwbudde/cmaes/internal/linalg"
)

// Snapshot is the complete serialized engine state. Restoring a snapshot
// yields an engine that continues the run bit-for-bit, including the random
// generator's position. Derived strategy constants are not stored: they are
// recomputed from Dim and Lambda, which must reproduce the stored Mu and
// Weights exactly.
type Snapshot struct {
	Dim    int `json:"dim"`
	Lambda int `json:"lambda"`
	Mu     int `json:"mu"`

	Mean       []float64 `json:"mean"`
	Sigma      float64   `json:"sigma"`
	Covariance []float64 `json:"covariance"` // row-major Dim x Dim
	PathSigma  []float64 `json:"pathSigma"`
	PathCov    []float64 `json:"pathCov"`
	Weights    []float64 `json:"weights"`

	Generation int `json:"generation"`

	BestGenome []float64 `json:"bestGenome,omitempty"`
	BestValue  float64   `json:"bestValue"`
	HasBest    bool      `json:"hasBest"`

	RNGState []byte `json:"rngState"`
}

// Snapshot captures the engine state. Do not call while an Epoch is in
// flight; the engine is single-owner and the copy is not synchronized.
func (c *CMAES) Snapshot() (*Snapshot, error) {
	rngState, err := c.rng.State()
	if err != nil {
		return nil, err
	}

	s := &Snapshot{
		Dim:        c.params.Dim,
		Lambda:     c.params.Lambda,
		Mu:         c.params.Mu,
		Mean:       c.mean.Components(),
		Sigma:      c.sigma,
		Covariance: c.cov.Matrix().Entries(),
		PathSigma:  c.pathSigma.Components(),
		PathCov:    c.pathCov.Components(),
		Weights:    append([]float64{}, c.params.Weights...),
		Generation: c.generation,
		BestValue:  c.best.Value,
		HasBest:    c.hasBest,
		RNGState:   rngState,
	}
	if c.hasBest {
		s.BestGenome = c.best.Genome.Components()
	}
	return s, nil
}

// Restore reconstructs an engine from a snapshot. Field dimensions are
// validated against each other; any inconsistency or missing required field
// yields a *SnapshotError.
func Restore(s *Snapshot, opts ...Option) (*CMAES, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	params, err := DeriveParameters(s.Dim, s.Lambda)
	if err != nil {
		return nil, err
	}
	// The derivation is a pure function of Dim and Lambda; a stored state
	// that disagrees was produced by different code or corrupted.
	if params.Mu != s.Mu {
		return nil, &SnapshotError{Field: "mu", Reason: "does not match derived value"}
	}
	for i, w := range params.Weights {
		if w != s.Weights[i] {
			return nil, &SnapshotError{Field: "weights", Reason: "do not match derived values"}
		}
	}

	cfg := config{seed: DefaultSeed, solver: eigen.NewSolver()}
	for _, opt := range opts {
		opt(&cfg)
	}

	rows := make([][]float64, s.Dim)
	for i := 0; i < s.Dim; i++ {
		rows[i] = s.Covariance[i*s.Dim : (i+1)*s.Dim]
	}

	rng := NewRNG(cfg.seed)
	if err := rng.SetState(s.RNGState); err != nil {
		return nil, &SnapshotError{Field: "rngState", Reason: err.Error()}
	}

	engine := &CMAES{
		params:     params,
		mean:       linalg.VectorOf(s.Mean...),
		sigma:      s.Sigma,
		cov:        NewCovarianceFrom(linalg.MatrixFromRows(rows...), cfg.solver),
		pathSigma:  linalg.VectorOf(s.PathSigma...),
		pathCov:    linalg.VectorOf(s.PathCov...),
		generation: s.Generation,
		rng:        rng,
		hasBest:    s.HasBest,
	}
	if s.HasBest {
		engine.best = Best{Genome: linalg.VectorOf(s.BestGenome...), Value: s.BestValue}
	}
	return engine, nil
}

func (s *Snapshot) validate() error {
	if s.Dim < 1 {
		return &SnapshotError{Field: "dim", Reason: "must be at least 1"}
	}
	if s.Lambda < 2 {
		return &SnapshotError{Field: "lambda", Reason: "must be at least 2"}
	}
	if len(s.Mean) != s.Dim {
		return &SnapshotError{Field: "mean", Reason: "length does not match dim"}
	}
	if len(s.Covariance) != s.Dim*s.Dim {
		return &SnapshotError{Field: "covariance", Reason: "length does not match dim squared"}
	}
	if len(s.PathSigma) != s.Dim {
		return &SnapshotError{Field: "pathSigma", Reason: "length does not match dim"}
	}
	if len(s.PathCov) != s.Dim {
		return &SnapshotError{Field: "pathCov", Reason: "length does not match dim"}
	}
	if len(s.Weights) != s.Mu {
		return &SnapshotError{Field: "weights", Reason: "length does not match mu"}
	}
	if s.Sigma <= 0 || math.IsNaN(s.Sigma) || math.IsInf(s.Sigma, 0) {
		return &SnapshotError{Field: "sigma", Reason: "must be positive and finite"}
	}
	if s.Generation < 0 {
		return &SnapshotError{Field: "generation", Reason: "must be non-negative"}
	}
	if s.HasBest && len(s.BestGenome) != s.Dim {
		return &SnapshotError{Field: "bestGenome", Reason: "length does not match dim"}
	}
	if len(s.RNGState) == 0 {
		return &SnapshotError{Field: "rngState", Reason: "missing"}
	}
	return nil
}
