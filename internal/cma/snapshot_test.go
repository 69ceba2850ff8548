package cma

import (
	"encoding/json"
	"testing"

	"github.com/cwbudde/cmaes/internal/linalg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func advancedEngine(t *testing.T, generations int) *CMAES {
	t.Helper()

	engine, err := New(linalg.VectorOf(3, -2, 1), 0.8, 8, WithSeed(2024))
	require.NoError(t, err)
	for g := 0; g < generations; g++ {
		_, err = engine.Epoch(sphereBatch)
		require.NoError(t, err)
	}
	return engine
}

func TestSnapshotRoundTrip(t *testing.T) {
	engine := advancedEngine(t, 25)

	snap, err := engine.Snapshot()
	require.NoError(t, err)

	restored, err := Restore(snap)
	require.NoError(t, err)

	assert.Equal(t, engine.Mean().Components(), restored.Mean().Components())
	assert.Equal(t, engine.Sigma(), restored.Sigma())
	assert.Equal(t, engine.Generation(), restored.Generation())
	assert.Equal(t, engine.cov.Matrix().Entries(), restored.cov.Matrix().Entries())
	assert.Equal(t, engine.pathSigma.Components(), restored.pathSigma.Components())
	assert.Equal(t, engine.pathCov.Components(), restored.pathCov.Components())

	eb, eok := engine.Best()
	rb, rok := restored.Best()
	require.Equal(t, eok, rok)
	assert.Equal(t, eb.Value, rb.Value)
	assert.Equal(t, eb.Genome.Components(), rb.Genome.Components())

	// Derived constants are recomputed, not deserialized, and must agree.
	assert.Equal(t, engine.Params(), restored.Params())
}

func TestRestoredEngineContinuesIdentically(t *testing.T) {
	engine := advancedEngine(t, 10)

	snap, err := engine.Snapshot()
	require.NoError(t, err)
	restored, err := Restore(snap)
	require.NoError(t, err)

	// Both copies include the RNG position, so they must stay in lockstep.
	for g := 0; g < 20; g++ {
		origBest, err := engine.Epoch(sphereBatch)
		require.NoError(t, err)
		contBest, err := restored.Epoch(sphereBatch)
		require.NoError(t, err)

		require.Equal(t, origBest.Value, contBest.Value, "generation %d diverged", g)
		require.Equal(t, engine.Sigma(), restored.Sigma())
		require.Equal(t, engine.Mean().Components(), restored.Mean().Components())
	}
}

func TestSnapshotSurvivesJSON(t *testing.T) {
	engine := advancedEngine(t, 5)

	snap, err := engine.Snapshot()
	require.NoError(t, err)

	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))

	restored, err := Restore(&decoded)
	require.NoError(t, err)
	assert.Equal(t, engine.Sigma(), restored.Sigma())
	assert.Equal(t, engine.Mean().Components(), restored.Mean().Components())
}

func TestRestoreRejectsInconsistentSnapshot(t *testing.T) {
	engine := advancedEngine(t, 3)
	valid, err := engine.Snapshot()
	require.NoError(t, err)

	cases := map[string]func(*Snapshot){
		"mean length":       func(s *Snapshot) { s.Mean = s.Mean[:2] },
		"covariance length": func(s *Snapshot) { s.Covariance = s.Covariance[:4] },
		"pathSigma length":  func(s *Snapshot) { s.PathSigma = nil },
		"pathCov length":    func(s *Snapshot) { s.PathCov = s.PathCov[:1] },
		"weights length":    func(s *Snapshot) { s.Weights = s.Weights[:1] },
		"sigma":             func(s *Snapshot) { s.Sigma = -1 },
		"generation":        func(s *Snapshot) { s.Generation = -4 },
		"rng state":         func(s *Snapshot) { s.RNGState = nil },
		"best genome":       func(s *Snapshot) { s.BestGenome = s.BestGenome[:1] },
		"mu":                func(s *Snapshot) { s.Mu = s.Mu + 1; s.Weights = append(s.Weights, 0.1) },
	}

	for name, corrupt := range cases {
		data, err := json.Marshal(valid)
		require.NoError(t, err)
		var snap Snapshot
		require.NoError(t, json.Unmarshal(data, &snap))

		corrupt(&snap)
		_, err = Restore(&snap)
		var snapErr *SnapshotError
		assert.ErrorAs(t, err, &snapErr, "case %q must be rejected", name)
	}
}
