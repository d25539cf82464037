package hypergrid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func routedSpace(t *testing.T) *HypergridSpace {
	t.Helper()
	sp := NewSpace(2)
	for _, c := range []GridCoordinate{At(0, 0), At(1, 0), At(0, 1), At(2, 0)} {
		require.NoError(t, sp.RegisterVertex(c))
	}
	return sp
}

func TestBroadcastTargets(t *testing.T) {
	sp := routedSpace(t)
	require.NoError(t, sp.AddEdge(GridEdge{Source: At(0, 0), Target: At(1, 0), Dimension: 0}))
	require.NoError(t, sp.AddEdge(GridEdge{Source: At(0, 0), Target: At(2, 0), Dimension: 0}))
	require.NoError(t, sp.AddEdge(GridEdge{Source: At(0, 0), Target: At(0, 1), Dimension: 1}))
	// Parallel edge to an already-selected target.
	require.NoError(t, sp.AddEdge(GridEdge{Source: At(0, 0), Target: At(1, 0), Dimension: 0, Weight: 2}))

	got := ResolveTargets(sp, At(0, 0), BroadcastPolicy{Dimension: 0})
	require.Equal(t, []GridCoordinate{At(1, 0), At(2, 0)}, got, "dimension filtered, deduped, ordered")

	got = ResolveTargets(sp, At(0, 0), BroadcastPolicy{Dimension: 1})
	require.Equal(t, []GridCoordinate{At(0, 1)}, got)

	require.Empty(t, ResolveTargets(sp, At(1, 0), BroadcastPolicy{Dimension: 0}),
		"no outgoing edges is a terminal outcome")
}

func TestNearestTarget(t *testing.T) {
	sp := routedSpace(t)
	require.NoError(t, sp.AddEdge(GridEdge{Source: At(0, 0), Target: At(2, 0), Dimension: 0}))
	require.NoError(t, sp.AddEdge(GridEdge{Source: At(0, 0), Target: At(1, 0), Dimension: 0}))
	require.NoError(t, sp.AddEdge(GridEdge{Source: At(0, 0), Target: At(0, 1), Dimension: 1}))

	// (1,0) and (0,1) are both at Manhattan distance 1; the lexicographically
	// lowest coordinate wins the tie.
	got := ResolveTargets(sp, At(0, 0), NearestPolicy{})
	require.Equal(t, []GridCoordinate{At(0, 1)}, got)

	// A custom metric flips the outcome.
	axisZero := func(a, b GridCoordinate) float64 {
		d := a.Axis(1) - b.Axis(1)
		if d < 0 {
			d = -d
		}
		return float64(d)
	}
	got = ResolveTargets(sp, At(0, 0), NearestPolicy{Metric: axisZero})
	require.Equal(t, []GridCoordinate{At(1, 0)}, got)

	require.Empty(t, ResolveTargets(sp, At(2, 0), NearestPolicy{}))
}

func TestDimensionalTarget(t *testing.T) {
	sp := routedSpace(t)

	got := ResolveTargets(sp, At(0, 0), DimensionalPolicy{Dimension: 0})
	require.Equal(t, []GridCoordinate{At(1, 0)}, got)

	got = ResolveTargets(sp, At(0, 0), DimensionalPolicy{Dimension: 1})
	require.Equal(t, []GridCoordinate{At(0, 1)}, got)

	// (0,1)+1 on axis 1 has no vertex.
	require.Empty(t, ResolveTargets(sp, At(0, 1), DimensionalPolicy{Dimension: 1}))
	require.Empty(t, ResolveTargets(sp, At(0, 0), DimensionalPolicy{Dimension: 5}))
}

func TestManhattanDistance(t *testing.T) {
	require.Equal(t, 0.0, ManhattanDistance(At(1, 1), At(1, 1)))
	require.Equal(t, 5.0, ManhattanDistance(At(0, 0), At(2, 3)))
	require.Equal(t, 5.0, ManhattanDistance(At(2, 3), At(0, 0)))
}
