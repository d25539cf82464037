package hypergrid

// DistanceMetric scores how far apart two coordinates are. Routing only
// compares scores, so any non-negative measure works.
type DistanceMetric func(a, b GridCoordinate) float64

// ManhattanDistance is the stock metric: the sum of absolute axis deltas.
func ManhattanDistance(a, b GridCoordinate) float64 {
	var sum float64
	for i := 0; i < a.Rank() && i < b.Rank(); i++ {
		d := a.Axis(i) - b.Axis(i)
		if d < 0 {
			d = -d
		}
		sum += float64(d)
	}
	return sum
}

// FlowPolicy decides which vertices a thought flows to next. The three
// variants below are the whole closed set.
type FlowPolicy interface {
	isFlowPolicy()
}

// BroadcastPolicy fans a thought out to every vertex reachable over an
// edge labeled with the thought's current dimension.
type BroadcastPolicy struct {
	Dimension int
}

// NearestPolicy routes to the adjacent vertex minimizing the caller's
// metric. Equidistant candidates tie-break on the lexicographically
// lowest coordinate.
type NearestPolicy struct {
	Metric DistanceMetric
}

// DimensionalPolicy routes to the single vertex one step along a named
// dimension.
type DimensionalPolicy struct {
	Dimension int
}

func (BroadcastPolicy) isFlowPolicy()   {}
func (NearestPolicy) isFlowPolicy()     {}
func (DimensionalPolicy) isFlowPolicy() {}
