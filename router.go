package hypergrid

import "sort"

// ResolveTargets resolves where a thought sitting at `from` flows next
// under `policy`. It is pure and read-only over the space; an empty result
// is a valid terminal outcome, not an error.
func ResolveTargets(sp *HypergridSpace, from GridCoordinate, policy FlowPolicy) []GridCoordinate {
	switch p := policy.(type) {
	case BroadcastPolicy:
		return broadcastTargets(sp, from, p.Dimension)
	case NearestPolicy:
		return nearestTarget(sp, from, p.Metric)
	case DimensionalPolicy:
		return dimensionalTarget(sp, from, p.Dimension)
	default:
		return nil
	}
}

func broadcastTargets(sp *HypergridSpace, from GridCoordinate, dim int) []GridCoordinate {
	seen := make(map[string]struct{})
	var out []GridCoordinate
	for _, e := range sp.EdgesFrom(from) {
		if e.Dimension != dim {
			continue
		}
		key := e.Target.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e.Target)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func nearestTarget(sp *HypergridSpace, from GridCoordinate, metric DistanceMetric) []GridCoordinate {
	if metric == nil {
		metric = ManhattanDistance
	}
	var best GridCoordinate
	bestDist := 0.0
	found := false
	seen := make(map[string]struct{})
	for _, e := range sp.EdgesFrom(from) {
		key := e.Target.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		d := metric(from, e.Target)
		switch {
		case !found, d < bestDist:
			best, bestDist, found = e.Target, d, true
		case d == bestDist && e.Target.Less(best):
			// Equidistant: lexicographically lowest coordinate wins.
			best = e.Target
		}
	}
	if !found {
		return nil
	}
	return []GridCoordinate{best}
}

func dimensionalTarget(sp *HypergridSpace, from GridCoordinate, dim int) []GridCoordinate {
	if dim < 0 || dim >= from.Rank() {
		return nil
	}
	step, _ := from.Project(dim, from.Axis(dim)+1)
	if !sp.HasVertex(step) {
		return nil
	}
	return []GridCoordinate{step}
}
