package hypergrid

import "fmt"

// GridEdge is a directed, dimension-labeled connection between two
// vertices of a HypergridSpace.
type GridEdge struct {
	Source    GridCoordinate
	Target    GridCoordinate
	Dimension int
	Weight    float64
}

// Validate checks the edge dimension against the rank of both endpoints.
func (e GridEdge) Validate() error {
	if e.Dimension < 0 || e.Dimension >= e.Source.Rank() || e.Dimension >= e.Target.Rank() {
		return fmt.Errorf(
			"%w: dimension %d, ranks %d and %d",
			ErrIncompatibleRank, e.Dimension, e.Source.Rank(), e.Target.Rank(),
		)
	}
	return nil
}

func (e GridEdge) String() string {
	return fmt.Sprintf("%s -[%d]-> %s", e.Source, e.Dimension, e.Target)
}
