package hypergrid

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// GridCoordinate is an immutable N-dimensional integer position.
// Its rank is the number of axes; all coordinates registered in one
// HypergridSpace share the same rank.
type GridCoordinate struct {
	axes []int
}

// At builds a coordinate from its axis values.
func At(axes ...int) GridCoordinate {
	owned := make([]int, len(axes))
	copy(owned, axes)
	return GridCoordinate{axes: owned}
}

// Rank is the number of dimensions of the coordinate.
func (c GridCoordinate) Rank() int {
	return len(c.axes)
}

// Axis returns the position along dimension `dim`.
func (c GridCoordinate) Axis(dim int) int {
	return c.axes[dim]
}

// Axes returns a copy of the axis values.
func (c GridCoordinate) Axes() []int {
	out := make([]int, len(c.axes))
	copy(out, c.axes)
	return out
}

// Project returns a new coordinate equal to `c` except at index `dim`.
// Projecting twice at the same dimension keeps only the last projection.
func (c GridCoordinate) Project(dim, value int) (GridCoordinate, error) {
	if dim < 0 || dim >= len(c.axes) {
		return GridCoordinate{}, fmt.Errorf("%w: %d >= %d", ErrOutOfRangeDimension, dim, len(c.axes))
	}
	projected := make([]int, len(c.axes))
	copy(projected, c.axes)
	projected[dim] = value
	return GridCoordinate{axes: projected}, nil
}

// Slice enumerates, lazily, the coordinates equal to `c` everywhere but at
// `dim`, which varies over [from, to]. An inverted range yields an empty
// sequence, not an error.
func (c GridCoordinate) Slice(dim, from, to int) (iter.Seq[GridCoordinate], error) {
	if dim < 0 || dim >= len(c.axes) {
		return nil, fmt.Errorf("%w: %d >= %d", ErrOutOfRangeDimension, dim, len(c.axes))
	}
	return func(yield func(GridCoordinate) bool) {
		for v := from; v <= to; v++ {
			next, _ := c.Project(dim, v)
			if !yield(next) {
				return
			}
		}
	}, nil
}

// Equal is component-wise equality.
func (c GridCoordinate) Equal(other GridCoordinate) bool {
	if len(c.axes) != len(other.axes) {
		return false
	}
	for i, v := range c.axes {
		if other.axes[i] != v {
			return false
		}
	}
	return true
}

// Less orders coordinates lexicographically, axis by axis. A shorter
// coordinate sorts before a longer one sharing its prefix.
func (c GridCoordinate) Less(other GridCoordinate) bool {
	for i, v := range c.axes {
		if i >= len(other.axes) {
			return false
		}
		if v != other.axes[i] {
			return v < other.axes[i]
		}
	}
	return len(c.axes) < len(other.axes)
}

// Key is a stable map key for the coordinate.
func (c GridCoordinate) Key() string {
	var sb strings.Builder
	for i, v := range c.axes {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(v))
	}
	return sb.String()
}

func (c GridCoordinate) String() string {
	return "(" + c.Key() + ")"
}
