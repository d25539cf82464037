package hypergrid

import (
	"context"
	"fmt"

	"github.com/ouroware/hypergrid/pkg/capability"
	"github.com/ouroware/hypergrid/pkg/stream"
)

// TextThought is the thought currency of the mesh: reasoning capabilities
// speak text, so cells do too.
type TextThought = Thought[string]

// ThoughtStream is a stream of text thoughts.
type ThoughtStream = stream.Stream[TextThought]

// GridCell is the per-vertex processing unit wrapping one reasoning
// capability.
type GridCell struct {
	cap capability.Capability
}

func NewGridCell(cap capability.Capability) *GridCell {
	return &GridCell{cap: cap}
}

// Process lazily reprocesses `in` through the wrapped capability. Each
// pulled thought is prompted through Generate; the result is re-tagged
// with `position` as its new origin and a trace id derived from the
// input's. A capability error becomes a failed element carrying the
// original context; it never tears the stream down. Failed inputs pass
// through untouched.
//
// Process pulls `in` only when its own consumer pulls, so backpressure
// propagates through the cell end-to-end.
func (c *GridCell) Process(in ThoughtStream, position GridCoordinate) ThoughtStream {
	return stream.Func[TextThought](func(ctx context.Context) (stream.Element[TextThought], error) {
		elem, err := in.Next(ctx)
		if err != nil {
			return stream.Element[TextThought]{}, err
		}
		if elem.Failed() {
			return elem, nil
		}

		thought := elem.Value()
		text, err := c.cap.Generate(ctx, thought.Payload())
		if err != nil {
			return stream.Fail[TextThought](fmt.Errorf("cell %s: %w", position, err)), nil
		}
		return stream.Ok(thought.Derive(text, position)), nil
	})
}
