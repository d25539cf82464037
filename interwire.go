package hypergrid

import (
	"context"
	"errors"
	"sync"

	"github.com/ouroware/hypergrid/pkg/stream"
)

// StreamConnection is one live interwiring: it forwards the source node's
// output into the target node's inbox, tagging each thought with the edge
// dimension it travels on. A closed connection is dead for good; interwire
// again to get a new one.
type StreamConnection struct {
	id       uint64
	sourceID string
	targetID string
	edge     GridEdge
	target   *OuroborosNode

	lk     sync.Mutex
	closed bool
}

func (sc *StreamConnection) SourceID() string { return sc.sourceID }
func (sc *StreamConnection) TargetID() string { return sc.targetID }
func (sc *StreamConnection) Edge() GridEdge   { return sc.edge }

// Open reports whether the connection still forwards thoughts.
func (sc *StreamConnection) Open() bool {
	sc.lk.Lock()
	defer sc.lk.Unlock()
	return !sc.closed
}

func (sc *StreamConnection) forward(ctx context.Context, thought TextThought) error {
	sc.lk.Lock()
	if sc.closed {
		sc.lk.Unlock()
		return ErrConnectionClosed
	}
	sc.lk.Unlock()

	tagged := thought.WithDimension(sc.edge.Dimension)
	err := sc.target.inbox.Push(ctx, stream.Ok(tagged))
	if errors.Is(err, stream.ErrClosed) {
		return ErrConnectionClosed
	}
	return err
}

func (sc *StreamConnection) close() {
	sc.lk.Lock()
	sc.closed = true
	sc.lk.Unlock()
}
