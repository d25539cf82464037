package hypergrid

import (
	"fmt"
	"sync"
)

// HypergridSpace is the vertex and edge registry of a mesh. The topology may
// contain arbitrary cycles: edges live in one flat arena and vertices are
// looked up through a coordinate-keyed index, so no vertex ever holds a
// direct reference to another.
//
// The sets are append-mostly. Concurrent registrations at the same coordinate
// resolve atomically: exactly one caller wins.
type HypergridSpace struct {
	rank int

	lk       sync.RWMutex
	vertices map[string]GridCoordinate
	edges    []GridEdge
	outgoing map[string][]int
	incoming map[string][]int
}

// NewSpace creates an empty space whose vertices all have `rank` dimensions.
func NewSpace(rank int) *HypergridSpace {
	return &HypergridSpace{
		rank:     rank,
		vertices: make(map[string]GridCoordinate),
		outgoing: make(map[string][]int),
		incoming: make(map[string][]int),
	}
}

// Rank is the dimension count shared by every vertex of the space.
func (sp *HypergridSpace) Rank() int {
	return sp.rank
}

// RegisterVertex claims a coordinate. It fails with ErrCoordinateOccupied
// if a vertex is already registered there.
func (sp *HypergridSpace) RegisterVertex(coord GridCoordinate) error {
	if coord.Rank() != sp.rank {
		return fmt.Errorf("%w: got %d, space has %d", ErrRankMismatch, coord.Rank(), sp.rank)
	}
	sp.lk.Lock()
	defer sp.lk.Unlock()
	key := coord.Key()
	if _, has := sp.vertices[key]; has {
		return fmt.Errorf("%w: %s", ErrCoordinateOccupied, coord)
	}
	sp.vertices[key] = coord
	return nil
}

// RemoveVertex frees a coordinate and drops every edge touching it.
// Removing an absent vertex is a no-op.
func (sp *HypergridSpace) RemoveVertex(coord GridCoordinate) {
	sp.lk.Lock()
	defer sp.lk.Unlock()
	key := coord.Key()
	if _, has := sp.vertices[key]; !has {
		return
	}
	delete(sp.vertices, key)

	kept := sp.edges[:0]
	for _, e := range sp.edges {
		if e.Source.Key() == key || e.Target.Key() == key {
			continue
		}
		kept = append(kept, e)
	}
	sp.edges = kept
	sp.reindex()
}

// AddEdge appends a directed edge. Both endpoints must already be
// registered and the edge dimension must fit the space rank.
func (sp *HypergridSpace) AddEdge(e GridEdge) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.Dimension >= sp.rank {
		return fmt.Errorf("%w: dimension %d, space rank %d", ErrIncompatibleRank, e.Dimension, sp.rank)
	}
	sp.lk.Lock()
	defer sp.lk.Unlock()
	srcKey, dstKey := e.Source.Key(), e.Target.Key()
	if _, has := sp.vertices[srcKey]; !has {
		return fmt.Errorf("%w: %s", ErrUnknownVertex, e.Source)
	}
	if _, has := sp.vertices[dstKey]; !has {
		return fmt.Errorf("%w: %s", ErrUnknownVertex, e.Target)
	}
	idx := len(sp.edges)
	sp.edges = append(sp.edges, e)
	sp.outgoing[srcKey] = append(sp.outgoing[srcKey], idx)
	sp.incoming[dstKey] = append(sp.incoming[dstKey], idx)
	return nil
}

// HasVertex reports whether a vertex is registered at `coord`.
func (sp *HypergridSpace) HasVertex(coord GridCoordinate) bool {
	sp.lk.RLock()
	defer sp.lk.RUnlock()
	_, has := sp.vertices[coord.Key()]
	return has
}

// Vertices returns a snapshot of all registered coordinates.
func (sp *HypergridSpace) Vertices() []GridCoordinate {
	sp.lk.RLock()
	defer sp.lk.RUnlock()
	out := make([]GridCoordinate, 0, len(sp.vertices))
	for _, v := range sp.vertices {
		out = append(out, v)
	}
	return out
}

// EdgesFrom returns a snapshot of the edges whose source is `coord`.
func (sp *HypergridSpace) EdgesFrom(coord GridCoordinate) []GridEdge {
	sp.lk.RLock()
	defer sp.lk.RUnlock()
	return sp.pick(sp.outgoing[coord.Key()])
}

// EdgesInto returns a snapshot of the edges whose target is `coord`.
func (sp *HypergridSpace) EdgesInto(coord GridCoordinate) []GridEdge {
	sp.lk.RLock()
	defer sp.lk.RUnlock()
	return sp.pick(sp.incoming[coord.Key()])
}

// EdgeCount is the number of edges in the arena.
func (sp *HypergridSpace) EdgeCount() int {
	sp.lk.RLock()
	defer sp.lk.RUnlock()
	return len(sp.edges)
}

func (sp *HypergridSpace) pick(indices []int) []GridEdge {
	out := make([]GridEdge, 0, len(indices))
	for _, i := range indices {
		out = append(out, sp.edges[i])
	}
	return out
}

// reindex rebuilds the adjacency maps after edges moved in the arena.
// Callers must hold the write lock.
func (sp *HypergridSpace) reindex() {
	sp.outgoing = make(map[string][]int, len(sp.vertices))
	sp.incoming = make(map[string][]int, len(sp.vertices))
	for i, e := range sp.edges {
		sp.outgoing[e.Source.Key()] = append(sp.outgoing[e.Source.Key()], i)
		sp.incoming[e.Target.Key()] = append(sp.incoming[e.Target.Key()], i)
	}
}
