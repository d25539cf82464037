package stream

import (
	"context"
	"errors"
	"sync"
)

// Confluence is a named point where several streams converge for joint
// consumption. It only remembers its sources, in registration order; every
// Emit or CollectFirst starts from that list with no state in between.
type Confluence[T any] struct {
	lk      sync.Mutex
	sources []Stream[T]
}

// NewConfluence builds a confluence over `sources`, kept in order.
func NewConfluence[T any](sources ...Stream[T]) *Confluence[T] {
	return &Confluence[T]{sources: sources}
}

// Register appends one more source.
func (c *Confluence[T]) Register(src Stream[T]) {
	c.lk.Lock()
	defer c.lk.Unlock()
	c.sources = append(c.sources, src)
}

// Sources is the number of registered sources.
func (c *Confluence[T]) Sources() int {
	c.lk.Lock()
	defer c.lk.Unlock()
	return len(c.sources)
}

// Emit merges every registered source in first-arrival order. Cancelling
// `ctx` releases all upstream pulls.
func (c *Confluence[T]) Emit(ctx context.Context) Stream[T] {
	c.lk.Lock()
	snapshot := make([]Stream[T], len(c.sources))
	copy(snapshot, c.sources)
	c.lk.Unlock()
	return Merge(ctx, snapshot...)
}

// FirstBatch is the result of CollectFirst. Partial is set when
// cancellation cut the collection short.
type FirstBatch[T any] struct {
	Elements []Element[T]
	Partial  bool
}

// CollectFirst pulls one element per source, in registration order, and
// returns the ordered batch. A source failing contributes a failed element;
// an already-exhausted source contributes nothing. On cancellation the
// batch gathered so far is returned, flagged partial, rather than an error.
func (c *Confluence[T]) CollectFirst(ctx context.Context) FirstBatch[T] {
	c.lk.Lock()
	snapshot := make([]Stream[T], len(c.sources))
	copy(snapshot, c.sources)
	c.lk.Unlock()

	batch := FirstBatch[T]{}
	for _, src := range snapshot {
		elem, err := src.Next(ctx)
		switch {
		case err == nil:
			batch.Elements = append(batch.Elements, elem)
		case errors.Is(err, ErrExhausted):
			// nothing to contribute.
		case ctx.Err() != nil:
			batch.Partial = true
			return batch
		default:
			batch.Elements = append(batch.Elements, Fail[T](err))
		}
	}
	return batch
}
