package hypergrid

import (
	"maps"
	"time"

	"github.com/google/uuid"
)

// Thought is one immutable unit of reasoning payload flowing through the
// grid. Thoughts are derived, never mutated: every `With*` helper and
// `Derive` return a fresh value and leave the receiver untouched.
type Thought[T any] struct {
	payload   T
	origin    GridCoordinate
	dimension int
	tagged    bool
	emittedAt time.Time
	trace     string
	meta      map[string]string
}

// NewThought mints a thought at `origin` with a fresh root trace id.
func NewThought[T any](payload T, origin GridCoordinate) Thought[T] {
	return Thought[T]{
		payload:   payload,
		origin:    origin,
		emittedAt: time.Now(),
		trace:     uuid.NewString(),
	}
}

func (t Thought[T]) Payload() T             { return t.payload }
func (t Thought[T]) Origin() GridCoordinate { return t.origin }
func (t Thought[T]) Dimension() int         { return t.dimension }
func (t Thought[T]) EmittedAt() time.Time   { return t.emittedAt }
func (t Thought[T]) TraceID() string        { return t.trace }

// Tagged reports whether the thought has been tagged with the dimension it
// travels on. Freshly minted thoughts are untagged until a connection
// forwards them.
func (t Thought[T]) Tagged() bool { return t.tagged }

// Meta reads one metadata entry.
func (t Thought[T]) Meta(key string) (string, bool) {
	v, ok := t.meta[key]
	return v, ok
}

// Metadata returns a copy of the metadata map.
func (t Thought[T]) Metadata() map[string]string {
	if t.meta == nil {
		return nil
	}
	return maps.Clone(t.meta)
}

// Derive builds the thought produced by reprocessing `t` at `origin`.
// The trace id of the child extends the parent's, so a whole propagation
// chain shares one root.
func (t Thought[T]) Derive(payload T, origin GridCoordinate) Thought[T] {
	return Thought[T]{
		payload:   payload,
		origin:    origin,
		dimension: t.dimension,
		tagged:    t.tagged,
		emittedAt: time.Now(),
		trace:     t.trace + "." + uuid.NewString()[:8],
		meta:      t.meta,
	}
}

// WithDimension tags the thought with the dimension it currently travels
// along. Interwiring applies this when forwarding over an edge.
func (t Thought[T]) WithDimension(dim int) Thought[T] {
	t.dimension = dim
	t.tagged = true
	return t
}

// WithMeta attaches one metadata entry.
func (t Thought[T]) WithMeta(key, value string) Thought[T] {
	meta := make(map[string]string, len(t.meta)+1)
	maps.Copy(meta, t.meta)
	meta[key] = value
	t.meta = meta
	return t
}
