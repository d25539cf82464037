// Package capability holds the narrow contract the mesh consumes reasoning
// backends through, and a prefix-keyed registry dispatching model names to
// adapters. One adapter per backend, one indirection, no inheritance.
package capability

import (
	"context"

	"github.com/ouroware/hypergrid/pkg/stream"
)

// Capability is the whole surface the grid sees of a reasoning backend.
// Provider adapters implement it; their internals are none of our business.
type Capability interface {
	// Generate runs one prompt to completion.
	Generate(ctx context.Context, prompt string) (string, error)

	// Stream runs one prompt and yields text fragments lazily.
	Stream(ctx context.Context, prompt string) (stream.Stream[string], error)
}

// GenerateFunc adapts a plain function into a Capability. Its Stream
// implementation yields the whole completion as a single lazy fragment.
type GenerateFunc func(ctx context.Context, prompt string) (string, error)

func (f GenerateFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func (f GenerateFunc) Stream(_ context.Context, prompt string) (stream.Stream[string], error) {
	done := false
	return stream.Func[string](func(ctx context.Context) (stream.Element[string], error) {
		if done {
			return stream.Element[string]{}, stream.ErrExhausted
		}
		done = true
		text, err := f(ctx, prompt)
		if err != nil {
			return stream.Fail[string](err), nil
		}
		return stream.Ok(text), nil
	}), nil
}
