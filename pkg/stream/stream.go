package stream

import (
	"context"
	"errors"
)

var (
	// ErrExhausted marks the normal end of a stream.
	ErrExhausted = errors.New("stream: exhausted")

	// ErrClosed is returned when pushing into a closed Pipe.
	ErrClosed = errors.New("stream: closed")
)

// Element is one success-or-failure item of a stream. Failed elements ride
// inside an otherwise-live stream; they never terminate it.
type Element[T any] struct {
	value T
	err   error
}

// Ok wraps a successful payload.
func Ok[T any](value T) Element[T] {
	return Element[T]{value: value}
}

// Fail wraps a failure.
func Fail[T any](err error) Element[T] {
	return Element[T]{err: err}
}

func (e Element[T]) Value() T     { return e.value }
func (e Element[T]) Err() error   { return e.err }
func (e Element[T]) Failed() bool { return e.err != nil }

// Stream is a lazy, pull-driven, possibly infinite sequence of elements.
//
// `Next` blocks until an element is available, the stream is exhausted
// (ErrExhausted), or `ctx` is cancelled. A stream has a single consumer:
// `Next` MUST NOT be called concurrently.
type Stream[T any] interface {
	Next(ctx context.Context) (Element[T], error)
}

// Func adapts a pull function into a Stream.
type Func[T any] func(ctx context.Context) (Element[T], error)

func (f Func[T]) Next(ctx context.Context) (Element[T], error) {
	return f(ctx)
}

// Of returns a finite stream of successful elements.
func Of[T any](values ...T) Stream[T] {
	elems := make([]Element[T], len(values))
	for i, v := range values {
		elems[i] = Ok(v)
	}
	return OfElements(elems...)
}

// OfElements returns a finite stream replaying `elems` in order.
func OfElements[T any](elems ...Element[T]) Stream[T] {
	i := 0
	return Func[T](func(ctx context.Context) (Element[T], error) {
		if err := ctx.Err(); err != nil {
			return Element[T]{}, err
		}
		if i >= len(elems) {
			return Element[T]{}, ErrExhausted
		}
		elem := elems[i]
		i++
		return elem, nil
	})
}

// FromChan exposes a channel as a stream; a closed channel exhausts it.
func FromChan[T any](ch <-chan Element[T]) Stream[T] {
	return Func[T](func(ctx context.Context) (Element[T], error) {
		select {
		case <-ctx.Done():
			return Element[T]{}, ctx.Err()
		case elem, ok := <-ch:
			if !ok {
				return Element[T]{}, ErrExhausted
			}
			return elem, nil
		}
	})
}

// Collect pulls `src` to exhaustion and returns every element seen.
func Collect[T any](ctx context.Context, src Stream[T]) ([]Element[T], error) {
	var out []Element[T]
	for {
		elem, err := src.Next(ctx)
		if errors.Is(err, ErrExhausted) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, elem)
	}
}

// Drain pulls `src` to exhaustion, discarding elements, and reports how
// many were seen.
func Drain[T any](ctx context.Context, src Stream[T]) (int, error) {
	n := 0
	for {
		_, err := src.Next(ctx)
		if errors.Is(err, ErrExhausted) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}

// Values pulls `src` to exhaustion and returns the successful payloads only.
func Values[T any](ctx context.Context, src Stream[T]) ([]T, error) {
	elems, err := Collect(ctx, src)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(elems))
	for _, elem := range elems {
		if !elem.Failed() {
			out = append(out, elem.Value())
		}
	}
	return out, nil
}
