package stream

import (
	"context"
	"sync"
)

// Pipe is a bounded, channel-backed stream with a push side. It is the
// mailbox primitive of the mesh: producers block once the buffer is full,
// so pull-based backpressure propagates end-to-end.
type Pipe[T any] struct {
	ch      chan Element[T]
	closeCh chan struct{}
	once    sync.Once
}

// NewPipe allocates a pipe buffering up to `buffer` elements.
func NewPipe[T any](buffer int) *Pipe[T] {
	return &Pipe[T]{
		ch:      make(chan Element[T], buffer),
		closeCh: make(chan struct{}),
	}
}

// Push delivers one element, blocking while the buffer is full.
func (p *Pipe[T]) Push(ctx context.Context, elem Element[T]) error {
	select {
	case <-p.closeCh:
		return ErrClosed
	default:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.closeCh:
		return ErrClosed
	case p.ch <- elem:
		return nil
	}
}

// Close stops the push side. Buffered elements stay readable; once they
// are consumed the pipe is exhausted. Closing twice is a no-op.
func (p *Pipe[T]) Close() {
	p.once.Do(func() {
		close(p.closeCh)
	})
}

// Len is the number of buffered, not yet consumed elements.
func (p *Pipe[T]) Len() int {
	return len(p.ch)
}

// Flush closes the pipe and discards whatever is still buffered,
// returning how many elements were thrown away.
func (p *Pipe[T]) Flush() int {
	p.Close()
	dropped := 0
	for {
		select {
		case <-p.ch:
			dropped++
		default:
			return dropped
		}
	}
}

func (p *Pipe[T]) Next(ctx context.Context) (Element[T], error) {
	// Drain buffered elements before honoring close.
	select {
	case elem := <-p.ch:
		return elem, nil
	default:
	}
	select {
	case <-ctx.Done():
		return Element[T]{}, ctx.Err()
	case elem := <-p.ch:
		return elem, nil
	case <-p.closeCh:
		select {
		case elem := <-p.ch:
			return elem, nil
		default:
			return Element[T]{}, ErrExhausted
		}
	}
}
