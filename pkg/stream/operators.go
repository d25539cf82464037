package stream

import (
	"context"
	"errors"
	"sync"
)

// Map transforms the successful payloads of `src`. Failed elements pass
// through untouched, so Map composes: Map(Map(s, f), g) behaves exactly
// like Map(s, g after f).
func Map[T, U any](src Stream[T], f func(T) U) Stream[U] {
	return Func[U](func(ctx context.Context) (Element[U], error) {
		elem, err := src.Next(ctx)
		if err != nil {
			return Element[U]{}, err
		}
		if elem.Failed() {
			return Fail[U](elem.Err()), nil
		}
		return Ok(f(elem.Value())), nil
	})
}

// Filter drops the successful elements of `src` failing `pred`. Failed
// elements always pass through, whatever the predicate says.
func Filter[T any](src Stream[T], pred func(T) bool) Stream[T] {
	return Func[T](func(ctx context.Context) (Element[T], error) {
		for {
			elem, err := src.Next(ctx)
			if err != nil {
				return Element[T]{}, err
			}
			if elem.Failed() || pred(elem.Value()) {
				return elem, nil
			}
		}
	})
}

// Split partitions `src` in two: successful elements matching `pred` (and
// every failed element) land on the first branch, the rest on the second.
// Each branch preserves the relative order of the elements routed to it and
// every source element reaches exactly one branch.
//
// The two branches share one puller: whichever branch asks first drives the
// source, parking elements meant for its sibling.
func Split[T any](src Stream[T], pred func(T) bool) (Stream[T], Stream[T]) {
	d := &demux[T]{
		src:  src,
		pred: pred,
		sem:  make(chan struct{}, 1),
	}
	d.sem <- struct{}{}
	return d.branch(0), d.branch(1)
}

type demux[T any] struct {
	src  Stream[T]
	pred func(T) bool

	// sem serialises access to src while staying cancellable,
	// unlike a plain mutex.
	sem    chan struct{}
	queues [2][]Element[T]
	final  error
}

func (d *demux[T]) branch(idx int) Stream[T] {
	return Func[T](func(ctx context.Context) (Element[T], error) {
		select {
		case <-ctx.Done():
			return Element[T]{}, ctx.Err()
		case <-d.sem:
		}
		defer func() { d.sem <- struct{}{} }()

		for {
			if len(d.queues[idx]) > 0 {
				elem := d.queues[idx][0]
				d.queues[idx] = d.queues[idx][1:]
				return elem, nil
			}
			if d.final != nil {
				return Element[T]{}, d.final
			}

			elem, err := d.src.Next(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return Element[T]{}, err
				}
				d.final = err
				return Element[T]{}, err
			}

			target := 1
			if elem.Failed() || d.pred(elem.Value()) {
				target = 0
			}
			if target == idx {
				return elem, nil
			}
			d.queues[target] = append(d.queues[target], elem)
		}
	})
}

// Merge interleaves `sources` in first-arrival order. The merged stream
// completes once every source completes; a source whose Next returns a
// non-exhaustion error contributes one failed element and is then treated
// as exhausted, without aborting its siblings.
//
// `ctx` bounds the lifetime of the whole merge: cancelling it releases
// every pump awaiting an upstream source.
func Merge[T any](ctx context.Context, sources ...Stream[T]) Stream[T] {
	out := make(chan Element[T])
	var wg sync.WaitGroup

	wg.Add(len(sources))
	for _, src := range sources {
		go func(src Stream[T]) {
			defer wg.Done()
			for {
				elem, err := src.Next(ctx)
				if errors.Is(err, ErrExhausted) {
					return
				}
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					elem = Fail[T](err)
					select {
					case out <- elem:
					case <-ctx.Done():
					}
					return
				}
				select {
				case out <- elem:
				case <-ctx.Done():
					return
				}
			}
		}(src)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return FromChan(out)
}
