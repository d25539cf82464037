package stream

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestMap_ComposesAndSkipsFailures(t *testing.T) {
	ctx := context.Background()

	mixed := []Element[int]{Ok(1), Fail[int](errBoom), Ok(2), Ok(3)}

	double := func(v int) int { return v * 2 }
	render := func(v int) string { return strconv.Itoa(v) }

	composed, err := Collect(ctx, Map(Map(OfElements(mixed...), double), render))
	require.NoError(t, err)

	fused, err := Collect(ctx, Map(OfElements(mixed...), func(v int) string {
		return render(double(v))
	}))
	require.NoError(t, err)

	require.Equal(t, len(fused), len(composed), "both pipelines must see every element")
	for i := range composed {
		require.Equal(t, fused[i].Failed(), composed[i].Failed())
		require.Equal(t, fused[i].Value(), composed[i].Value())
	}
	require.True(t, composed[1].Failed(), "the failed element must pass through untouched")
	require.ErrorIs(t, composed[1].Err(), errBoom)
}

func TestFilter_NeverDropsFailures(t *testing.T) {
	ctx := context.Background()

	src := OfElements(Ok(1), Fail[int](errBoom), Ok(2), Fail[int](errBoom), Ok(3))
	kept, err := Collect(ctx, Filter(src, func(v int) bool { return v > 10 }))
	require.NoError(t, err)

	require.Len(t, kept, 2, "every success fails the predicate, only failures remain")
	for _, elem := range kept {
		require.True(t, elem.Failed())
	}
}

func TestSplit_PreservesPerBranchOrder(t *testing.T) {
	ctx := context.Background()

	evens, odds := Split(Of(1, 2, 3, 4, 5, 6), func(v int) bool { return v%2 == 0 })

	gotEvens, err := Values(ctx, evens)
	require.NoError(t, err)
	gotOdds, err := Values(ctx, odds)
	require.NoError(t, err)

	require.Equal(t, []int{2, 4, 6}, gotEvens)
	require.Equal(t, []int{1, 3, 5}, gotOdds)
}

func TestSplit_InterleavedConsumers(t *testing.T) {
	ctx := context.Background()

	yes, no := Split(Of(1, 2, 3, 4), func(v int) bool { return v <= 2 })

	// Pull the branches turn by turn: the demux must park elements meant
	// for the idle branch without losing or duplicating any.
	e1, err := no.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, e1.Value())

	e2, err := yes.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, e2.Value())

	e3, err := yes.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, e3.Value())

	e4, err := no.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, e4.Value())

	_, err = yes.Next(ctx)
	require.ErrorIs(t, err, ErrExhausted)
	_, err = no.Next(ctx)
	require.ErrorIs(t, err, ErrExhausted)
}

func TestMerge_NoSourceCompletesImmediately(t *testing.T) {
	ctx := context.Background()
	elems, err := Collect(ctx, Merge[int](ctx))
	require.NoError(t, err)
	require.Empty(t, elems)
}

func TestMerge_SingleSourceKeepsOrder(t *testing.T) {
	ctx := context.Background()
	got, err := Values(ctx, Merge(ctx, Of(1, 2, 3, 4)))
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 4}, got)
}

func TestMerge_FailingSourceDoesNotAbortSiblings(t *testing.T) {
	ctx := context.Background()

	broken := Func[int](func(context.Context) (Element[int], error) {
		return Element[int]{}, errBoom
	})

	elems, err := Collect(ctx, Merge(ctx, broken, Of(1, 2, 3)))
	require.NoError(t, err)

	var failures int
	var values []int
	for _, elem := range elems {
		if elem.Failed() {
			failures++
			require.ErrorIs(t, elem.Err(), errBoom)
		} else {
			values = append(values, elem.Value())
		}
	}
	require.Equal(t, 1, failures, "a failing source must contribute exactly one failed element")
	require.ElementsMatch(t, []int{1, 2, 3}, values, "the healthy source must run to completion")
}

func TestMerge_CancellationReleasesPumps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	stuck := Func[int](func(ctx context.Context) (Element[int], error) {
		<-ctx.Done()
		return Element[int]{}, ctx.Err()
	})

	merged := Merge(ctx, stuck, stuck)
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := merged.Next(context.Background())
		require.ErrorIs(t, err, ErrExhausted)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("merge did not unwind after cancellation")
	}
}
