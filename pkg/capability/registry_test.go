package capability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ouroware/hypergrid/pkg/stream"
)

func echo(tag string) Builder {
	return func(model string) (Capability, error) {
		return GenerateFunc(func(_ context.Context, prompt string) (string, error) {
			return tag + "(" + model + "): " + prompt, nil
		}), nil
	}
}

func TestRegistry_LongestPrefixWins(t *testing.T) {
	reg := NewRegistry()
	reg.Register("mock", echo("generic"))
	reg.Register("mock-pro", echo("pro"))

	cap1, err := reg.Resolve("mock-mini")
	require.NoError(t, err)
	out, err := cap1.Generate(context.Background(), "hi")
	require.NoError(t, err)
	require.Equal(t, "generic(mock-mini): hi", out)

	cap2, err := reg.Resolve("mock-pro-32k")
	require.NoError(t, err)
	out, err = cap2.Generate(context.Background(), "hi")
	require.NoError(t, err)
	require.Equal(t, "pro(mock-pro-32k): hi", out, "the more specific prefix must win")
}

func TestRegistry_NoAdapter(t *testing.T) {
	reg := NewRegistry()
	reg.Register("mock", echo("generic"))

	_, err := reg.Resolve("other-model")
	require.ErrorIs(t, err, ErrNoAdapter)
}

func TestRegistry_Deregister(t *testing.T) {
	reg := NewRegistry()
	reg.Register("mock", echo("generic"))
	require.True(t, reg.Registered("mock"))

	require.True(t, reg.Deregister("mock"))
	require.False(t, reg.Deregister("mock"))
	require.False(t, reg.Registered("mock"))

	_, err := reg.Resolve("mock-mini")
	require.ErrorIs(t, err, ErrNoAdapter)
}

func TestRegistry_PrefixesAreOrdered(t *testing.T) {
	reg := NewRegistry()
	reg.Register("zeta", echo("z"))
	reg.Register("alpha", echo("a"))
	reg.Register("alpine", echo("ai"))

	require.Equal(t, []string{"alpha", "alpine", "zeta"}, reg.Prefixes())
}

func TestGenerateFunc_StreamYieldsOneFragment(t *testing.T) {
	ctx := context.Background()
	cap := GenerateFunc(func(_ context.Context, prompt string) (string, error) {
		return "echo " + prompt, nil
	})

	frags, err := cap.Stream(ctx, "ping")
	require.NoError(t, err)
	got, err := stream.Values(ctx, frags)
	require.NoError(t, err)
	require.Equal(t, []string{"echo ping"}, got)
}

func TestGenerateFunc_StreamCarriesFailure(t *testing.T) {
	ctx := context.Background()
	wantErr := errors.New("provider down")
	cap := GenerateFunc(func(context.Context, string) (string, error) {
		return "", wantErr
	})

	frags, err := cap.Stream(ctx, "ping")
	require.NoError(t, err)
	elems, err := stream.Collect(ctx, frags)
	require.NoError(t, err)
	require.Len(t, elems, 1)
	require.ErrorIs(t, elems[0].Err(), wantErr)
}
