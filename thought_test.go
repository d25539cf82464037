package hypergrid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThoughtDerive(t *testing.T) {
	root := NewThought("seed", At(0, 0, 0))
	require.NotEmpty(t, root.TraceID())

	child := root.Derive("grown", At(1, 0, 0))
	require.Equal(t, "grown", child.Payload())
	require.True(t, child.Origin().Equal(At(1, 0, 0)))
	require.True(t, strings.HasPrefix(child.TraceID(), root.TraceID()+"."),
		"child trace extends the parent's")
	require.NotEqual(t, root.TraceID(), child.TraceID())

	grandchild := child.Derive("older", At(2, 0, 0))
	require.True(t, strings.HasPrefix(grandchild.TraceID(), root.TraceID()+"."),
		"the whole chain shares one root")
}

func TestThoughtImmutability(t *testing.T) {
	base := NewThought("x", At(0, 0)).WithMeta("k", "v")

	tagged := base.WithDimension(2)
	require.Equal(t, 2, tagged.Dimension())
	require.True(t, tagged.Tagged())
	require.Equal(t, 0, base.Dimension())
	require.False(t, base.Tagged(), "a fresh thought carries no travel dimension")

	extended := base.WithMeta("k2", "v2")
	_, has := base.Meta("k2")
	require.False(t, has, "WithMeta must not leak into the receiver")
	v, has := extended.Meta("k")
	require.True(t, has)
	require.Equal(t, "v", v)

	// Mutating a Metadata copy does not write through.
	snap := extended.Metadata()
	snap["k"] = "tampered"
	v, _ = extended.Meta("k")
	require.Equal(t, "v", v)
}

func TestThoughtDeriveKeepsDimensionAndMeta(t *testing.T) {
	base := NewThought("x", At(0, 0)).WithDimension(1).WithMeta("who", "me")
	child := base.Derive("y", At(0, 1))

	require.Equal(t, 1, child.Dimension())
	require.True(t, child.Tagged())
	v, has := child.Meta("who")
	require.True(t, has)
	require.Equal(t, "me", v)
}
