package hypergrid

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ouroware/hypergrid/pkg/capability"
)

func echoCap(t *testing.T) capability.Capability {
	t.Helper()
	return capability.GenerateFunc(func(_ context.Context, prompt string) (string, error) {
		return strings.ToUpper(prompt), nil
	})
}

func newTestMesh(t *testing.T, opts ...Option) *MeshOrchestrator {
	t.Helper()
	mo, err := Create(append([]Option{
		WithHeartbeatTimeout(time.Second),
		WithDrainTimeout(time.Second),
	}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mo.Shutdown() })
	return mo
}

func TestCreateRequiresTimeouts(t *testing.T) {
	_, err := Create(WithDrainTimeout(time.Second))
	require.ErrorIs(t, err, ErrConfigRequired)

	_, err = Create(WithHeartbeatTimeout(time.Second))
	require.ErrorIs(t, err, ErrConfigRequired)

	mo, err := Create(WithHeartbeatTimeout(time.Second), WithDrainTimeout(time.Second))
	require.NoError(t, err)
	require.NoError(t, mo.Shutdown())
}

func TestRegisterValidation(t *testing.T) {
	mo := newTestMesh(t)

	_, err := mo.Register("no spaces allowed", At(0, 0, 0), echoCap(t))
	require.ErrorIs(t, err, ErrNodeIDInvalid)

	_, err = mo.Register("", At(0, 0, 0), echoCap(t))
	require.ErrorIs(t, err, ErrNodeIDInvalid)

	_, err = mo.Register("alpha", At(0, 0), echoCap(t))
	require.ErrorIs(t, err, ErrRankMismatch)

	_, err = mo.Register("alpha", At(0, 0, 0), echoCap(t))
	require.NoError(t, err)

	_, err = mo.Register("alpha", At(1, 0, 0), echoCap(t))
	require.ErrorIs(t, err, ErrDuplicateNodeID)

	_, err = mo.Register("beta", At(0, 0, 0), echoCap(t))
	require.ErrorIs(t, err, ErrCoordinateOccupied)
}

func TestInterwireValidation(t *testing.T) {
	mo := newTestMesh(t)

	_, err := mo.Register("alpha", At(0, 0, 0), echoCap(t))
	require.NoError(t, err)

	_, err = mo.Interwire("alpha", "ghost", 0, 1)
	require.ErrorIs(t, err, ErrUnknownNode)
	require.Empty(t, mo.Connections(), "a failed interwire leaves nothing behind")
	require.Zero(t, mo.Space().EdgeCount())

	_, err = mo.Register("beta", At(1, 0, 0), echoCap(t))
	require.NoError(t, err)

	_, err = mo.Interwire("alpha", "beta", 9, 1)
	require.ErrorIs(t, err, ErrIncompatibleRank)
	require.Empty(t, mo.Connections())

	conn, err := mo.Interwire("alpha", "beta", 0, 1)
	require.NoError(t, err)
	require.Equal(t, "alpha", conn.SourceID())
	require.Equal(t, "beta", conn.TargetID())
	require.True(t, conn.Open())
	require.Equal(t, 1, mo.Space().EdgeCount())
}

// A thought injected at one corner of a chain is reprocessed at every hop
// and each hop extends the trace of the one before.
func TestBroadcastPropagation(t *testing.T) {
	mo := newTestMesh(t)

	_, err := mo.Register("a", At(0, 0, 0), echoCap(t))
	require.NoError(t, err)
	_, err = mo.Register("b", At(1, 0, 0), echoCap(t))
	require.NoError(t, err)
	_, err = mo.Register("c", At(2, 0, 0), echoCap(t))
	require.NoError(t, err)

	_, err = mo.Interwire("a", "b", 0, 1)
	require.NoError(t, err)
	_, err = mo.Interwire("b", "c", 0, 1)
	require.NoError(t, err)

	tap, detach, err := mo.Tap("c", 16)
	require.NoError(t, err)
	defer detach()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	seed, err := mo.Inject(ctx, "a", "ping")
	require.NoError(t, err)

	elem, err := tap.Next(ctx)
	require.NoError(t, err)
	require.False(t, elem.Failed())

	got := elem.Value()
	require.Equal(t, "PING", got.Payload())
	require.True(t, got.Origin().Equal(At(2, 0, 0)), "the tap sees c's reprocessed output")
	require.True(t, strings.HasPrefix(got.TraceID(), seed.TraceID()+"."),
		"every hop extends the seed trace")
}

func TestBroadcastFansOut(t *testing.T) {
	mo := newTestMesh(t)

	for _, n := range []struct {
		id    string
		coord GridCoordinate
	}{
		{"hub", At(0, 0, 0)},
		{"east", At(1, 0, 0)},
		{"north", At(0, 1, 0)},
	} {
		_, err := mo.Register(n.id, n.coord, echoCap(t))
		require.NoError(t, err)
	}
	// Both spokes hang off dimension 0, so one broadcast reaches both.
	_, err := mo.Interwire("hub", "east", 0, 1)
	require.NoError(t, err)
	_, err = mo.Interwire("hub", "north", 0, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	eastTap, detachEast, err := mo.Tap("east", 16)
	require.NoError(t, err)
	defer detachEast()
	northTap, detachNorth, err := mo.Tap("north", 16)
	require.NoError(t, err)
	defer detachNorth()

	_, err = mo.Inject(ctx, "hub", "fan")
	require.NoError(t, err)

	elem, err := eastTap.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, "FAN", elem.Value().Payload())

	elem, err = northTap.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, "FAN", elem.Value().Payload())
}

// An injected thought carries no travel dimension yet, so broadcast must
// route it along the policy's configured dimension, not dimension zero.
func TestBroadcastUsesConfiguredDimensionForInjected(t *testing.T) {
	mo := newTestMesh(t, WithDefaultPolicy(BroadcastPolicy{Dimension: 1}))

	_, err := mo.Register("hub", At(0, 0, 0), echoCap(t))
	require.NoError(t, err)
	_, err = mo.Register("up", At(0, 1, 0), echoCap(t))
	require.NoError(t, err)
	_, err = mo.Interwire("hub", "up", 1, 1)
	require.NoError(t, err)

	tap, detach, err := mo.Tap("up", 16)
	require.NoError(t, err)
	defer detach()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = mo.Inject(ctx, "hub", "climb")
	require.NoError(t, err)

	elem, err := tap.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, "CLIMB", elem.Value().Payload())
	require.Equal(t, 1, elem.Value().Dimension(), "the thought travels on the configured dimension")
	require.True(t, elem.Value().Tagged())
}

// Parallel interwirings to the same vertex must not duplicate a broadcast.
func TestDuplicateInterwiringDeliversOnce(t *testing.T) {
	mo := newTestMesh(t)

	_, err := mo.Register("a", At(0, 0, 0), echoCap(t))
	require.NoError(t, err)
	_, err = mo.Register("b", At(1, 0, 0), echoCap(t))
	require.NoError(t, err)
	_, err = mo.Interwire("a", "b", 0, 1)
	require.NoError(t, err)
	_, err = mo.Interwire("a", "b", 0, 2)
	require.NoError(t, err)
	require.Len(t, mo.Connections(), 2)

	tap, detach, err := mo.Tap("b", 16)
	require.NoError(t, err)
	defer detach()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = mo.Inject(ctx, "a", "once")
	require.NoError(t, err)

	elem, err := tap.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, "ONCE", elem.Value().Payload())

	quiet, cancelQuiet := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancelQuiet()
	_, err = tap.Next(quiet)
	require.ErrorIs(t, err, context.DeadlineExceeded, "no second copy arrives")
}

func TestConcurrentShutdownNode(t *testing.T) {
	mo := newTestMesh(t)

	_, err := mo.Register("alpha", At(0, 0, 0), echoCap(t))
	require.NoError(t, err)

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() { results <- mo.ShutdownNode("alpha") }()
	}

	succeeded := 0
	for i := 0; i < 2; i++ {
		if err := <-results; err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, ErrUnknownNode)
		}
	}
	require.Equal(t, 1, succeeded, "exactly one caller performs the drain")
	require.Empty(t, mo.GetHealthReport().Nodes)
}

func TestInjectUnknownNode(t *testing.T) {
	mo := newTestMesh(t)

	_, err := mo.Inject(context.Background(), "ghost", "x")
	require.ErrorIs(t, err, ErrUnknownNode)

	_, _, err = mo.Tap("ghost", 1)
	require.ErrorIs(t, err, ErrUnknownNode)
}

func TestShutdownNode(t *testing.T) {
	mo := newTestMesh(t)

	_, err := mo.Register("alpha", At(0, 0, 0), echoCap(t))
	require.NoError(t, err)
	_, err = mo.Register("beta", At(1, 0, 0), echoCap(t))
	require.NoError(t, err)
	_, err = mo.Interwire("alpha", "beta", 0, 1)
	require.NoError(t, err)
	_, err = mo.Interwire("beta", "alpha", 0, 1)
	require.NoError(t, err)

	require.NoError(t, mo.ShutdownNode("beta"))

	require.Empty(t, mo.Connections(), "connections in both directions close with the node")
	require.False(t, mo.Space().HasVertex(At(1, 0, 0)))
	report := mo.GetHealthReport()
	require.Len(t, report.Nodes, 1)
	require.Equal(t, "alpha", report.Nodes[0].NodeID)

	require.ErrorIs(t, mo.ShutdownNode("beta"), ErrUnknownNode)

	// The freed coordinate can be claimed again.
	_, err = mo.Register("beta2", At(1, 0, 0), echoCap(t))
	require.NoError(t, err)
}

func TestShutdownDiscardsStuckThoughts(t *testing.T) {
	mo := newTestMesh(t, WithDrainTimeout(100*time.Millisecond))

	stuck := capability.GenerateFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	node, err := mo.Register("stuck", At(0, 0, 0), stuck)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i := 0; i < 3; i++ {
		_, err = mo.Inject(ctx, "stuck", "doomed")
		require.NoError(t, err)
	}

	start := time.Now()
	require.NoError(t, mo.ShutdownNode("stuck"))
	require.Less(t, time.Since(start), time.Second, "drain is bounded by the timeout")
	require.NotZero(t, node.health.snapshot("stuck", At(0, 0, 0)).Dropped)
}

func TestShutdownIsIdempotent(t *testing.T) {
	mo := newTestMesh(t)
	_, err := mo.Register("alpha", At(0, 0, 0), echoCap(t))
	require.NoError(t, err)

	require.NoError(t, mo.Shutdown())
	require.NoError(t, mo.Shutdown())

	_, err = mo.Register("late", At(1, 0, 0), echoCap(t))
	require.ErrorIs(t, err, ErrMeshClosed)
	_, err = mo.Interwire("a", "b", 0, 1)
	require.ErrorIs(t, err, ErrMeshClosed)
}

func TestMonitorFlagsDegradedNode(t *testing.T) {
	mo := newTestMesh(t,
		WithMonitorInterval(20*time.Millisecond),
		WithErrorRate(0.5, time.Minute),
	)

	failing := capability.GenerateFunc(func(_ context.Context, _ string) (string, error) {
		return "", context.DeadlineExceeded
	})
	_, err := mo.Register("flaky", At(0, 0, 0), failing)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i := 0; i < 4; i++ {
		_, err = mo.Inject(ctx, "flaky", "x")
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		report := mo.GetHealthReport()
		return len(report.Nodes) == 1 && report.Nodes[0].Status == Degraded
	}, 2*time.Second, 20*time.Millisecond)
}
