package hypergrid

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/go-metrics"

	"github.com/ouroware/hypergrid/pkg/stream"
)

// OuroborosNode is one mesh participant: a vertex with an id, a grid cell
// and a bounded inbox. A pump goroutine feeds the inbox through the cell
// and fans the output into whatever connections are open; a heartbeat
// goroutine keeps the health tracker warm while the pump sits idle.
type OuroborosNode struct {
	id     string
	coord  GridCoordinate
	cell   *GridCell
	policy FlowPolicy
	inbox  *stream.Pipe[TextThought]
	health *healthTracker

	lk   sync.Mutex
	taps []chan stream.Element[TextThought]

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	pumpDone chan struct{}
}

func newNode(id string, coord GridCoordinate, cell *GridCell, policy FlowPolicy, inboxDepth int) *OuroborosNode {
	ctx, cancel := context.WithCancel(context.Background())
	return &OuroborosNode{
		id:       id,
		coord:    coord,
		cell:     cell,
		policy:   policy,
		inbox:    stream.NewPipe[TextThought](inboxDepth),
		health:   newHealthTracker(),
		ctx:      ctx,
		cancel:   cancel,
		pumpDone: make(chan struct{}),
	}
}

func (n *OuroborosNode) ID() string                 { return n.id }
func (n *OuroborosNode) Coordinate() GridCoordinate { return n.coord }

// start spins up the pump and heartbeat goroutines.
func (n *OuroborosNode) start(mo *MeshOrchestrator) {
	n.wg.Add(2)
	go n.pump(mo)
	go n.heartbeatLoop(mo.config.heartbeatInterval)
}

// stop cancels the node's goroutines and waits for them.
func (n *OuroborosNode) stop() {
	n.cancel()
	n.wg.Wait()
}

func (n *OuroborosNode) heartbeatLoop(interval time.Duration) {
	defer n.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n.health.heartbeat()
		case <-n.ctx.Done():
			return
		}
	}
}

// pump drives the cell over the inbox until the inbox is exhausted or the
// node is stopped. It is the node's only consumer, so pulling here is what
// lets upstream producers push: backpressure flows inbox -> cell -> pump.
func (n *OuroborosNode) pump(mo *MeshOrchestrator) {
	defer n.wg.Done()
	defer close(n.pumpDone)
	out := n.cell.Process(n.inbox, n.coord)
	for {
		elem, err := out.Next(n.ctx)
		if errors.Is(err, stream.ErrExhausted) {
			return
		}
		if err != nil {
			return
		}

		n.health.observe(elem.Failed(), mo.config.errorWindow)
		if elem.Failed() {
			mo.config.msink.IncrCounterWithLabels(
				MetricThoughtFailedCount, 1.0,
				append([]metrics.Label{LabelNodeID.M(n.id)}, mo.config.metricLabels...),
			)
			mo.logger.Debug("cell produced a failed element",
				LabelNodeID.L(n.id), LabelError.L(elem.Err()))
		} else {
			mo.config.msink.IncrCounterWithLabels(
				MetricThoughtProcessedCount, 1.0,
				append([]metrics.Label{LabelNodeID.M(n.id)}, mo.config.metricLabels...),
			)
			n.forward(mo, elem.Value())
		}
		n.deliverTaps(mo, elem)
	}
}

// forward routes one freshly processed thought to the next vertices and
// pushes it over the matching open connections. An empty target set is a
// valid terminal outcome: the thought simply stops here.
func (n *OuroborosNode) forward(mo *MeshOrchestrator, thought TextThought) {
	policy := n.policy
	if bp, ok := policy.(BroadcastPolicy); ok && thought.Tagged() {
		// Broadcast follows the dimension the thought currently travels on.
		// Untagged thoughts keep the policy's configured dimension.
		bp.Dimension = thought.Dimension()
		policy = bp
	}

	targets := ResolveTargets(mo.space, n.coord, policy)
	if len(targets) == 0 {
		return
	}

	conns := mo.connectionsFrom(n.id)
	for _, target := range targets {
		for _, conn := range conns {
			if !conn.Edge().Target.Equal(target) {
				continue
			}
			if err := conn.forward(n.ctx, thought); err != nil {
				if errors.Is(err, ErrConnectionClosed) {
					continue
				}
				return
			}
			mo.config.msink.IncrCounterWithLabels(
				MetricThoughtForwardedCount, 1.0,
				append([]metrics.Label{
					LabelNodeID.M(n.id),
					LabelPeerName.M(conn.TargetID()),
				}, mo.config.metricLabels...),
			)
			mo.logger.Debug("thought forwarded",
				LabelNodeID.L(n.id),
				LabelPeerName.L(conn.TargetID()),
				LabelTraceID.L(thought.TraceID()),
				LabelDimension.L(conn.Edge().Dimension),
			)
			// One delivery per target: parallel interwirings to the same
			// vertex must not duplicate the thought.
			break
		}
	}
}

// addTap registers an observer channel receiving a copy of every element
// the pump emits. Taps are best-effort: a slow observer loses elements
// rather than stalling the mesh.
func (n *OuroborosNode) addTap(buffer int) (<-chan stream.Element[TextThought], func()) {
	ch := make(chan stream.Element[TextThought], buffer)
	n.lk.Lock()
	n.taps = append(n.taps, ch)
	n.lk.Unlock()

	remove := func() {
		n.lk.Lock()
		defer n.lk.Unlock()
		for i, tap := range n.taps {
			if tap == ch {
				n.taps = append(n.taps[:i], n.taps[i+1:]...)
				close(tap)
				return
			}
		}
	}
	return ch, remove
}

func (n *OuroborosNode) deliverTaps(mo *MeshOrchestrator, elem stream.Element[TextThought]) {
	n.lk.Lock()
	defer n.lk.Unlock()
	for _, tap := range n.taps {
		select {
		case tap <- elem:
		default:
			mo.config.msink.IncrCounterWithLabels(
				MetricTapDroppedCount, 1.0,
				append([]metrics.Label{LabelNodeID.M(n.id)}, mo.config.metricLabels...),
			)
		}
	}
}

// closeTaps closes every observer channel; called after the pump stopped.
func (n *OuroborosNode) closeTaps() {
	n.lk.Lock()
	defer n.lk.Unlock()
	for _, tap := range n.taps {
		close(tap)
	}
	n.taps = nil
}
