package hypergrid

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-metrics"

	"github.com/ouroware/hypergrid/pkg/capability"
	"github.com/ouroware/hypergrid/pkg/stream"
)

const MaxNodeIDLength = 128

var invalidNodeID = regexp.MustCompile(`[^A-Za-z0-9\-\.]+`)

// ValidateNodeID restricts ids to alphanum, dashes and dots, all encoded
// in a single byte.
func ValidateNodeID(id string) bool {
	return id != "" && !invalidNodeID.MatchString(id) && len(id) <= MaxNodeIDLength
}

// MeshOrchestrator is the lifecycle root of one mesh: it registers nodes,
// interwires them, monitors their health and tears them down.
type MeshOrchestrator struct {
	config config
	logger *slog.Logger
	space  *HypergridSpace
	peers  *PeerRegistry

	lk       sync.Mutex
	nodes    map[string]*OuroborosNode
	stopping map[string]struct{}
	conns    map[uint64]*StreamConnection
	nextConn uint64

	// 2-phase close:
	// phase 1: shutdown notification, graceful node drains.
	// phase 2: drop, all resources are freed.
	shutdown   bool
	shutdownCh chan struct{}
	dropCh     chan struct{}
	wg         sync.WaitGroup
}

// Create builds an orchestrator. Heartbeat and drain timeouts carry no
// default: omitting either fails with ErrConfigRequired.
func Create(opts ...Option) (*MeshOrchestrator, error) {
	mo := &MeshOrchestrator{
		nodes:      make(map[string]*OuroborosNode),
		stopping:   make(map[string]struct{}),
		conns:      make(map[uint64]*StreamConnection),
		shutdownCh: make(chan struct{}),
		dropCh:     make(chan struct{}),
	}

	mo.config = config{
		rank:               3,
		policy:             BroadcastPolicy{},
		errorWindow:        30 * time.Second,
		errorRateThreshold: 0.5,
		inboxDepth:         64,
	}

	for _, opt := range opts {
		if err := opt(&mo.config); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCfg, err)
		}
	}

	if mo.config.heartbeatTimeout <= 0 || mo.config.drainTimeout <= 0 {
		return nil, ErrConfigRequired
	}
	if mo.config.heartbeatInterval <= 0 {
		mo.config.heartbeatInterval = mo.config.heartbeatTimeout / 3
	}
	if mo.config.monitorInterval <= 0 {
		mo.config.monitorInterval = mo.config.heartbeatTimeout / 2
	}

	if mo.config.logHandler != nil {
		mo.logger = slog.New(mo.config.logHandler)
	} else {
		mo.logger = slog.Default()
	}
	if mo.config.msink == nil {
		mo.config.msink = metrics.Default()
	}
	if mo.config.peers == nil {
		mo.config.peers = NewPeerRegistry(nil)
	}

	mo.space = NewSpace(mo.config.rank)
	mo.peers = mo.config.peers

	mo.wg.Add(1)
	go mo.monitor()

	return mo, nil
}

// Space exposes the topology for read-only routing decisions.
func (mo *MeshOrchestrator) Space() *HypergridSpace {
	return mo.space
}

// Peers is the registry this mesh was constructed around.
func (mo *MeshOrchestrator) Peers() *PeerRegistry {
	return mo.peers
}

// Register adds a node hosting `cap` at `coord`. Exactly one of two
// concurrent calls for the same coordinate wins.
func (mo *MeshOrchestrator) Register(id string, coord GridCoordinate, cap capability.Capability) (*OuroborosNode, error) {
	if !ValidateNodeID(id) {
		return nil, ErrNodeIDInvalid
	}

	mo.lk.Lock()
	defer mo.lk.Unlock()
	if mo.shutdown {
		return nil, ErrMeshClosed
	}
	if _, has := mo.nodes[id]; has {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateNodeID, id)
	}
	if err := mo.space.RegisterVertex(coord); err != nil {
		return nil, err
	}

	node := newNode(id, coord, NewGridCell(cap), mo.config.policy, mo.config.inboxDepth)
	mo.nodes[id] = node
	node.start(mo)

	mo.config.msink.IncrCounterWithLabels(
		MetricNodeRegisteredCount, 1.0,
		append([]metrics.Label{LabelNodeID.M(id)}, mo.config.metricLabels...),
	)
	mo.logger.Info("node registered", LabelNodeID.L(id), LabelCoordinate.L(coord.String()))
	return node, nil
}

// Interwire connects `sourceID` to `targetID` along `dimension`, creating
// the grid edge and the live StreamConnection forwarding over it.
func (mo *MeshOrchestrator) Interwire(sourceID, targetID string, dimension int, weight float64) (*StreamConnection, error) {
	mo.lk.Lock()
	defer mo.lk.Unlock()
	if mo.shutdown {
		return nil, ErrMeshClosed
	}

	src, has := mo.nodes[sourceID]
	if !has {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, sourceID)
	}
	dst, has := mo.nodes[targetID]
	if !has {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, targetID)
	}

	edge := GridEdge{
		Source:    src.coord,
		Target:    dst.coord,
		Dimension: dimension,
		Weight:    weight,
	}
	if err := mo.space.AddEdge(edge); err != nil {
		return nil, err
	}

	mo.nextConn++
	conn := &StreamConnection{
		id:       mo.nextConn,
		sourceID: sourceID,
		targetID: targetID,
		edge:     edge,
		target:   dst,
	}
	mo.conns[conn.id] = conn

	mo.config.msink.IncrCounterWithLabels(
		MetricConnEstablishedCount, 1.0,
		append([]metrics.Label{
			LabelNodeID.M(sourceID),
			LabelPeerName.M(targetID),
		}, mo.config.metricLabels...),
	)
	mo.logger.Info("nodes interwired",
		LabelNodeID.L(sourceID), LabelPeerName.L(targetID), LabelDimension.L(dimension))
	return conn, nil
}

// Inject emits a fresh thought at a node's vertex, as if the node had just
// thought it. It blocks once the node's inbox is full.
func (mo *MeshOrchestrator) Inject(ctx context.Context, id, payload string) (TextThought, error) {
	mo.lk.Lock()
	node, has := mo.nodes[id]
	mo.lk.Unlock()
	if !has {
		return TextThought{}, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}

	thought := NewThought(payload, node.coord)
	if err := node.inbox.Push(ctx, stream.Ok(thought)); err != nil {
		return TextThought{}, err
	}
	return thought, nil
}

// Tap observes a node's output stream. The returned cancel func detaches
// the observer; a slow observer loses elements rather than stalling the
// pump.
func (mo *MeshOrchestrator) Tap(id string, buffer int) (ThoughtStream, func(), error) {
	mo.lk.Lock()
	node, has := mo.nodes[id]
	mo.lk.Unlock()
	if !has {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	ch, remove := node.addTap(buffer)
	return stream.FromChan(ch), remove, nil
}

// connectionsFrom snapshots the open connections whose source is `id`.
func (mo *MeshOrchestrator) connectionsFrom(id string) []*StreamConnection {
	mo.lk.Lock()
	defer mo.lk.Unlock()
	var out []*StreamConnection
	for _, conn := range mo.conns {
		if conn.sourceID == id {
			out = append(out, conn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Connections snapshots every open connection of the mesh.
func (mo *MeshOrchestrator) Connections() []*StreamConnection {
	mo.lk.Lock()
	defer mo.lk.Unlock()
	out := make([]*StreamConnection, 0, len(mo.conns))
	for _, conn := range mo.conns {
		out = append(out, conn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// HealthReport aggregates the last-reported state of the whole mesh.
type HealthReport struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Nodes       []HealthSnapshot `json:"nodes"`
	Connections int              `json:"connections"`
}

// GetHealthReport assembles the report from node snapshots only: it never
// calls into a node synchronously, so one stalled node cannot block it.
func (mo *MeshOrchestrator) GetHealthReport() HealthReport {
	mo.lk.Lock()
	nodes := make([]*OuroborosNode, 0, len(mo.nodes))
	for _, node := range mo.nodes {
		nodes = append(nodes, node)
	}
	conns := len(mo.conns)
	mo.lk.Unlock()

	report := HealthReport{
		GeneratedAt: time.Now(),
		Connections: conns,
	}
	for _, node := range nodes {
		report.Nodes = append(report.Nodes, node.health.snapshot(node.id, node.coord))
	}
	sort.Slice(report.Nodes, func(i, j int) bool {
		return report.Nodes[i].NodeID < report.Nodes[j].NodeID
	})
	return report
}

// ShutdownNode tears one node down: every connection touching it (both
// directions) closes, in-flight thoughts get a best-effort drain bounded
// by the drain timeout, whatever remains is discarded and counted as
// dropped, and the node is deregistered for good.
func (mo *MeshOrchestrator) ShutdownNode(id string) error {
	mo.lk.Lock()
	node, has := mo.nodes[id]
	if !has {
		mo.lk.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	if _, busy := mo.stopping[id]; busy {
		// Another caller already drains this node; it is as good as gone.
		mo.lk.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	mo.stopping[id] = struct{}{}
	for connID, conn := range mo.conns {
		if conn.sourceID == id || conn.targetID == id {
			conn.close()
			delete(mo.conns, connID)
			mo.config.msink.IncrCounterWithLabels(
				MetricConnClosedCount, 1.0,
				append([]metrics.Label{
					LabelNodeID.M(conn.sourceID),
					LabelPeerName.M(conn.targetID),
				}, mo.config.metricLabels...),
			)
		}
	}
	mo.lk.Unlock()

	start := time.Now()
	dropped := mo.drainNode(node)
	if dropped > 0 {
		node.health.drop(uint64(dropped))
		mo.config.msink.IncrCounterWithLabels(
			MetricThoughtDroppedCount, float32(dropped),
			append([]metrics.Label{LabelNodeID.M(id)}, mo.config.metricLabels...),
		)
	}
	node.closeTaps()

	mo.lk.Lock()
	delete(mo.nodes, id)
	delete(mo.stopping, id)
	mo.space.RemoveVertex(node.coord)
	mo.lk.Unlock()

	mo.config.msink.IncrCounterWithLabels(
		MetricNodeDeregisteredCount, 1.0,
		append([]metrics.Label{LabelNodeID.M(id)}, mo.config.metricLabels...),
	)
	mo.logger.Info("node shut down",
		LabelNodeID.L(id),
		LabelDuration.L(time.Since(start)),
		"dropped", dropped,
	)
	return nil
}

// drainNode closes the inbox, waits for the pump to exhaust it within the
// drain timeout, then flushes and reports what did not make it.
func (mo *MeshOrchestrator) drainNode(node *OuroborosNode) int {
	node.inbox.Close()

	timer := time.NewTimer(mo.config.drainTimeout)
	defer timer.Stop()
	dropped := 0
	select {
	case <-node.pumpDone:
	case <-timer.C:
		mo.logger.Warn("drain timed out, discarding in-flight thoughts",
			LabelNodeID.L(node.id))
		// Flush before stopping, so the pump cannot churn the backlog
		// through the cell on a dead context.
		dropped = node.inbox.Flush()
	}

	node.stop()
	return dropped + node.inbox.Flush()
}

// Shutdown tears the whole mesh down, node by node.
func (mo *MeshOrchestrator) Shutdown() error {
	// Phase 1: Shutdown notify.
	mo.lk.Lock()
	if mo.shutdown {
		mo.lk.Unlock()
		return nil
	}
	mo.shutdown = true
	close(mo.shutdownCh)
	ids := make([]string, 0, len(mo.nodes))
	for id := range mo.nodes {
		ids = append(ids, id)
	}
	mo.lk.Unlock()

	start := time.Now()
	mo.logger.Info("shutting down...")

	sort.Strings(ids)
	for _, id := range ids {
		if err := mo.ShutdownNode(id); err != nil {
			mo.logger.Error("failed to shut a node down", LabelNodeID.L(id), LabelError.L(err))
		}
	}

	// Phase 2: Drop all resources.
	close(mo.dropCh)
	mo.wg.Wait()

	mo.logger.Info("shutdown: completed", LabelDuration.L(time.Since(start)))
	return nil
}

// monitor periodically re-derives node health from heartbeat age and the
// trailing error rate, logging every transition.
func (mo *MeshOrchestrator) monitor() {
	defer mo.wg.Done()
	ticker := time.NewTicker(mo.config.monitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
		case <-mo.dropCh:
			return
		}

		mo.lk.Lock()
		nodes := make([]*OuroborosNode, 0, len(mo.nodes))
		for _, node := range mo.nodes {
			nodes = append(nodes, node)
		}
		mo.lk.Unlock()

		now := time.Now()
		for _, node := range nodes {
			before, after := node.health.evaluate(
				now,
				mo.config.heartbeatTimeout,
				mo.config.errorWindow,
				mo.config.errorRateThreshold,
			)
			if before != after {
				mo.logger.Info("node health transition",
					LabelNodeID.L(node.id),
					"from", before.String(),
					LabelStatus.L(after.String()),
				)
			}
		}
	}
}
