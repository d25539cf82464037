package hypergrid

import (
	"fmt"
	"log/slog"
	"time"

	leg_metrics "github.com/armon/go-metrics"
	"github.com/hashicorp/go-metrics"
	"github.com/hashicorp/memberlist"
)

// Discovery gossips mesh membership over UDP and mirrors it into a
// PeerRegistry, so a statically seeded peer list keeps itself fresh as
// hosts come and go. It is purely additive: a mesh running from a static
// list alone never needs it.
type Discovery struct {
	logger *slog.Logger
	reg    *PeerRegistry
	ml     *memberlist.Memberlist
}

// DiscoveryConfig carries the few knobs gossip needs. Zero values fall
// back to memberlist's LAN profile.
type DiscoveryConfig struct {
	NodeName     string
	BindAddr     string
	BindPort     int
	LogHandler   slog.Handler
	MetricLabels []metrics.Label
}

// NewDiscovery starts the gossip layer and wires its membership events
// into `reg`.
func NewDiscovery(cfg DiscoveryConfig, reg *PeerRegistry) (*Discovery, error) {
	logger := slog.Default()
	if cfg.LogHandler != nil {
		logger = slog.New(cfg.LogHandler)
	}

	mlCfg := memberlist.DefaultLANConfig()
	if cfg.NodeName != "" {
		mlCfg.Name = cfg.NodeName
	}
	if cfg.BindAddr != "" {
		mlCfg.BindAddr = cfg.BindAddr
	}
	if cfg.BindPort != 0 {
		mlCfg.BindPort = cfg.BindPort
		mlCfg.AdvertisePort = cfg.BindPort
	}
	if cfg.LogHandler != nil {
		mlCfg.Logger = slog.NewLogLogger(cfg.LogHandler, slog.LevelDebug)
	}

	// memberlist still speaks the legacy metrics label type, so translate.
	mlCfg.MetricLabels = make([]leg_metrics.Label, len(cfg.MetricLabels))
	for i, label := range cfg.MetricLabels {
		mlCfg.MetricLabels[i] = leg_metrics.Label{
			Name:  label.Name,
			Value: label.Value,
		}
	}

	disc := &Discovery{logger: logger, reg: reg}
	mlCfg.Events = &gossipEvents{logger: logger, reg: reg}

	ml, err := memberlist.Create(mlCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCfg, err)
	}
	disc.ml = ml
	return disc, nil
}

// Join reaches out to the seed peers. Partial joins are logged, not fatal.
func (d *Discovery) Join(seeds []Peer) error {
	if len(seeds) == 0 {
		return nil
	}
	addrs := make([]string, len(seeds))
	for i, p := range seeds {
		addrs[i] = p.Addr
	}
	joined, err := d.ml.Join(addrs)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrJoinPeers, err)
	}
	d.logger.Info("peer ring joined")
	if joined != len(seeds) {
		d.logger.Warn(
			"not all seed peers are reachable",
			"joined", joined,
			"expected", len(seeds),
		)
	}
	return nil
}

// Members lists the current gossip view as peers.
func (d *Discovery) Members() []Peer {
	members := d.ml.Members()
	out := make([]Peer, 0, len(members))
	for _, m := range members {
		out = append(out, Peer{
			ID:   m.Name,
			Addr: fmt.Sprintf("%s:%d", m.Addr, m.Port),
		})
	}
	return out
}

// Leave broadcasts departure, then Shutdown releases gossip resources.
func (d *Discovery) Leave(timeout time.Duration) error {
	return d.ml.Leave(timeout)
}

func (d *Discovery) Shutdown() error {
	return d.ml.Shutdown()
}

type gossipEvents struct {
	logger *slog.Logger
	reg    *PeerRegistry
}

func (g *gossipEvents) NotifyJoin(node *memberlist.Node) {
	g.reg.Put(peerOf(node))
	g.logger.Info("peer joined mesh", LabelPeerName.L(node.Name), LabelPeerAddr.L(node.Address()))
}

func (g *gossipEvents) NotifyLeave(node *memberlist.Node) {
	g.reg.Remove(node.Name)
	g.logger.Info("peer left mesh", LabelPeerName.L(node.Name))
}

func (g *gossipEvents) NotifyUpdate(node *memberlist.Node) {
	g.reg.Put(peerOf(node))
	g.logger.Info("peer updated", LabelPeerName.L(node.Name), LabelPeerAddr.L(node.Address()))
}

func peerOf(node *memberlist.Node) Peer {
	return Peer{
		ID:   node.Name,
		Addr: fmt.Sprintf("%s:%d", node.Addr, node.Port),
	}
}
