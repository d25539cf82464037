package hypergrid

import (
	"log/slog"
	"time"

	"github.com/hashicorp/go-metrics"
)

type config struct {
	rank         int
	policy       FlowPolicy
	logHandler   slog.Handler
	msink        metrics.MetricSink
	metricLabels []metrics.Label
	peers        *PeerRegistry

	// Required: neither carries a default.
	heartbeatTimeout time.Duration
	drainTimeout     time.Duration

	heartbeatInterval  time.Duration
	monitorInterval    time.Duration
	errorWindow        time.Duration
	errorRateThreshold float64
	inboxDepth         int
}

// Option to pass to `Create`.
type Option func(*config) error

// WithRank fixes the dimension count shared by every vertex of the mesh.
func WithRank(rank int) Option {
	return func(c *config) error {
		if rank > 0 {
			c.rank = rank
		}
		return nil
	}
}

// WithDefaultPolicy sets the flow policy nodes route with unless they
// were registered with their own.
func WithDefaultPolicy(policy FlowPolicy) Option {
	return func(c *config) error {
		if policy != nil {
			c.policy = policy
		}
		return nil
	}
}

// WithLog specifies which `slog.Handler` to use.
func WithLog(handler slog.Handler) Option {
	return func(c *config) error {
		c.logHandler = handler
		return nil
	}
}

// WithMetricSink allows you to chose how to collect the metrics emitted
// by your mesh.
func WithMetricSink(ms metrics.MetricSink) Option {
	return func(c *config) error {
		if ms == nil {
			ms = &metrics.BlackholeSink{}
		}
		c.msink = ms
		return nil
	}
}

// WithMetricLabels adds static labels to all metrics produced by the mesh.
func WithMetricLabels(labels []metrics.Label) Option {
	return func(c *config) error {
		c.metricLabels = labels
		return nil
	}
}

// WithPeerRegistry hands the orchestrator an explicitly constructed peer
// registry. Passing it in, rather than reading ambient state, is what lets
// several independent meshes share one process under test.
func WithPeerRegistry(peers *PeerRegistry) Option {
	return func(c *config) error {
		c.peers = peers
		return nil
	}
}

// WithHeartbeatTimeout sets how stale a node's heartbeat may grow before
// the monitor flags it Unreachable. Required.
func WithHeartbeatTimeout(timeout time.Duration) Option {
	return func(c *config) error {
		c.heartbeatTimeout = timeout
		return nil
	}
}

// WithDrainTimeout bounds how long Shutdown waits for a node's in-flight
// thoughts before discarding them. Required.
func WithDrainTimeout(timeout time.Duration) Option {
	return func(c *config) error {
		c.drainTimeout = timeout
		return nil
	}
}

// WithHeartbeatInterval overrides how often nodes refresh their heartbeat.
func WithHeartbeatInterval(interval time.Duration) Option {
	return func(c *config) error {
		if interval > 0 {
			c.heartbeatInterval = interval
		}
		return nil
	}
}

// WithMonitorInterval overrides how often the orchestrator re-evaluates
// node health.
func WithMonitorInterval(interval time.Duration) Option {
	return func(c *config) error {
		if interval > 0 {
			c.monitorInterval = interval
		}
		return nil
	}
}

// WithErrorRate configures the Degraded threshold: a node whose failure
// share over the trailing `window` exceeds `threshold` is flagged.
func WithErrorRate(threshold float64, window time.Duration) Option {
	return func(c *config) error {
		if threshold > 0 {
			c.errorRateThreshold = threshold
		}
		if window > 0 {
			c.errorWindow = window
		}
		return nil
	}
}

// WithInboxDepth sets how many thoughts a node buffers before producers
// block on it.
func WithInboxDepth(depth int) Option {
	return func(c *config) error {
		if depth > 0 {
			c.inboxDepth = depth
		}
		return nil
	}
}
