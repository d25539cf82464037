package hypergrid

import (
	"log/slog"

	"github.com/hashicorp/go-metrics"
)

var (
	MetricThoughtProcessedCount = []string{"hypergrid", "thought", "processed", "count"}
	MetricThoughtFailedCount    = []string{"hypergrid", "thought", "failed", "count"}
	MetricThoughtForwardedCount = []string{"hypergrid", "thought", "forwarded", "count"}
	// MetricThoughtDroppedCount counts thoughts discarded because a
	// shutdown drain timed out or no open connection wanted them.
	MetricThoughtDroppedCount = []string{"hypergrid", "thought", "dropped", "count"}
	MetricTapDroppedCount     = []string{"hypergrid", "tap", "dropped", "count"}

	MetricNodeRegisteredCount   = []string{"hypergrid", "node", "registered", "count"}
	MetricNodeDeregisteredCount = []string{"hypergrid", "node", "deregistered", "count"}
	MetricConnEstablishedCount  = []string{"hypergrid", "connection", "established", "count"}
	MetricConnClosedCount       = []string{"hypergrid", "connection", "closed", "count"}
)

type TelemetryLabel string

var (
	LabelError      TelemetryLabel = "error"
	LabelNodeID     TelemetryLabel = "node_id"
	LabelCoordinate TelemetryLabel = "coordinate"
	LabelDimension  TelemetryLabel = "dimension"
	LabelTraceID    TelemetryLabel = "trace_id"
	LabelPeerName   TelemetryLabel = "peer_name"
	LabelPeerAddr   TelemetryLabel = "peer_addr"
	LabelDuration   TelemetryLabel = "duration"
	LabelStatus     TelemetryLabel = "status"
)

func (lab TelemetryLabel) M(val string) metrics.Label {
	return metrics.Label{Name: string(lab), Value: val}
}

func (lab TelemetryLabel) L(val any) slog.Attr {
	return slog.Attr{
		Key:   string(lab),
		Value: slog.AnyValue(val),
	}
}
