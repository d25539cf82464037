package hypergrid

import (
	"sync"
	"time"
)

// HealthStatus is the coarse state a node is reported in. Transitions are
// driven only by heartbeat and error accounting: Healthy and Degraded flip
// on the trailing error rate, Unreachable on heartbeat age. Deregistration
// is terminal from any state.
type HealthStatus uint8

const (
	Healthy HealthStatus = iota
	Degraded
	Unreachable
)

func (s HealthStatus) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Degraded:
		return "degraded"
	case Unreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// HealthSnapshot is the last-reported view of one node. Reading it never
// touches the node itself.
type HealthSnapshot struct {
	NodeID        string         `json:"node_id"`
	Coordinate    GridCoordinate `json:"-"`
	Position      string         `json:"coordinate"`
	Status        HealthStatus   `json:"-"`
	StatusText    string         `json:"status"`
	LastHeartbeat time.Time      `json:"last_heartbeat"`
	Processed     uint64         `json:"processed"`
	Errors        uint64         `json:"errors"`
	Dropped       uint64         `json:"dropped"`
}

// healthTracker is the mutable health side of a node. The node heartbeats
// and counts; the orchestrator's monitor tick derives the status.
type healthTracker struct {
	lk            sync.Mutex
	lastHeartbeat time.Time
	processed     uint64
	errors        uint64
	dropped       uint64
	recentErrors  []time.Time
	recentTotal   []time.Time
	status        HealthStatus
}

func newHealthTracker() *healthTracker {
	return &healthTracker{lastHeartbeat: time.Now()}
}

func (h *healthTracker) heartbeat() {
	h.lk.Lock()
	h.lastHeartbeat = time.Now()
	h.lk.Unlock()
}

func (h *healthTracker) observe(failed bool, window time.Duration) {
	now := time.Now()
	h.lk.Lock()
	h.lastHeartbeat = now
	h.processed++
	h.recentTotal = append(h.recentTotal, now)
	if failed {
		h.errors++
		h.recentErrors = append(h.recentErrors, now)
	}
	h.trim(now, window)
	h.lk.Unlock()
}

func (h *healthTracker) drop(n uint64) {
	h.lk.Lock()
	h.dropped += n
	h.lk.Unlock()
}

// evaluate recomputes the status from heartbeat age and the trailing
// error rate, returning the previous and current states.
func (h *healthTracker) evaluate(now time.Time, heartbeatTimeout, window time.Duration, errorRate float64) (before, after HealthStatus) {
	h.lk.Lock()
	defer h.lk.Unlock()
	before = h.status
	h.trim(now, window)
	switch {
	case now.Sub(h.lastHeartbeat) > heartbeatTimeout:
		h.status = Unreachable
	case len(h.recentTotal) > 0 &&
		float64(len(h.recentErrors))/float64(len(h.recentTotal)) > errorRate:
		h.status = Degraded
	default:
		h.status = Healthy
	}
	return before, h.status
}

// trim drops window-expired samples. Callers hold the lock.
func (h *healthTracker) trim(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	h.recentErrors = trimBefore(h.recentErrors, cutoff)
	h.recentTotal = trimBefore(h.recentTotal, cutoff)
}

func trimBefore(samples []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(samples) && samples[i].Before(cutoff) {
		i++
	}
	return samples[i:]
}

func (h *healthTracker) snapshot(id string, coord GridCoordinate) HealthSnapshot {
	h.lk.Lock()
	defer h.lk.Unlock()
	return HealthSnapshot{
		NodeID:        id,
		Coordinate:    coord,
		Position:      coord.String(),
		Status:        h.status,
		StatusText:    h.status.String(),
		LastHeartbeat: h.lastHeartbeat,
		Processed:     h.processed,
		Errors:        h.errors,
		Dropped:       h.dropped,
	}
}
