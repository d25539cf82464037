package hypergrid

import (
	"net"
	"sort"
	"strings"
	"sync"
)

// Peer is one known mesh participant: a node id and the address it can be
// reached at.
type Peer struct {
	ID   string
	Addr string
}

// ParsePeerList reads a flat list of `nodeId=address` or bare-address
// entries. A bare address uses its host segment as the node id. Malformed
// entries are skipped silently: discovery input is best-effort, not a
// validation surface.
func ParsePeerList(entries []string) []Peer {
	var out []Peer
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		var peer Peer
		if id, addr, ok := strings.Cut(entry, "="); ok {
			id, addr = strings.TrimSpace(id), strings.TrimSpace(addr)
			if id == "" || addr == "" {
				continue
			}
			peer = Peer{ID: id, Addr: addr}
		} else {
			host := entry
			if h, _, err := net.SplitHostPort(entry); err == nil {
				host = h
			}
			if host == "" {
				continue
			}
			peer = Peer{ID: host, Addr: entry}
		}
		out = append(out, peer)
	}
	return out
}

// PeerRegistry is the process-local view of who is out there. It is
// constructed explicitly from configuration and passed by reference into
// the orchestrator, so several independent meshes can coexist in one
// process.
type PeerRegistry struct {
	lk    sync.RWMutex
	peers map[string]Peer
}

// NewPeerRegistry seeds a registry with `peers`, usually the output of
// ParsePeerList.
func NewPeerRegistry(peers []Peer) *PeerRegistry {
	reg := &PeerRegistry{peers: make(map[string]Peer, len(peers))}
	for _, p := range peers {
		reg.peers[p.ID] = p
	}
	return reg
}

// Put inserts or refreshes one peer.
func (reg *PeerRegistry) Put(peer Peer) {
	reg.lk.Lock()
	reg.peers[peer.ID] = peer
	reg.lk.Unlock()
}

// Remove forgets a peer by id.
func (reg *PeerRegistry) Remove(id string) {
	reg.lk.Lock()
	delete(reg.peers, id)
	reg.lk.Unlock()
}

// Lookup resolves one peer by id.
func (reg *PeerRegistry) Lookup(id string) (Peer, bool) {
	reg.lk.RLock()
	defer reg.lk.RUnlock()
	p, has := reg.peers[id]
	return p, has
}

// Snapshot lists the known peers, ordered by id.
func (reg *PeerRegistry) Snapshot() []Peer {
	reg.lk.RLock()
	out := make([]Peer, 0, len(reg.peers))
	for _, p := range reg.peers {
		out = append(out, p)
	}
	reg.lk.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len is the number of known peers.
func (reg *PeerRegistry) Len() int {
	reg.lk.RLock()
	defer reg.lk.RUnlock()
	return len(reg.peers)
}
