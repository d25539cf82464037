package hypergrid

import "errors"

var (
	ErrNodeIDInvalid = errors.New("mesh: node ids must only contain alphanum, dashes, dots and be less than 128 chars")

	ErrInvalidCfg       = errors.New("mesh: invalid options")
	ErrConfigRequired   = errors.New("mesh: heartbeat and drain timeouts are required configuration")
	ErrMeshClosed       = errors.New("mesh: orchestrator is shut down")
	ErrDuplicateNodeID  = errors.New("mesh: node id already registered")
	ErrUnknownNode      = errors.New("mesh: node id is not registered")
	ErrConnectionClosed = errors.New("mesh: stream connection is closed")
	ErrJoinPeers        = errors.New("mesh: could not join peer gossip ring")

	ErrOutOfRangeDimension = errors.New("topology: dimension index exceeds coordinate rank")
	ErrRankMismatch        = errors.New("topology: coordinate rank differs from the space rank")
	ErrCoordinateOccupied  = errors.New("topology: coordinate already holds a vertex")
	ErrUnknownVertex       = errors.New("topology: edge endpoint is not a registered vertex")
	ErrIncompatibleRank    = errors.New("topology: edge dimension exceeds endpoint rank")
)
