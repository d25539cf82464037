package hypergrid

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ouroware/hypergrid/pkg/capability"
)

// ControlServer is the HTTP face of an orchestrator. It exists for
// operators and tooling; in-process users call the orchestrator directly.
type ControlServer struct {
	mo       *MeshOrchestrator
	registry *capability.Registry
	logger   *slog.Logger
	srv      *http.Server
}

// NewControlServer binds an orchestrator and a capability registry to an
// HTTP surface. Registration requests name a model; the registry decides
// which adapter backs it.
func NewControlServer(mo *MeshOrchestrator, registry *capability.Registry) *ControlServer {
	return &ControlServer{
		mo:       mo,
		registry: registry,
		logger:   mo.logger,
	}
}

// Handler builds the route tree. Exposed separately from Serve so tests
// can drive it through httptest.
func (cs *ControlServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/status", cs.handleStatus)
	r.Route("/nodes", func(r chi.Router) {
		r.Post("/", cs.handleRegister)
		r.Delete("/", cs.handleShutdownAll)
		r.Post("/{nodeID}/thoughts", cs.handleInject)
		r.Delete("/{nodeID}", cs.handleShutdownNode)
	})
	r.Post("/interwire", cs.handleInterwire)

	return r
}

// Serve listens on `addr` until Close is called.
func (cs *ControlServer) Serve(addr string) error {
	cs.srv = &http.Server{
		Addr:              addr,
		Handler:           cs.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	cs.logger.Info("control surface listening", "addr", addr)
	err := cs.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close stops accepting requests and drains the in-flight ones.
func (cs *ControlServer) Close(ctx context.Context) error {
	if cs.srv == nil {
		return nil
	}
	return cs.srv.Shutdown(ctx)
}

type registerRequest struct {
	ID         string `json:"id"`
	Coordinate []int  `json:"coordinate"`
	Model      string `json:"model"`
}

type registerResponse struct {
	ID         string `json:"id"`
	Coordinate string `json:"coordinate"`
}

func (cs *ControlServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cs.fail(w, http.StatusBadRequest, err)
		return
	}

	cap, err := cs.registry.Resolve(req.Model)
	if err != nil {
		cs.fail(w, http.StatusBadRequest, err)
		return
	}

	coord := At(req.Coordinate...)
	node, err := cs.mo.Register(req.ID, coord, cap)
	if err != nil {
		cs.fail(w, statusOf(err), err)
		return
	}

	cs.reply(w, http.StatusCreated, registerResponse{
		ID:         node.ID(),
		Coordinate: node.Coordinate().String(),
	})
}

type interwireRequest struct {
	Source    string  `json:"source"`
	Target    string  `json:"target"`
	Dimension int     `json:"dimension"`
	Weight    float64 `json:"weight"`
}

type interwireResponse struct {
	Source    string `json:"source"`
	Target    string `json:"target"`
	Dimension int    `json:"dimension"`
}

func (cs *ControlServer) handleInterwire(w http.ResponseWriter, r *http.Request) {
	var req interwireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cs.fail(w, http.StatusBadRequest, err)
		return
	}

	conn, err := cs.mo.Interwire(req.Source, req.Target, req.Dimension, req.Weight)
	if err != nil {
		cs.fail(w, statusOf(err), err)
		return
	}

	cs.reply(w, http.StatusCreated, interwireResponse{
		Source:    conn.SourceID(),
		Target:    conn.TargetID(),
		Dimension: conn.Edge().Dimension,
	})
}

type injectRequest struct {
	Payload string `json:"payload"`
}

type injectResponse struct {
	TraceID string `json:"trace_id"`
}

func (cs *ControlServer) handleInject(w http.ResponseWriter, r *http.Request) {
	var req injectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cs.fail(w, http.StatusBadRequest, err)
		return
	}

	thought, err := cs.mo.Inject(r.Context(), chi.URLParam(r, "nodeID"), req.Payload)
	if err != nil {
		cs.fail(w, statusOf(err), err)
		return
	}

	cs.reply(w, http.StatusAccepted, injectResponse{TraceID: thought.TraceID()})
}

func (cs *ControlServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	cs.reply(w, http.StatusOK, cs.mo.GetHealthReport())
}

func (cs *ControlServer) handleShutdownNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "nodeID")
	if err := cs.mo.ShutdownNode(id); err != nil {
		cs.fail(w, statusOf(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (cs *ControlServer) handleShutdownAll(w http.ResponseWriter, r *http.Request) {
	if err := cs.mo.Shutdown(); err != nil {
		cs.fail(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (cs *ControlServer) reply(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		cs.logger.Error("failed to encode control response", LabelError.L(err))
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (cs *ControlServer) fail(w http.ResponseWriter, status int, err error) {
	cs.logger.Debug("control request rejected", LabelError.L(err), LabelStatus.L(status))
	cs.reply(w, status, errorResponse{Error: err.Error()})
}

// statusOf maps mesh errors onto HTTP statuses.
func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrUnknownNode):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicateNodeID), errors.Is(err, ErrCoordinateOccupied):
		return http.StatusConflict
	case errors.Is(err, ErrMeshClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrNodeIDInvalid),
		errors.Is(err, ErrRankMismatch),
		errors.Is(err, ErrIncompatibleRank),
		errors.Is(err, ErrOutOfRangeDimension):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
