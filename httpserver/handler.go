package httpserver

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ruteri/wireserver-ready-agent/goalstate"
	"github.com/ruteri/wireserver-ready-agent/interfaces"
	"github.com/ruteri/wireserver-ready-agent/wireserver"
	"go.uber.org/atomic"
)

// Handler implements the wireserver /machine endpoints used by the provisioning
// handshake.
type Handler struct {
	log       *slog.Logger
	goalState interfaces.GoalState
	document  []byte

	goalStateFailures *atomic.Int64
	healthFailures    *atomic.Int64

	isReady         atomic.Bool
	reportsReceived atomic.Int64

	mu         sync.Mutex
	lastReport []byte
}

func NewHandler(cfg *HTTPServerConfig) (*Handler, error) {
	document, err := goalstate.BuildGoalStateDocument(&cfg.GoalState, cfg.ExtraInstances...)
	if err != nil {
		return nil, err
	}

	return &Handler{
		log:               cfg.Log,
		goalState:         cfg.GoalState,
		document:          document,
		goalStateFailures: atomic.NewInt64(cfg.FailGoalStateRequests),
		healthFailures:    atomic.NewInt64(cfg.FailHealthRequests),
	}, nil
}

// HandleMachineGet serves GET /machine?comp=goalstate.
func (h *Handler) HandleMachineGet(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("comp") != "goalstate" {
		http.Error(w, "unsupported component", http.StatusBadRequest)
		return
	}
	if r.Header.Get(wireserver.VersionHeader) != wireserver.ProtocolVersion {
		http.Error(w, "missing or unsupported x-ms-version", http.StatusBadRequest)
		return
	}

	if h.goalStateFailures.Dec() >= 0 {
		h.log.Debug("Failing goal state request on purpose")
		http.Error(w, "injected failure", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", wireserver.ContentTypeXML)
	w.WriteHeader(http.StatusOK)
	w.Write(h.document)
}

// HandleMachinePost serves POST /machine?comp=health. Reports must carry the
// protocol headers, a Content-Length matching the body and the served goal state.
func (h *Handler) HandleMachinePost(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("comp") != "health" {
		http.Error(w, "unsupported component", http.StatusBadRequest)
		return
	}
	if r.Header.Get(wireserver.VersionHeader) != wireserver.ProtocolVersion {
		http.Error(w, "missing or unsupported x-ms-version", http.StatusBadRequest)
		return
	}
	if r.Header.Get(wireserver.AgentNameHeader) == "" {
		http.Error(w, "missing x-ms-agent-name", http.StatusBadRequest)
		return
	}
	if r.Header.Get("Content-Type") != wireserver.ContentTypeXML {
		http.Error(w, "unexpected content type", http.StatusUnsupportedMediaType)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "could not read body", http.StatusBadRequest)
		return
	}
	if r.ContentLength != int64(len(body)) {
		http.Error(w, "content length mismatch", http.StatusBadRequest)
		return
	}

	if h.healthFailures.Dec() >= 0 {
		h.log.Debug("Failing health report on purpose")
		http.Error(w, "injected failure", http.StatusInternalServerError)
		return
	}

	report, err := goalstate.ParseReadinessDocument(body)
	if err != nil {
		h.log.Warn("Rejecting unparseable health report", "err", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if report.GoalState != h.goalState {
		h.log.Warn("Rejecting health report for a different goal state", "reported", report.GoalState, "expected", h.goalState)
		http.Error(w, "goal state mismatch", http.StatusConflict)
		return
	}

	h.mu.Lock()
	h.lastReport = body
	h.mu.Unlock()
	h.reportsReceived.Inc()
	if report.State == interfaces.ReadyState {
		h.isReady.Store(true)
	}

	h.log.Info("Accepted health report", "incarnation", report.GoalState.Incarnation, "state", report.State, "agent", r.Header.Get(wireserver.AgentNameHeader))
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) LastReport() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return bytes.Clone(h.lastReport)
}
