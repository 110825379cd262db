package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/okian/valuematrix/internal/domain/types"
)

// SessionsHandler serves the ranking session routes.
type SessionsHandler struct {
	deps         Dependencies
	defaultTopK  int
	maxBodyBytes int64
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies, defaultTopK int, maxBodyBytes int64) *SessionsHandler {
	return &SessionsHandler{deps: deps, defaultTopK: defaultTopK, maxBodyBytes: maxBodyBytes}
}

func (h *SessionsHandler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes)).Decode(v)
}

// HandleCreate handles POST /sessions.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	var req types.CreateSessionInput
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	view, err := h.deps.CreateSession(r.Context(), req)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// HandleGet handles GET /sessions/{id}.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.Session(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, "api.get_session", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleDelete handles DELETE /sessions/{id}.
func (h *SessionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteSession(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, "api.delete_session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleComparison handles GET /sessions/{id}/comparison. A finished session
// answers 204.
func (h *SessionsHandler) HandleComparison(w http.ResponseWriter, r *http.Request) {
	c, done, err := h.deps.NextComparison(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, "api.next_comparison", err)
		return
	}
	if done {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// idempotencyHeader carries the client key when the body has none.
const idempotencyHeader = "Idempotency-Key"

// HandleRecordDecision handles POST /sessions/{id}/decisions.
func (h *SessionsHandler) HandleRecordDecision(w http.ResponseWriter, r *http.Request) {
	const op = "api.record_decision"
	var req types.DecisionInput
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = r.Header.Get(idempotencyHeader)
	}
	ack, err := h.deps.RecordDecision(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ack)
}

// HandleListDecisions handles GET /sessions/{id}/decisions. With
// ?source=log it returns the persisted decision log instead of the
// in-engine record.
func (h *SessionsHandler) HandleListDecisions(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_decisions"
	id := mux.Vars(r)["id"]
	var (
		ds  []types.DecisionView
		err error
	)
	switch r.URL.Query().Get("source") {
	case "", "engine":
		ds, err = h.deps.Decisions(r.Context(), id)
	case "log":
		ds, err = h.deps.PersistedDecisions(r.Context(), id)
	default:
		err = NewKind(op, ErrBadRequest)
	}
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

// HandleTop handles GET /sessions/{id}/top?k=N.
func (h *SessionsHandler) HandleTop(w http.ResponseWriter, r *http.Request) {
	const op = "api.top"
	k := h.defaultTopK
	if raw := r.URL.Query().Get("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		k = n
	}
	entries, err := h.deps.TopK(r.Context(), mux.Vars(r)["id"], k)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleProgress handles GET /sessions/{id}/progress.
func (h *SessionsHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.Progress(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, "api.progress", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleRefinement handles POST /sessions/{id}/refinement.
func (h *SessionsHandler) HandleRefinement(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.StartRefinement(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, "api.start_refinement", err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// HandleGoverning handles GET /sessions/{id}/governing.
func (h *SessionsHandler) HandleGoverning(w http.ResponseWriter, r *http.Request) {
	entries, err := h.deps.GoverningValues(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, "api.governing_values", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
