package api

import (
	"net/http"
	"strconv"
)

// maxActivityLimit bounds GET /activity?limit.
const maxActivityLimit = 1000

// ActivityHandler handles activity log requests.
type ActivityHandler struct {
	deps         ActivityDependencies
	defaultLimit int
}

// NewActivityHandler creates a new activity handler.
func NewActivityHandler(deps ActivityDependencies, defaultLimit int) *ActivityHandler {
	return &ActivityHandler{deps: deps, defaultLimit: defaultLimit}
}

// HandleActivity handles GET /activity?limit=N requests.
func (h *ActivityHandler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	const op = "api.activity"
	if !allow(w, r, op, http.MethodGet) {
		return
	}
	limit := h.defaultLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > maxActivityLimit {
			fail(w, NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}
	logs, err := h.deps.Activity(r.Context(), limit)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
