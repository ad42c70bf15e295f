package api

import "net/http"

// AnalysisHandler serves the chart data and the admin overview.
type AnalysisHandler struct {
	deps AnalysisDependencies
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(deps AnalysisDependencies) *AnalysisHandler {
	return &AnalysisHandler{deps: deps}
}

// HandleAnalysis handles GET /analysis requests.
func (h *AnalysisHandler) HandleAnalysis(w http.ResponseWriter, r *http.Request) {
	const op = "api.analysis"
	if !allow(w, r, op, http.MethodGet) {
		return
	}
	v, err := h.deps.Analysis(r.Context())
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleOverview handles GET /overview requests.
func (h *AnalysisHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	const op = "api.overview"
	if !allow(w, r, op, http.MethodGet) {
		return
	}
	o, err := h.deps.Overview(r.Context())
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, o)
}
