package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/okian/childhealth/internal/domain/model"
	"github.com/okian/childhealth/internal/domain/table"
)

// assessmentRequest mirrors the OpenAPI schema for POST /assessments.
type assessmentRequest struct {
	ID string `json:"id,omitempty"`
	model.SurveyInput
}

// AssessmentHandler handles assessment requests.
type AssessmentHandler struct {
	deps AssessmentDependencies
}

// NewAssessmentHandler creates a new assessment handler.
func NewAssessmentHandler(deps AssessmentDependencies) *AssessmentHandler {
	return &AssessmentHandler{deps: deps}
}

// HandleAssessments serves POST /assessments and GET /assessments.
func (h *AssessmentHandler) HandleAssessments(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, "api.assessments", http.MethodGet, http.MethodPost) {
		return
	}
	if r.Method == http.MethodPost {
		h.handlePost(w, r)
		return
	}
	h.handleList(w, r)
}

func (h *AssessmentHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_assessment"
	var req assessmentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	a, err := h.deps.Evaluate(r.Context(), req.SurveyInput, strings.TrimSpace(req.ID))
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/assessments/"+a.ID)
	writeJSON(w, http.StatusCreated, a)
}

func (h *AssessmentHandler) handleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_assessments"
	q := r.URL.Query()
	state, err := table.ParseState(q.Get("sort"), q.Get("order"))
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	// toggle applies a header click to the state the client sent.
	if raw := q.Get("toggle"); raw != "" {
		field, err := table.ParseField(raw)
		if err != nil {
			fail(w, WrapKind(op, ErrBadRequest, err))
			return
		}
		state = state.Toggle(field)
	}
	rows, err := h.deps.List(r.Context(), state)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Sort: state, Items: rows})
}

type listResponse struct {
	Sort  table.State            `json:"sort"`
	Items []model.RiskAssessment `json:"items"`
}

// HandleGetAssessment serves GET /assessments/{id}.
func (h *AssessmentHandler) HandleGetAssessment(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_assessment"
	if !allow(w, r, op, http.MethodGet) {
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		fail(w, NewKind(op, ErrBadRequest))
		return
	}
	a, err := h.deps.Get(r.Context(), id)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, a)
}
