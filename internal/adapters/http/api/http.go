// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/okian/childhealth/internal/adapters/export"
	"github.com/okian/childhealth/internal/domain/aggregate"
	"github.com/okian/childhealth/internal/domain/model"
	"github.com/okian/childhealth/internal/domain/table"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	AssessmentDependencies
	AnalysisDependencies
	ActivityDependencies
	ExportDependencies
}

// AssessmentDependencies covers creating and reading assessments.
type AssessmentDependencies interface {
	Evaluate(ctx context.Context, in model.SurveyInput, id string) (model.RiskAssessment, error)
	List(ctx context.Context, state table.State) ([]model.RiskAssessment, error)
	Get(ctx context.Context, id string) (model.RiskAssessment, error)
}

// AnalysisDependencies builds chart and overview data.
type AnalysisDependencies interface {
	Analysis(ctx context.Context) (aggregate.View, error)
	Overview(ctx context.Context) (model.Overview, error)
}

// ActivityDependencies reads the activity log.
type ActivityDependencies interface {
	Activity(ctx context.Context, n int) ([]model.ActivityLog, error)
}

// ExportDependencies renders export files.
type ExportDependencies interface {
	Export(ctx context.Context, w io.Writer, f export.Format) (export.Result, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	assessmentHandler *AssessmentHandler
	analysisHandler   *AnalysisHandler
	activityHandler   *ActivityHandler
	exportHandler     *ExportHandler
	dashboardHandler  *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := options{activityLimit: defaultActivityLimit}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		assessmentHandler: NewAssessmentHandler(deps),
		analysisHandler:   NewAnalysisHandler(deps),
		activityHandler:   NewActivityHandler(deps, o.activityLimit),
		exportHandler:     NewExportHandler(deps),
		dashboardHandler:  newdashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/assessments", MetricsMiddleware(s.assessmentHandler.HandleAssessments, "assessments"))
	mux.HandleFunc("/assessments/{id}", MetricsMiddleware(s.assessmentHandler.HandleGetAssessment, "assessment"))
	mux.HandleFunc("/analysis", MetricsMiddleware(s.analysisHandler.HandleAnalysis, "analysis"))
	mux.HandleFunc("/overview", MetricsMiddleware(s.analysisHandler.HandleOverview, "overview"))
	mux.HandleFunc("/activity", MetricsMiddleware(s.activityHandler.HandleActivity, "activity"))
	mux.HandleFunc("/export", MetricsMiddleware(s.exportHandler.HandleExport, "export"))
}

// Option configures the Server.
type Option func(*options)

type options struct {
	activityLimit int
}

const defaultActivityLimit = 10

// WithActivityLimit sets the default page size of GET /activity.
func WithActivityLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.activityLimit = n
		}
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail writes err with the status its kind maps to.
func fail(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}

func allow(w http.ResponseWriter, r *http.Request, op string, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	for _, m := range methods {
		w.Header().Add("Allow", m)
	}
	fail(w, NewKind(op, ErrMethodNotAllowed))
	return false
}
