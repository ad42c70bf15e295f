// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/childhealth/internal/adapters/export"
	"github.com/okian/childhealth/internal/adapters/repository"
	"github.com/okian/childhealth/internal/domain/aggregate"
	"github.com/okian/childhealth/internal/domain/model"
	"github.com/okian/childhealth/internal/domain/scoring"
	"github.com/okian/childhealth/internal/domain/table"
	"github.com/okian/childhealth/pkg/logger"
	"github.com/okian/childhealth/pkg/metrics"
)

// Component health states reported by Overview.
const (
	StatusOperational = "Operational"
	StatusHealthy     = "Healthy"
	StatusActive      = "Active"
	StatusRunning     = "Running"
	StatusDown        = "Down"
)

// Service owns the record store and runs assessments against it.
type Service struct {
	mu sync.RWMutex

	// Core components
	kv     repository.KV
	store  *repository.Store
	scorer *scoring.Scorer

	// Configuration
	inferenceMinLatency time.Duration
	inferenceMaxLatency time.Duration
	strict              bool
	location            *time.Location
	activityLimit       int
	now                 func() time.Time

	// State
	started   bool
	startedAt time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithKV sets the key-value backend the record store is opened on.
func WithKV(kv repository.KV) Option {
	return func(s *Service) {
		if kv != nil {
			s.kv = kv
		}
	}
}

// WithScorer replaces the default scorer.
func WithScorer(sc *scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithInferenceLatencyRange sets the simulated inference latency range.
// A zero range disables the delay.
func WithInferenceLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(s *Service) {
		if minLatency >= 0 && maxLatency >= minLatency {
			s.inferenceMinLatency = minLatency
			s.inferenceMaxLatency = maxLatency
		}
	}
}

// WithStrictValidation rejects out-of-range survey inputs.
func WithStrictValidation(strict bool) Option {
	return func(s *Service) {
		s.strict = strict
	}
}

// WithLocation sets the zone used for timeline dates and export timestamps.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithActivityLimit sets how many entries Overview includes.
func WithActivityLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.activityLimit = n
		}
	}
}

// WithClock sets the time source for export file names.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		inferenceMinLatency: 1000 * time.Millisecond,
		inferenceMaxLatency: 1500 * time.Millisecond,
		location:            time.Local,
		activityLimit:       10,
		now:                 time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the record store.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.kv == nil {
		// Kept across Stop so a restart sees the same records.
		s.kv = repository.NewMemoryKV()
		s.logger.Info(ctx, "using in-memory record store")
	}
	if s.scorer == nil {
		s.scorer = scoring.NewScorer()
	}

	s.logger.Info(ctx, "starting child health service...")

	store, err := repository.Open(ctx, s.kv)
	if err != nil {
		return fmt.Errorf("open record store: %w", err)
	}
	s.store = store
	s.started = true
	s.startedAt = s.now()

	s.logger.Info(ctx, "child health service started",
		logger.Int("records", store.Count(ctx)),
		logger.Bool("strictValidation", s.strict),
		logger.Duration("inferenceMinLatency", s.inferenceMinLatency),
		logger.Duration("inferenceMaxLatency", s.inferenceMaxLatency),
	)

	return nil
}

// Stop closes the record store. The KV is left open so a later Start
// reloads the same records.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping child health service...")
	if err := s.store.Close(); err != nil {
		s.logger.Warn(context.Background(), "record store close failed", logger.Error(err))
	}

	s.started = false
	s.logger.Info(context.Background(), "child health service stopped")
}

func (s *Service) storeOrErr() (*repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// Evaluate scores in after the simulated inference delay and stores the
// result. A non-empty id replaces the generated one.
func (s *Service) Evaluate(ctx context.Context, in model.SurveyInput, id string) (model.RiskAssessment, error) {
	store, err := s.storeOrErr()
	if err != nil {
		return model.RiskAssessment{}, err
	}

	if s.strict {
		if err := scoring.Validate(in); err != nil {
			metrics.RecordValidationFailure()
			return model.RiskAssessment{}, err
		}
	}

	if id != "" {
		// Fail fast; Append still has the final word on uniqueness.
		if _, err := store.Get(ctx, id); err == nil {
			metrics.RecordDuplicateID()
			return model.RiskAssessment{}, fmt.Errorf("%w: %s", repository.ErrDuplicateID, id)
		}
	}

	start := time.Now()
	if err := s.simulateInference(ctx); err != nil {
		return model.RiskAssessment{}, err
	}

	a := s.scorer.Evaluate(in)
	if id != "" {
		a.ID = id
	}
	if err := store.Append(ctx, a); err != nil {
		return model.RiskAssessment{}, err
	}

	metrics.RecordEvaluationLatency(float64(time.Since(start).Milliseconds()))
	metrics.RecordAssessment(string(a.RiskCategory), a.ProbabilityPercent, a.ConfidencePercent)

	s.logger.Debug(ctx, "assessment stored",
		logger.String("id", a.ID),
		logger.String("category", string(a.RiskCategory)),
		logger.Float64("probability", a.ProbabilityPercent),
		logger.String("region", string(a.Region)),
	)
	return a, nil
}

// simulateInference waits a random duration in the configured range.
func (s *Service) simulateInference(ctx context.Context) error {
	d := s.inferenceMinLatency
	if spread := s.inferenceMaxLatency - s.inferenceMinLatency; spread > 0 {
		d += time.Duration(rand.Int64N(int64(spread) + 1))
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// List returns stored assessments ordered for the report table.
func (s *Service) List(ctx context.Context, state table.State) ([]model.RiskAssessment, error) {
	store, err := s.storeOrErr()
	if err != nil {
		return nil, err
	}
	return table.Sort(store.Snapshot(ctx), state)
}

// Get returns one stored assessment.
func (s *Service) Get(ctx context.Context, id string) (model.RiskAssessment, error) {
	store, err := s.storeOrErr()
	if err != nil {
		return model.RiskAssessment{}, err
	}
	return store.Get(ctx, id)
}

// Analysis rebuilds the aggregate view from the current records.
func (s *Service) Analysis(ctx context.Context) (aggregate.View, error) {
	store, err := s.storeOrErr()
	if err != nil {
		return aggregate.View{}, err
	}
	start := time.Now()
	v := aggregate.Summarize(store.Snapshot(ctx), aggregate.WithLocation(s.location))
	metrics.RecordSummarizeDuration(float64(time.Since(start).Microseconds()) / 1000)
	return v, nil
}

// Overview returns counts, the most recent activity and component health.
func (s *Service) Overview(ctx context.Context) (model.Overview, error) {
	store, err := s.storeOrErr()
	if err != nil {
		return model.Overview{}, err
	}

	v := aggregate.Summarize(store.Snapshot(ctx), aggregate.WithLocation(s.location))

	return model.Overview{
		TotalPredictions: v.Total,
		HighRisk:         v.Counts.High,
		MediumRisk:       v.Counts.Medium,
		LowRisk:          v.Counts.Low,
		ActivityCount:    store.ActivityCount(ctx),
		RecentActivity:   store.Activity(ctx, s.activityLimit),
		Health:           s.health(),
	}, nil
}

func (s *Service) health() []model.ComponentStatus {
	s.mu.RLock()
	up := s.started
	s.mu.RUnlock()

	state := func(ok string) string {
		if up {
			return ok
		}
		return StatusDown
	}
	return []model.ComponentStatus{
		{Name: "API Status", Status: StatusOperational},
		{Name: "Database", Status: state(StatusHealthy)},
		{Name: "Prediction Model", Status: state(StatusActive)},
		{Name: "Data Processing", Status: state(StatusRunning)},
	}
}

// Activity returns up to n activity entries, newest first.
func (s *Service) Activity(ctx context.Context, n int) ([]model.ActivityLog, error) {
	store, err := s.storeOrErr()
	if err != nil {
		return nil, err
	}
	return store.Activity(ctx, n), nil
}

// Export renders every record in store order to w and logs the export.
func (s *Service) Export(ctx context.Context, w io.Writer, f export.Format) (export.Result, error) {
	store, err := s.storeOrErr()
	if err != nil {
		return export.Result{}, err
	}

	records := store.Snapshot(ctx)
	if len(records) == 0 {
		metrics.RecordExport(string(f), "no_data")
		return export.Result{}, export.ErrNoData
	}
	if err := export.Write(w, f, records, export.WithLocation(s.location)); err != nil {
		if !errors.Is(err, export.ErrUnsupportedFormat) {
			metrics.RecordExport(string(f), "error")
			return export.Result{}, err
		}
		// The dashboard logs a PDF request even though nothing is rendered.
		metrics.RecordExport(string(f), "unsupported")
		s.logExport(ctx, store, len(records), f)
		return export.Result{}, err
	}
	metrics.RecordExport(string(f), "ok")
	s.logExport(ctx, store, len(records), f)

	return export.Result{
		FileName:    export.FileName(s.now(), f),
		ContentType: export.ContentType(f),
		Records:     len(records),
	}, nil
}

func (s *Service) logExport(ctx context.Context, store *repository.Store, n int, f export.Format) {
	if err := store.RecordExport(ctx, n, string(f)); err != nil {
		s.logger.Warn(ctx, "failed to log export", logger.Error(err))
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":             s.started,
		"strictValidation":    s.strict,
		"inferenceMinLatency": s.inferenceMinLatency.String(),
		"inferenceMaxLatency": s.inferenceMaxLatency.String(),
		"timezone":            s.location.String(),
	}

	if s.started {
		records := s.store.Count(ctx)
		stats["totalPredictions"] = records
		stats["activityEntries"] = s.store.ActivityCount(ctx)
		stats["trackedIDs"] = s.store.TrackedIDs()
		stats["uptime"] = s.now().Sub(s.startedAt).Round(time.Second).String()

		metrics.UpdateStoreRecords(records)
	}

	return stats
}
