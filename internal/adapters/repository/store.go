package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/childhealth/internal/domain/dedupe"
	"github.com/okian/childhealth/internal/domain/model"
	"github.com/okian/childhealth/pkg/logger"
	"github.com/okian/childhealth/pkg/metrics"
)

// Activity log messages.
const (
	MsgSystemInitialized = "System initialized"
	msgPrediction        = "New %s risk prediction created for %s region"
	msgExport            = "Exported %d predictions to %s"
)

// Store holds the ordered assessment sequence and the activity log.
// Assessments are kept oldest first; the activity log newest first.
type Store struct {
	mu sync.RWMutex

	kv KV
	// deduper reserves an ID before s.mu is taken, so a concurrent append of
	// the same ID fails at once instead of queueing behind a full rewrite.
	// byID is only the lookup index for stored records.
	deduper dedupe.Deduper
	now     func() time.Time
	newID   func() string

	records []model.RiskAssessment
	logs    []model.ActivityLog
	byID    map[string]int

	metricsUpdateInterval time.Duration
	stopCh                chan struct{}
	wg                    sync.WaitGroup
	closeOnce             sync.Once

	log logger.Logger
}

// Open loads persisted records and activity from kv. A fresh store gets a
// single "System initialized" activity entry.
func Open(ctx context.Context, kv KV, opts ...Option) (*Store, error) {
	s := &Store{
		kv:                    kv,
		now:                   time.Now,
		newID:                 uuid.NewString,
		deduper:               dedupe.NewInMemoryDeduper(),
		byID:                  make(map[string]int),
		metricsUpdateInterval: 5 * time.Second,
		stopCh:                make(chan struct{}),
		log:                   logger.Get().Named("store"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := load(ctx, kv, KeyPredictions, &s.records); err != nil {
		return nil, err
	}
	if err := load(ctx, kv, KeyActivityLogs, &s.logs); err != nil {
		return nil, err
	}
	for i, r := range s.records {
		s.byID[r.ID] = i
		s.deduper.SeenAndRecord(ctx, r.ID)
	}

	if len(s.logs) == 0 {
		s.logs = []model.ActivityLog{s.entry(MsgSystemInitialized, model.ActivitySystem)}
		if err := s.persist(ctx, KeyActivityLogs, s.logs); err != nil {
			return nil, err
		}
	}

	metrics.UpdateStoreRecords(len(s.records))
	s.log.Info(ctx, "record store opened",
		logger.Int("records", len(s.records)),
		logger.Int("activity", len(s.logs)),
	)

	s.wg.Add(1)
	go s.metricsUpdater()

	return s, nil
}

func load[T any](ctx context.Context, kv KV, key string, into *[]T) error {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if !ok || len(raw) == 0 {
		*into = []T{}
		return nil
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCorrupt, key, err)
	}
	if *into == nil {
		*into = []T{}
	}
	return nil
}

func (s *Store) persist(ctx context.Context, key string, v any) error {
	start := time.Now()
	raw, err := json.Marshal(v)
	if err != nil {
		metrics.RecordStoreWriteError()
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Put(ctx, key, raw); err != nil {
		metrics.RecordStoreWriteError()
		return fmt.Errorf("persist %s: %w", key, err)
	}
	metrics.RecordStoreWriteLatency(float64(time.Since(start).Microseconds()) / 1000)
	return nil
}

func (s *Store) entry(action string, t model.ActivityType) model.ActivityLog {
	return model.ActivityLog{ID: s.newID(), Action: action, Timestamp: s.now(), Type: t}
}

// prepend adds log at the head of the activity log and persists it.
// Callers hold s.mu.
func (s *Store) prepend(ctx context.Context, log model.ActivityLog) error {
	logs := make([]model.ActivityLog, 0, len(s.logs)+1)
	logs = append(logs, log)
	logs = append(logs, s.logs...)
	if err := s.persist(ctx, KeyActivityLogs, logs); err != nil {
		return err
	}
	s.logs = logs
	return nil
}

// Append stores a and records a prediction activity entry. It returns
// ErrDuplicateID when an assessment with the same ID is already stored.
func (s *Store) Append(ctx context.Context, a model.RiskAssessment) error {
	if s.deduper.SeenAndRecord(ctx, a.ID) {
		metrics.RecordDuplicateID()
		return fmt.Errorf("%w: %s", ErrDuplicateID, a.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := append(slices.Clip(s.records), a)
	if err := s.persist(ctx, KeyPredictions, records); err != nil {
		s.deduper.Unrecord(ctx, a.ID)
		return err
	}
	s.records = records
	s.byID[a.ID] = len(records) - 1

	action := fmt.Sprintf(msgPrediction, strings.ToLower(string(a.RiskCategory)), a.Region)
	if err := s.prepend(ctx, s.entry(action, model.ActivityPrediction)); err != nil {
		// The assessment itself is durable; only the log line is lost.
		s.log.Warn(ctx, "failed to persist activity entry", logger.Error(err))
	}

	metrics.UpdateStoreRecords(len(s.records))
	return nil
}

// RecordExport adds an export activity entry for n records in format.
func (s *Store) RecordExport(ctx context.Context, n int, format string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prepend(ctx, s.entry(fmt.Sprintf(msgExport, n, strings.ToUpper(format)), model.ActivityExport))
}

// Get returns the assessment with the given ID.
func (s *Store) Get(_ context.Context, id string) (model.RiskAssessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return model.RiskAssessment{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.records[i], nil
}

// Snapshot returns a copy of every assessment in store order.
func (s *Store) Snapshot(_ context.Context) []model.RiskAssessment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records)
}

// Activity returns up to n activity entries, newest first. n <= 0 returns all.
func (s *Store) Activity(_ context.Context, n int) []model.ActivityLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || n > len(s.logs) {
		n = len(s.logs)
	}
	return slices.Clone(s.logs[:n])
}

// ActivityCount returns the total number of activity entries.
func (s *Store) ActivityCount(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs)
}

// TrackedIDs returns how many IDs are reserved, including appends in flight.
func (s *Store) TrackedIDs() int64 {
	return s.deduper.Size()
}

// Count returns the number of stored assessments.
func (s *Store) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close stops background work. The KV stays open; it belongs to whoever
// passed it to Open.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopCh)
		s.wg.Wait()
	})
	return nil
}

// metricsUpdater periodically refreshes the record gauge.
func (s *Store) metricsUpdater() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.mu.RLock()
			n := len(s.records)
			s.mu.RUnlock()
			metrics.UpdateStoreRecords(n)
		}
	}
}
